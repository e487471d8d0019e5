// Package metadata provides the stage that derives the deployment metadata
// file from the source metadata document.
package metadata

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5/util"
	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/internal/metafile"
	"github.com/deckhand-ci/deckhand/internal/stage"
)

// New creates a new metadata provider.
func New(logger log.Logger) stage.Provider {
	return &metadataProvider{
		logger: logger,
	}
}

type metadataProvider struct {
	logger log.Logger
}

func (p *metadataProvider) Kind() string {
	return "metadata"
}

func (p *metadataProvider) InputSchema() map[string]*schema.PropertySchema {
	return map[string]*schema.PropertySchema{
		"source": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Source"),
				schema.PointerTo("Workspace path of the source metadata document."),
				nil,
			),
			true,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"output": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Output"),
				schema.PointerTo("Workspace path of the derived metadata file to write."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			schema.PointerTo(`"metadata.json"`),
			nil,
		),
	}
}

func (p *metadataProvider) Load(input map[string]any, env *stage.Environment) (stage.Runnable, error) {
	source, err := stage.StringValue(input, "source")
	if err != nil {
		return nil, err
	}
	output, err := stage.OptionalStringValue(input, "output", "metadata.json")
	if err != nil {
		return nil, err
	}
	return &runnableStage{
		source: source,
		output: output,
		env:    env,
	}, nil
}

type runnableStage struct {
	source string
	output string
	env    *stage.Environment
}

func (r *runnableStage) Run(_ context.Context) (stage.Outputs, error) {
	data, err := util.ReadFile(r.env.FS, r.source)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata source %s (%w)", r.source, err)
	}
	doc, err := metafile.Load(data)
	if err != nil {
		return nil, err
	}
	derived := metafile.Apply(doc)
	if err := metafile.Write(r.env.Abs(r.output), derived); err != nil {
		return nil, err
	}
	r.env.Logger.Infof("Wrote deployment metadata %s.", r.output)
	return stage.Outputs{
		"output": r.output,
	}, nil
}
