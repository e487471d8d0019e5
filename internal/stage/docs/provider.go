// Package docs provides the stage that renders the documentation tree into a
// browsable database for the documentation deployment.
package docs

import (
	"context"
	"fmt"

	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/internal/docsite"
	"github.com/deckhand-ci/deckhand/internal/stage"
)

// New creates a new docs provider.
func New(logger log.Logger) stage.Provider {
	return &docsProvider{
		logger: logger,
	}
}

type docsProvider struct {
	logger log.Logger
}

func (p *docsProvider) Kind() string {
	return "docs"
}

func (p *docsProvider) InputSchema() map[string]*schema.PropertySchema {
	return map[string]*schema.PropertySchema{
		"source": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Source"),
				schema.PointerTo("Workspace directory holding the Markdown documentation."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			schema.PointerTo(`"docs"`),
			nil,
		),
		"database": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Database"),
				schema.PointerTo("Workspace path of the documentation database file to write."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			schema.PointerTo(`"docs.db"`),
			nil,
		),
	}
}

func (p *docsProvider) Load(input map[string]any, env *stage.Environment) (stage.Runnable, error) {
	source, err := stage.OptionalStringValue(input, "source", "docs")
	if err != nil {
		return nil, err
	}
	database, err := stage.OptionalStringValue(input, "database", "docs.db")
	if err != nil {
		return nil, err
	}
	return &runnableStage{
		source:   source,
		database: database,
		env:      env,
	}, nil
}

type runnableStage struct {
	source   string
	database string
	env      *stage.Environment
}

func (r *runnableStage) Run(ctx context.Context) (stage.Outputs, error) {
	pages, err := docsite.Render(r.env.Abs(r.source))
	if err != nil {
		return nil, fmt.Errorf("failed to render documentation from %s (%w)", r.source, err)
	}
	if err := docsite.WriteDatabase(ctx, r.env.Abs(r.database), pages); err != nil {
		return nil, fmt.Errorf("failed to write documentation database %s (%w)", r.database, err)
	}
	r.env.Logger.Infof("Rendered %d documentation pages into %s.", len(pages), r.database)
	return stage.Outputs{
		"pages": int64(len(pages)),
	}, nil
}
