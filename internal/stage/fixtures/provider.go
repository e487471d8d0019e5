// Package fixtures provides the stage that builds the fixture database files
// served by the deployed preview instance.
package fixtures

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5/util"
	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/internal/fixturedb"
	"github.com/deckhand-ci/deckhand/internal/stage"
)

// New creates a new fixtures provider.
func New(logger log.Logger) stage.Provider {
	return &fixturesProvider{
		logger: logger,
	}
}

type fixturesProvider struct {
	logger log.Logger
}

func (p *fixturesProvider) Kind() string {
	return "fixtures"
}

func (p *fixturesProvider) InputSchema() map[string]*schema.PropertySchema {
	return map[string]*schema.PropertySchema{
		"spec": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Fixture spec"),
				schema.PointerTo("Workspace path of the JSON fixture specification."),
				nil,
			),
			true,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"database": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Database"),
				schema.PointerTo("Workspace path of the primary fixture database file to write."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			schema.PointerTo(`"fixtures.db"`),
			nil,
		),
		"extra_database": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Extra database"),
				schema.PointerTo("Workspace path of the extra database file to write."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			schema.PointerTo(`"extra_database.db"`),
			nil,
		),
		"plugins_dir": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Plugins directory"),
				schema.PointerTo("Workspace directory that must exist so later stages can add demo plugins."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
	}
}

func (p *fixturesProvider) Load(input map[string]any, env *stage.Environment) (stage.Runnable, error) {
	specPath, err := stage.StringValue(input, "spec")
	if err != nil {
		return nil, err
	}
	database, err := stage.OptionalStringValue(input, "database", "fixtures.db")
	if err != nil {
		return nil, err
	}
	extraDatabase, err := stage.OptionalStringValue(input, "extra_database", "extra_database.db")
	if err != nil {
		return nil, err
	}
	pluginsDir, err := stage.OptionalStringValue(input, "plugins_dir", "")
	if err != nil {
		return nil, err
	}
	return &runnableStage{
		specPath:      specPath,
		database:      database,
		extraDatabase: extraDatabase,
		pluginsDir:    pluginsDir,
		env:           env,
	}, nil
}

type runnableStage struct {
	specPath      string
	database      string
	extraDatabase string
	pluginsDir    string
	env           *stage.Environment
}

func (r *runnableStage) Run(ctx context.Context) (stage.Outputs, error) {
	specData, err := util.ReadFile(r.env.FS, r.specPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture spec %s (%w)", r.specPath, err)
	}
	spec, err := fixturedb.LoadSpec(specData)
	if err != nil {
		return nil, err
	}
	if err := fixturedb.Build(ctx, r.env.Abs(r.database), spec.Tables); err != nil {
		return nil, fmt.Errorf("failed to build fixture database %s (%w)", r.database, err)
	}
	r.env.Logger.Infof("Built fixture database %s with %d tables.", r.database, len(spec.Tables))
	outputs := stage.Outputs{
		"tables": int64(len(spec.Tables)),
	}
	if len(spec.ExtraTables) > 0 {
		if err := fixturedb.Build(ctx, r.env.Abs(r.extraDatabase), spec.ExtraTables); err != nil {
			return nil, fmt.Errorf("failed to build extra database %s (%w)", r.extraDatabase, err)
		}
		r.env.Logger.Infof("Built extra database %s with %d tables.", r.extraDatabase, len(spec.ExtraTables))
		outputs["extra_tables"] = int64(len(spec.ExtraTables))
	}
	if r.pluginsDir != "" {
		if err := r.env.FS.MkdirAll(r.pluginsDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create plugins directory %s (%w)", r.pluginsDir, err)
		}
	}
	return outputs, nil
}
