// Package demoplugin provides the stage that synthesizes the demo plugin and
// the aliased copy of the fixture database exercising a custom route.
package demoplugin

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/internal/stage"
)

const pluginTemplate = `from datasette import hookimpl


@hookimpl
def startup(datasette):
    db = datasette.get_database("{{database}}")
    db.route = "{{route}}"
`

// New creates a new demoplugin provider.
func New(logger log.Logger) stage.Provider {
	return &demopluginProvider{
		logger: logger,
	}
}

type demopluginProvider struct {
	logger log.Logger
}

func (p *demopluginProvider) Kind() string {
	return "demoplugin"
}

func (p *demopluginProvider) InputSchema() map[string]*schema.PropertySchema {
	return map[string]*schema.PropertySchema{
		"source_database": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Source database"),
				schema.PointerTo("Workspace path of the database file to copy under the alternative name."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			schema.PointerTo(`"fixtures.db"`),
			nil,
		),
		"database": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Database"),
				schema.PointerTo("Workspace path of the copied database the plugin re-routes."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			schema.PointerTo(`"fixtures2.db"`),
			nil,
		),
		"route": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Route"),
				schema.PointerTo("URL route the plugin assigns to the copied database."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			schema.PointerTo(`"alternative-route"`),
			nil,
		),
		"plugins_dir": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Plugins directory"),
				schema.PointerTo("Workspace directory the plugin file is written into."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			schema.PointerTo(`"plugins"`),
			nil,
		),
	}
}

func (p *demopluginProvider) Load(input map[string]any, env *stage.Environment) (stage.Runnable, error) {
	sourceDatabase, err := stage.OptionalStringValue(input, "source_database", "fixtures.db")
	if err != nil {
		return nil, err
	}
	database, err := stage.OptionalStringValue(input, "database", "fixtures2.db")
	if err != nil {
		return nil, err
	}
	route, err := stage.OptionalStringValue(input, "route", "alternative-route")
	if err != nil {
		return nil, err
	}
	pluginsDir, err := stage.OptionalStringValue(input, "plugins_dir", "plugins")
	if err != nil {
		return nil, err
	}
	return &runnableStage{
		sourceDatabase: sourceDatabase,
		database:       database,
		route:          route,
		pluginsDir:     pluginsDir,
		env:            env,
	}, nil
}

type runnableStage struct {
	sourceDatabase string
	database       string
	route          string
	pluginsDir     string
	env            *stage.Environment
}

func (r *runnableStage) Run(_ context.Context) (stage.Outputs, error) {
	if err := r.copyDatabase(); err != nil {
		return nil, err
	}
	pluginPath := path.Join(r.pluginsDir, "alternative_route.py")
	databaseName := strings.TrimSuffix(path.Base(r.database), path.Ext(r.database))
	body := strings.NewReplacer(
		"{{database}}", databaseName,
		"{{route}}", r.route,
	).Replace(pluginTemplate)
	if err := r.env.FS.MkdirAll(r.pluginsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plugins directory %s (%w)", r.pluginsDir, err)
	}
	if err := util.WriteFile(r.env.FS, pluginPath, []byte(body), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write plugin file %s (%w)", pluginPath, err)
	}
	r.env.Logger.Infof("Wrote demo plugin %s routing %s to /%s.", pluginPath, databaseName, r.route)
	return stage.Outputs{
		"plugin": pluginPath,
	}, nil
}

func (r *runnableStage) copyDatabase() error {
	source, err := r.env.FS.Open(r.sourceDatabase)
	if err != nil {
		return fmt.Errorf("failed to open source database %s (%w)", r.sourceDatabase, err)
	}
	defer func() {
		_ = source.Close()
	}()
	target, err := r.env.FS.Create(r.database)
	if err != nil {
		return fmt.Errorf("failed to create database copy %s (%w)", r.database, err)
	}
	if _, err := io.Copy(target, source); err != nil {
		_ = target.Close()
		return fmt.Errorf("failed to copy %s to %s (%w)", r.sourceDatabase, r.database, err)
	}
	return target.Close()
}
