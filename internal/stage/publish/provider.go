// Package publish provides the stage that publishes database files to the
// managed container platform through the deployment CLI. The service name is
// derived from the push reference so every branch gets its own deployment
// next to the primary one.
package publish

import (
	"context"
	"fmt"

	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/config"
	"github.com/deckhand-ci/deckhand/internal/gitref"
	"github.com/deckhand-ci/deckhand/internal/runner"
	"github.com/deckhand-ci/deckhand/internal/secrets"
	"github.com/deckhand-ci/deckhand/internal/stage"
)

// New creates a new publish provider.
func New(logger log.Logger, run runner.Runner, secretsManager *secrets.Manager, cloud *config.CloudConfig) stage.Provider {
	return &publishProvider{
		logger:  logger,
		runner:  run,
		secrets: secretsManager,
		cloud:   cloud,
	}
}

type publishProvider struct {
	logger  log.Logger
	runner  runner.Runner
	secrets *secrets.Manager
	cloud   *config.CloudConfig
}

func (p *publishProvider) Kind() string {
	return "publish"
}

func (p *publishProvider) InputSchema() map[string]*schema.PropertySchema {
	stringType := func() *schema.StringSchema {
		return schema.NewStringSchema(schema.IntPointer(1), nil, nil)
	}
	return map[string]*schema.PropertySchema{
		"databases": schema.NewPropertySchema(
			schema.NewListSchema(stringType(), schema.IntPointer(1), nil),
			schema.NewDisplayValue(
				schema.PointerTo("Databases"),
				schema.PointerTo("Workspace paths of the database files to publish."),
				nil,
			),
			true,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"service": schema.NewPropertySchema(
			stringType(),
			schema.NewDisplayValue(
				schema.PointerTo("Service"),
				schema.PointerTo("Base service name. The branch suffix is appended to it."),
				nil,
			),
			true,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"metadata": schema.NewPropertySchema(
			stringType(),
			schema.NewDisplayValue(
				schema.PointerTo("Metadata"),
				schema.PointerTo("Workspace path of the metadata file passed to the CLI."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"plugins_dir": schema.NewPropertySchema(
			stringType(),
			schema.NewDisplayValue(
				schema.PointerTo("Plugins directory"),
				schema.PointerTo("Workspace directory of plugins bundled into the deployment."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"secret": schema.NewPropertySchema(
			stringType(),
			schema.NewDisplayValue(
				schema.PointerTo("Secret"),
				schema.PointerTo("Secret reference of the signing secret handed to the deployed instance."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"extra_options": schema.NewPropertySchema(
			stringType(),
			schema.NewDisplayValue(
				schema.PointerTo("Extra options"),
				schema.PointerTo("Extra serve options passed through to the deployed instance."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"install": schema.NewPropertySchema(
			schema.NewListSchema(stringType(), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Install"),
				schema.PointerTo("Additional packages installed into the deployment image."),
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

func (p *publishProvider) Load(input map[string]any, env *stage.Environment) (stage.Runnable, error) {
	if p.cloud == nil {
		return nil, fmt.Errorf("no cloud configuration present, cannot publish")
	}
	databases, err := stage.StringListValue(input, "databases")
	if err != nil {
		return nil, err
	}
	if len(databases) == 0 {
		return nil, fmt.Errorf("missing required input field: databases")
	}
	service, err := stage.StringValue(input, "service")
	if err != nil {
		return nil, err
	}
	metadata, err := stage.OptionalStringValue(input, "metadata", "")
	if err != nil {
		return nil, err
	}
	pluginsDir, err := stage.OptionalStringValue(input, "plugins_dir", "")
	if err != nil {
		return nil, err
	}
	secretRef, err := stage.OptionalStringValue(input, "secret", "")
	if err != nil {
		return nil, err
	}
	extraOptions, err := stage.OptionalStringValue(input, "extra_options", "")
	if err != nil {
		return nil, err
	}
	install, err := stage.StringListValue(input, "install")
	if err != nil {
		return nil, err
	}
	return &runnableStage{
		databases:    databases,
		service:      service,
		metadata:     metadata,
		pluginsDir:   pluginsDir,
		secretRef:    secretRef,
		extraOptions: extraOptions,
		install:      install,
		runner:       p.runner,
		secrets:      p.secrets,
		cloud:        p.cloud,
		env:          env,
	}, nil
}

type runnableStage struct {
	databases    []string
	service      string
	metadata     string
	pluginsDir   string
	secretRef    string
	extraOptions string
	install      []string
	runner       runner.Runner
	secrets      *secrets.Manager
	cloud        *config.CloudConfig
	env          *stage.Environment
}

func (r *runnableStage) Run(ctx context.Context) (stage.Outputs, error) {
	serviceName := gitref.ServiceName(r.service, r.env.Ref.Name)
	argv := []string{r.cloud.Binary, "publish", r.cloud.Target}
	argv = append(argv, r.databases...)
	if r.metadata != "" {
		argv = append(argv, "-m", r.metadata)
	}
	if r.pluginsDir != "" {
		argv = append(argv, "--plugins-dir", r.pluginsDir)
	}
	if r.env.Ref.SHA != "" {
		argv = append(argv, "--branch="+r.env.Ref.SHA)
	}
	if r.extraOptions != "" {
		argv = append(argv, "--extra-options="+r.extraOptions)
	}
	for _, pkg := range r.install {
		argv = append(argv, "--install="+pkg)
	}
	argv = append(argv, "--service", serviceName)
	if r.secretRef != "" {
		secret, err := r.secrets.Resolve(r.secretRef)
		if err != nil {
			return nil, err
		}
		argv = append(argv, "--secret", secret)
	}
	r.env.Logger.Infof("Publishing %d databases to service %s.", len(r.databases), serviceName)
	if _, err := r.runner.RunWithRetry(ctx, runner.Command{
		Argv: argv,
		Dir:  r.env.WorkDir,
	}, uint64(r.cloud.PublishRetries)); err != nil { //nolint:gosec
		return nil, fmt.Errorf("failed to publish service %s (%w)", serviceName, err)
	}
	return stage.Outputs{
		"service": serviceName,
	}, nil
}
