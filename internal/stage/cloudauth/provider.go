// Package cloudauth provides the stage that authenticates the deployment CLI
// against the cloud platform before anything is published. It resolves the
// service-account credentials from the secrets manager, writes them to a key
// file readable only by the worker, and configures the CLI with them.
package cloudauth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/config"
	"github.com/deckhand-ci/deckhand/internal/runner"
	"github.com/deckhand-ci/deckhand/internal/secrets"
	"github.com/deckhand-ci/deckhand/internal/stage"
)

const keyFileName = "cloud-credentials.json"

// New creates a new cloudauth provider.
func New(logger log.Logger, run runner.Runner, secretsManager *secrets.Manager, cloud *config.CloudConfig) stage.Provider {
	return &cloudauthProvider{
		logger:  logger,
		runner:  run,
		secrets: secretsManager,
		cloud:   cloud,
	}
}

type cloudauthProvider struct {
	logger  log.Logger
	runner  runner.Runner
	secrets *secrets.Manager
	cloud   *config.CloudConfig
}

func (p *cloudauthProvider) Kind() string {
	return "cloudauth"
}

func (p *cloudauthProvider) InputSchema() map[string]*schema.PropertySchema {
	return map[string]*schema.PropertySchema{
		"secret": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Secret"),
				schema.PointerTo("Secret reference of the service-account credentials. Empty selects the configured credentials secret."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"project": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Project"),
				schema.PointerTo("Cloud project to select. Empty selects the configured project."),
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

func (p *cloudauthProvider) Load(input map[string]any, env *stage.Environment) (stage.Runnable, error) {
	if p.cloud == nil {
		return nil, fmt.Errorf("no cloud configuration present, cannot authenticate")
	}
	secretRef, err := stage.OptionalStringValue(input, "secret", p.cloud.CredentialsSecret)
	if err != nil {
		return nil, err
	}
	project, err := stage.OptionalStringValue(input, "project", p.cloud.Project)
	if err != nil {
		return nil, err
	}
	return &runnableStage{
		secretRef: secretRef,
		project:   project,
		region:    p.cloud.Region,
		runner:    p.runner,
		secrets:   p.secrets,
		env:       env,
	}, nil
}

type runnableStage struct {
	secretRef string
	project   string
	region    string
	runner    runner.Runner
	secrets   *secrets.Manager
	env       *stage.Environment
}

func (r *runnableStage) Run(ctx context.Context) (stage.Outputs, error) {
	credentials, err := r.secrets.Resolve(r.secretRef)
	if err != nil {
		return nil, err
	}
	keyFile := filepath.Join(r.env.WorkDir, keyFileName)
	if err := os.WriteFile(keyFile, []byte(credentials), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write credentials file (%w)", err)
	}
	if _, err := r.runner.Run(ctx, runner.Command{
		Argv: []string{"gcloud", "auth", "activate-service-account", "--key-file", keyFile},
		Dir:  r.env.WorkDir,
	}); err != nil {
		return nil, fmt.Errorf("cloud authentication failed (%w)", err)
	}
	if r.project != "" {
		if _, err := r.runner.Run(ctx, runner.Command{
			Argv: []string{"gcloud", "config", "set", "project", r.project},
			Dir:  r.env.WorkDir,
		}); err != nil {
			return nil, fmt.Errorf("failed to select cloud project %s (%w)", r.project, err)
		}
	}
	if r.region != "" {
		if _, err := r.runner.Run(ctx, runner.Command{
			Argv: []string{"gcloud", "config", "set", "run/region", r.region},
			Dir:  r.env.WorkDir,
		}); err != nil {
			return nil, fmt.Errorf("failed to select cloud region %s (%w)", r.region, err)
		}
	}
	r.env.Logger.Infof("Authenticated deployment CLI against project %s.", r.project)
	return stage.Outputs{
		"key_file": keyFile,
	}, nil
}
