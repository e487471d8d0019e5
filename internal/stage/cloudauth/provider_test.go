package cloudauth_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"go.arcalot.io/assert"
	log "go.arcalot.io/log/v2"

	"github.com/deckhand-ci/deckhand/config"
	"github.com/deckhand-ci/deckhand/internal/artifact"
	"github.com/deckhand-ci/deckhand/internal/gitref"
	"github.com/deckhand-ci/deckhand/internal/runner"
	"github.com/deckhand-ci/deckhand/internal/secrets"
	"github.com/deckhand-ci/deckhand/internal/stage"
	"github.com/deckhand-ci/deckhand/internal/stage/cloudauth"
)

type recordingRunner struct {
	commands []runner.Command
}

func (r *recordingRunner) Run(_ context.Context, cmd runner.Command) (*runner.Result, error) {
	r.commands = append(r.commands, cmd)
	return &runner.Result{}, nil
}

func (r *recordingRunner) RunWithRetry(ctx context.Context, cmd runner.Command, _ uint64) (*runner.Result, error) {
	return r.Run(ctx, cmd)
}

func testEnvironment(t *testing.T) *stage.Environment {
	workDir := t.TempDir()
	fs := osfs.New(workDir)
	logger := log.NewTestLogger(t)
	return &stage.Environment{
		Logger:    logger,
		FS:        fs,
		WorkDir:   workDir,
		Ref:       gitref.Ref{Name: "refs/heads/main", SHA: "0000000000000000000000000000000000000000"},
		Artifacts: artifact.NewStore(fs, logger),
	}
}

func TestAuthenticate(t *testing.T) {
	secretsManager := assert.NoErrorR[*secrets.Manager](t)(secrets.NewManager(
		secrets.NewStaticProvider(map[string]string{
			"DEPLOY_SA_KEY": `{"type": "service_account"}`,
		}),
	))
	run := &recordingRunner{}
	provider := cloudauth.New(log.NewTestLogger(t), run, secretsManager, &config.CloudConfig{
		Binary:            "datasette",
		Target:            "cloudrun",
		Project:           "demo-project",
		Region:            "us-central1",
		CredentialsSecret: "DEPLOY_SA_KEY",
	})
	env := testEnvironment(t)

	runnable := assert.NoErrorR[stage.Runnable](t)(provider.Load(map[string]any{}, env))
	outputs := assert.NoErrorR[stage.Outputs](t)(runnable.Run(context.Background()))

	keyFile := outputs["key_file"].(string)
	assert.Equals(t, keyFile, filepath.Join(env.WorkDir, "cloud-credentials.json"))
	written := assert.NoErrorR[[]byte](t)(os.ReadFile(keyFile))
	assert.Equals(t, string(written), `{"type": "service_account"}`)
	info := assert.NoErrorR[os.FileInfo](t)(os.Stat(keyFile))
	assert.Equals(t, info.Mode().Perm(), os.FileMode(0o600))

	assert.Equals(t, len(run.commands), 3)
	assert.Equals(t, strings.Join(run.commands[0].Argv[:4], " "), "gcloud auth activate-service-account --key-file")
	assert.Equals(t, strings.Join(run.commands[1].Argv, " "), "gcloud config set project demo-project")
	assert.Equals(t, strings.Join(run.commands[2].Argv, " "), "gcloud config set run/region us-central1")
}

func TestMissingSecret(t *testing.T) {
	secretsManager := assert.NoErrorR[*secrets.Manager](t)(secrets.NewManager(
		secrets.NewStaticProvider(map[string]string{}),
	))
	provider := cloudauth.New(log.NewTestLogger(t), &recordingRunner{}, secretsManager, &config.CloudConfig{
		CredentialsSecret: "DEPLOY_SA_KEY",
	})
	env := testEnvironment(t)
	runnable := assert.NoErrorR[stage.Runnable](t)(provider.Load(map[string]any{}, env))
	_, err := runnable.Run(context.Background())
	assert.Error(t, err)
}

func TestNoCloudConfig(t *testing.T) {
	secretsManager := assert.NoErrorR[*secrets.Manager](t)(secrets.NewManager(secrets.NewEnvProvider()))
	provider := cloudauth.New(log.NewTestLogger(t), &recordingRunner{}, secretsManager, nil)
	_, err := provider.Load(map[string]any{}, testEnvironment(t))
	assert.Error(t, err)
}
