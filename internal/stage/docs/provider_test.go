package docs_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"go.arcalot.io/assert"
	log "go.arcalot.io/log/v2"

	"github.com/deckhand-ci/deckhand/internal/artifact"
	"github.com/deckhand-ci/deckhand/internal/gitref"
	"github.com/deckhand-ci/deckhand/internal/stage"
	"github.com/deckhand-ci/deckhand/internal/stage/docs"
)

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

func TestRenderDocs(t *testing.T) {
	provider := docs.New(log.NewTestLogger(t))
	env := testEnvironment(t)
	assert.NoError(t, os.MkdirAll(filepath.Join(env.WorkDir, "docs"), 0o755))
	assert.NoError(t, os.WriteFile(
		filepath.Join(env.WorkDir, "docs", "index.md"),
		[]byte("# Getting started\n\nInstall the tool.\n"),
		0o644,
	))

	runnable := assert.NoErrorR[stage.Runnable](t)(provider.Load(map[string]any{}, env))
	outputs := assert.NoErrorR[stage.Outputs](t)(runnable.Run(context.Background()))
	assert.Equals(t, outputs["pages"].(int64), int64(1))

	db := assert.NoErrorR[*sql.DB](t)(sql.Open("sqlite", filepath.Join(env.WorkDir, "docs.db")))
	defer func() {
		_ = db.Close()
	}()
	var title string
	assert.NoError(t, db.QueryRow("SELECT title FROM pages WHERE path = ?", "index").Scan(&title))
	assert.Equals(t, title, "Getting started")
}

func TestMissingDocsTree(t *testing.T) {
	provider := docs.New(log.NewTestLogger(t))
	env := testEnvironment(t)
	runnable := assert.NoErrorR[stage.Runnable](t)(provider.Load(map[string]any{
		"source": "nonexistent",
	}, env))
	_, err := runnable.Run(context.Background())
	assert.Error(t, err)
}
