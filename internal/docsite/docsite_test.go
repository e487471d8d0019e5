package docsite_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"go.arcalot.io/assert"

	"github.com/deckhand-ci/deckhand/internal/docsite"
)

func writeDocs(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	assert.NoError(t, os.MkdirAll(filepath.Join(root, "guide"), 0o755))
	assert.NoError(t, os.WriteFile(
		filepath.Join(root, "index.md"),
		[]byte("# Getting started\n\nSome *introduction* text.\n"),
		0o644,
	))
	assert.NoError(t, os.WriteFile(
		filepath.Join(root, "guide", "install.md"),
		[]byte("No heading here.\n"),
		0o644,
	))
	return root
}

func TestRender(t *testing.T) {
	pages := assert.NoErrorR[[]docsite.Page](t)(docsite.Render(writeDocs(t)))
	assert.Equals(t, len(pages), 2)
	// Deterministic path order.
	assert.Equals(t, pages[0].Path, "guide/install")
	assert.Equals(t, pages[0].Title, "guide/install")
	assert.Equals(t, pages[1].Path, "index")
	assert.Equals(t, pages[1].Title, "Getting started")
	assert.Contains(t, pages[1].Body, "<em>introduction</em>")
}

func TestRenderEmptyTree(t *testing.T) {
	_, err := docsite.Render(t.TempDir())
	assert.Error(t, err)
}

func TestWriteDatabase(t *testing.T) {
	pages := assert.NoErrorR[[]docsite.Page](t)(docsite.Render(writeDocs(t)))
	dbPath := filepath.Join(t.TempDir(), "docs.db")
	assert.NoError(t, docsite.WriteDatabase(context.Background(), dbPath, pages))

	db := assert.NoErrorR[*sql.DB](t)(sql.Open("sqlite", dbPath))
	defer func() {
		_ = db.Close()
	}()
	var title string
	assert.NoError(t, db.QueryRow("SELECT title FROM pages WHERE path = 'index'").Scan(&title))
	assert.Equals(t, title, "Getting started")
}
