package artifact_test

import (
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"go.arcalot.io/assert"
	log "go.arcalot.io/log/v2"

	"github.com/deckhand-ci/deckhand/internal/artifact"
)

func TestRegisterAndVerify(t *testing.T) {
	fs := memfs.New()
	assert.NoError(t, util.WriteFile(fs, "fixtures.db", []byte("db"), 0o644))

	store := artifact.NewStore(fs, log.NewTestLogger(t))
	assert.NoError(t, store.Register("fixtures.db", "fixtures"))
	assert.NoError(t, store.Verify("deploy", []string{"fixtures.db"}))

	entry, ok := store.Get("fixtures.db")
	assert.Equals(t, ok, true)
	assert.Equals(t, entry.Stage, "fixtures")
}

func TestRegisterMissingFile(t *testing.T) {
	store := artifact.NewStore(memfs.New(), log.NewTestLogger(t))
	err := store.Register("fixtures.db", "fixtures")
	assert.Error(t, err)
	var missing *artifact.ErrMissingArtifact
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingArtifact, got %T", err)
	}
	assert.Equals(t, missing.Path, "fixtures.db")
}

func TestVerifyUnproduced(t *testing.T) {
	store := artifact.NewStore(memfs.New(), log.NewTestLogger(t))
	err := store.Verify("deploy", []string{"docs.db"})
	assert.Error(t, err)
}

func TestVerifySkipped(t *testing.T) {
	store := artifact.NewStore(memfs.New(), log.NewTestLogger(t))
	store.RegisterSkipped("docs.db", "docs")
	err := store.Verify("deploy-docs", []string{"docs.db"})
	assert.Error(t, err)
	var skipped *artifact.ErrSkippedArtifact
	if !errors.As(err, &skipped) {
		t.Fatalf("expected ErrSkippedArtifact, got %T", err)
	}
	assert.Equals(t, skipped.ProducedBy, "docs")
}

func TestDuplicateProducer(t *testing.T) {
	fs := memfs.New()
	assert.NoError(t, util.WriteFile(fs, "fixtures.db", []byte("db"), 0o644))
	store := artifact.NewStore(fs, log.NewTestLogger(t))
	assert.NoError(t, store.Register("fixtures.db", "fixtures"))
	assert.Error(t, store.Register("fixtures.db", "other"))
}
