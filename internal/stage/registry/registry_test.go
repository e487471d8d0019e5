package registry_test

import (
	"errors"
	"testing"

	"go.arcalot.io/assert"

	"github.com/deckhand-ci/deckhand/internal/stage"
	"github.com/deckhand-ci/deckhand/internal/stage/dummy"
	"github.com/deckhand-ci/deckhand/internal/stage/registry"
)

func TestGetByKind(t *testing.T) {
	r := assert.NoErrorR[stage.Registry](t)(registry.New(dummy.New()))
	provider := assert.NoErrorR[stage.Provider](t)(r.GetByKind("dummy"))
	assert.Equals(t, provider.Kind(), "dummy")
	assert.Equals(t, len(r.List()), 1)
}

func TestGetByKindNotFound(t *testing.T) {
	r := assert.NoErrorR[stage.Registry](t)(registry.New(dummy.New()))
	_, err := r.GetByKind("nonexistent")
	assert.Error(t, err)
	var notFound *stage.ErrProviderNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrProviderNotFound, got %T", err)
	}
	assert.Equals(t, notFound.ValidKinds, []string{"dummy"})
}

func TestDuplicateKind(t *testing.T) {
	_, err := registry.New(dummy.New(), dummy.New())
	assert.Error(t, err)
	var duplicate *stage.ErrDuplicateProviderKind
	if !errors.As(err, &duplicate) {
		t.Fatalf("expected ErrDuplicateProviderKind, got %T", err)
	}
}

func TestSchemaByKindValidatesInput(t *testing.T) {
	r := assert.NoErrorR[stage.Registry](t)(registry.New(dummy.New()))
	s, err := r.SchemaByKind("dummy")
	assert.NoError(t, err)
	_, err = s.Unserialize(map[string]any{"message": "hello"})
	assert.NoError(t, err)
	_, err = s.Unserialize(map[string]any{"unknown_field": true})
	assert.Error(t, err)
}
