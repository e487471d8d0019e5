package secrets_test

import (
	"errors"
	"testing"

	"go.arcalot.io/assert"

	"github.com/deckhand-ci/deckhand/internal/secrets"
)

func TestResolveDefaultProvider(t *testing.T) {
	m := assert.NoErrorR[*secrets.Manager](t)(secrets.NewManager(
		secrets.NewStaticProvider(map[string]string{"DEPLOY_TOKEN": "hunter2"}),
	))
	value := assert.NoErrorR[string](t)(m.Resolve("DEPLOY_TOKEN"))
	assert.Equals(t, value, "hunter2")
}

func TestResolveQualifiedReference(t *testing.T) {
	t.Setenv("DECKHAND_TEST_SECRET", "from-env")
	m := assert.NoErrorR[*secrets.Manager](t)(secrets.NewManager(
		secrets.NewStaticProvider(map[string]string{}),
		secrets.NewEnvProvider(),
	))
	value := assert.NoErrorR[string](t)(m.Resolve("env://DECKHAND_TEST_SECRET"))
	assert.Equals(t, value, "from-env")
}

func TestResolveMissingSecret(t *testing.T) {
	m := assert.NoErrorR[*secrets.Manager](t)(secrets.NewManager(
		secrets.NewStaticProvider(map[string]string{}),
	))
	_, err := m.Resolve("NOPE")
	assert.Error(t, err)
	var notFound *secrets.ErrSecretNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrSecretNotFound, got %T", err)
	}
	assert.Equals(t, notFound.Name, "NOPE")
}

func TestResolveUnknownProvider(t *testing.T) {
	m := assert.NoErrorR[*secrets.Manager](t)(secrets.NewManager(
		secrets.NewStaticProvider(map[string]string{}),
	))
	_, err := m.Resolve("vault://NOPE")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "static")
}

func TestNoProviders(t *testing.T) {
	_, err := secrets.NewManager()
	assert.Error(t, err)
}
