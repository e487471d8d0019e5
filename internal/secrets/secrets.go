// Package secrets resolves the secret values pipeline stages need, such as
// service-account credentials and the deployment token. Values are looked up
// just in time through named providers so they never live in the pipeline
// file.
package secrets

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Provider resolves secret names to values from one backing source.
type Provider interface {
	// Name identifies the provider, e.g. "env".
	Name() string
	// Resolve returns the value of the named secret, or an ErrSecretNotFound
	// if the source does not hold it.
	Resolve(name string) (string, error)
}

// Manager holds the registered providers and routes resolution requests.
type Manager struct {
	providers       map[string]Provider
	defaultProvider string
}

// NewManager creates a manager with the passed providers registered. The
// first provider becomes the default for unqualified secret references.
func NewManager(providers ...Provider) (*Manager, error) {
	m := &Manager{
		providers: make(map[string]Provider, len(providers)),
	}
	for _, p := range providers {
		if _, ok := m.providers[p.Name()]; ok {
			return nil, fmt.Errorf("duplicate secrets provider: %s", p.Name())
		}
		m.providers[p.Name()] = p
		if m.defaultProvider == "" {
			m.defaultProvider = p.Name()
		}
	}
	if m.defaultProvider == "" {
		return nil, fmt.Errorf("no secrets providers registered")
	}
	return m, nil
}

// Resolve resolves a secret reference. References are either a bare secret
// name resolved through the default provider, or "provider://name" to select
// a provider explicitly.
func (m *Manager) Resolve(ref string) (string, error) {
	providerName := m.defaultProvider
	name := ref
	if idx := strings.Index(ref, "://"); idx >= 0 {
		providerName = ref[:idx]
		name = ref[idx+3:]
	}
	if name == "" {
		return "", fmt.Errorf("empty secret reference")
	}
	provider, ok := m.providers[providerName]
	if !ok {
		valid := make([]string, 0, len(m.providers))
		for k := range m.providers {
			valid = append(valid, k)
		}
		sort.Strings(valid)
		return "", fmt.Errorf(
			"unknown secrets provider %s (available: %s)",
			providerName,
			strings.Join(valid, ", "),
		)
	}
	return provider.Resolve(name)
}

// ErrSecretNotFound signals that a provider does not hold the named secret.
type ErrSecretNotFound struct {
	Provider string
	Name     string
}

// Error returns the error message.
func (e ErrSecretNotFound) Error() string {
	return fmt.Sprintf("secret %s not found in provider %s", e.Name, e.Provider)
}

// NewEnvProvider creates a provider that resolves secrets from environment
// variables, which is how the automation platform hands them to the worker.
func NewEnvProvider() Provider {
	return &envProvider{}
}

type envProvider struct {
}

func (p *envProvider) Name() string {
	return "env"
}

func (p *envProvider) Resolve(name string) (string, error) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return "", &ErrSecretNotFound{Provider: p.Name(), Name: name}
	}
	return value, nil
}

// NewStaticProvider creates a provider backed by a fixed map, intended for
// tests.
func NewStaticProvider(values map[string]string) Provider {
	return &staticProvider{values: values}
}

type staticProvider struct {
	values map[string]string
}

func (p *staticProvider) Name() string {
	return "static"
}

func (p *staticProvider) Resolve(name string) (string, error) {
	value, ok := p.values[name]
	if !ok {
		return "", &ErrSecretNotFound{Provider: p.Name(), Name: name}
	}
	return value, nil
}
