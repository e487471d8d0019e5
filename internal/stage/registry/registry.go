// Package registry provides the stage registry, joining the stage providers
// together.
package registry

import (
	"sort"

	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/internal/stage"
)

// New creates a new stage registry from the specified providers.
func New(providers ...stage.Provider) (stage.Registry, error) {
	p := make(map[string]stage.Provider, len(providers))
	for _, provider := range providers {
		if _, ok := p[provider.Kind()]; ok {
			return nil, &stage.ErrDuplicateProviderKind{
				Kind: provider.Kind(),
			}
		}
		p[provider.Kind()] = provider
	}
	return &stageRegistry{
		providers: p,
	}, nil
}

type stageRegistry struct {
	providers map[string]stage.Provider
}

func (r *stageRegistry) GetByKind(kind string) (stage.Provider, error) {
	provider, ok := r.providers[kind]
	if !ok {
		return nil, &stage.ErrProviderNotFound{
			Kind:       kind,
			ValidKinds: r.kinds(),
		}
	}
	return provider, nil
}

func (r *stageRegistry) SchemaByKind(kind string) (schema.Object, error) {
	provider, err := r.GetByKind(kind)
	if err != nil {
		return nil, err
	}
	return schema.NewObjectSchema(provider.Kind(), provider.InputSchema()), nil
}

func (r *stageRegistry) List() map[string]stage.Provider {
	result := make(map[string]stage.Provider, len(r.providers))
	for kind, provider := range r.providers {
		result[kind] = provider
	}
	return result
}

func (r *stageRegistry) kinds() []string {
	kinds := make([]string, 0, len(r.providers))
	for kind := range r.providers {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
