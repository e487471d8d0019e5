// Package cache provides the stages that restore and save the dependency
// cache around dependency installation. The cache key is derived from the
// dependency manifest, so a manifest change invalidates the entry.
package cache

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5/util"
	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/internal/depcache"
	"github.com/deckhand-ci/deckhand/internal/stage"
)

const (
	actionRestore = "restore"
	actionSave    = "save"
)

// New creates a new cache provider over the passed dependency cache.
func New(logger log.Logger, cache *depcache.Cache) stage.Provider {
	return &cacheProvider{
		logger: logger,
		cache:  cache,
	}
}

type cacheProvider struct {
	logger log.Logger
	cache  *depcache.Cache
}

func (p *cacheProvider) Kind() string {
	return "cache"
}

func (p *cacheProvider) InputSchema() map[string]*schema.PropertySchema {
	return map[string]*schema.PropertySchema{
		"action": schema.NewPropertySchema(
			schema.NewStringEnumSchema(map[string]*schema.DisplayValue{
				actionRestore: {NameValue: schema.PointerTo("Restore")},
				actionSave:    {NameValue: schema.PointerTo("Save")},
			}),
			schema.NewDisplayValue(
				schema.PointerTo("Action"),
				schema.PointerTo("Whether to restore or save the cache."),
				nil,
			),
			true,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"manifest": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Manifest"),
				schema.PointerTo("Workspace path of the dependency manifest hashed into the cache key."),
				nil,
			),
			true,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"paths": schema.NewPropertySchema(
			schema.NewListSchema(
				schema.NewStringSchema(schema.IntPointer(1), nil, nil),
				schema.IntPointer(1),
				nil,
			),
			schema.NewDisplayValue(
				schema.PointerTo("Paths"),
				schema.PointerTo("Workspace paths saved into the cache entry."),
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

func (p *cacheProvider) Load(input map[string]any, env *stage.Environment) (stage.Runnable, error) {
	action, err := stage.StringValue(input, "action")
	if err != nil {
		return nil, err
	}
	manifest, err := stage.StringValue(input, "manifest")
	if err != nil {
		return nil, err
	}
	paths, err := stage.StringListValue(input, "paths")
	if err != nil {
		return nil, err
	}
	if action == actionSave && len(paths) == 0 {
		return nil, fmt.Errorf("the save action requires at least one cache path")
	}
	return &runnableStage{
		action:   action,
		manifest: manifest,
		paths:    paths,
		cache:    p.cache,
		env:      env,
	}, nil
}

type runnableStage struct {
	action   string
	manifest string
	paths    []string
	cache    *depcache.Cache
	env      *stage.Environment
}

func (r *runnableStage) Run(ctx context.Context) (stage.Outputs, error) {
	manifestData, err := util.ReadFile(r.env.FS, r.manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to read dependency manifest %s (%w)", r.manifest, err)
	}
	key := depcache.Key(manifestData)
	switch r.action {
	case actionRestore:
		hit, err := r.cache.Restore(ctx, r.env.WorkDir, key)
		if err != nil {
			return nil, err
		}
		return stage.Outputs{"key": key, "cache_hit": hit}, nil
	case actionSave:
		if err := r.cache.Save(ctx, r.env.WorkDir, key, r.paths); err != nil {
			return nil, err
		}
		return stage.Outputs{"key": key}, nil
	default:
		return nil, fmt.Errorf("unsupported cache action: %s", r.action)
	}
}
