package deckhand

import (
	"context"

	log "go.arcalot.io/log/v2"

	"github.com/deckhand-ci/deckhand/config"
	"github.com/deckhand-ci/deckhand/internal/depcache"
	"github.com/deckhand-ci/deckhand/internal/runner"
	"github.com/deckhand-ci/deckhand/internal/secrets"
	"github.com/deckhand-ci/deckhand/internal/stage"
	"github.com/deckhand-ci/deckhand/internal/stage/cache"
	"github.com/deckhand-ci/deckhand/internal/stage/checkout"
	"github.com/deckhand-ci/deckhand/internal/stage/cloudauth"
	"github.com/deckhand-ci/deckhand/internal/stage/command"
	"github.com/deckhand-ci/deckhand/internal/stage/demoplugin"
	"github.com/deckhand-ci/deckhand/internal/stage/docs"
	"github.com/deckhand-ci/deckhand/internal/stage/fixtures"
	"github.com/deckhand-ci/deckhand/internal/stage/metadata"
	"github.com/deckhand-ci/deckhand/internal/stage/publish"
	"github.com/deckhand-ci/deckhand/internal/stage/registry"
)

// NewDefaultStageRegistry creates a stage registry with all built-in stage
// providers, wired against the passed configuration. Secrets are resolved
// from the process environment.
func NewDefaultStageRegistry(
	ctx context.Context,
	logger log.Logger,
	cfg *config.Config,
) (stage.Registry, error) {
	run := runner.New(logger)
	secretsManager, err := secrets.NewManager(secrets.NewEnvProvider())
	if err != nil {
		return nil, err
	}
	depCache, err := newDependencyCache(ctx, logger, cfg.Cache)
	if err != nil {
		return nil, err
	}
	return registry.New(
		checkout.New(logger),
		command.New(logger, run),
		cache.New(logger, depCache),
		fixtures.New(logger),
		docs.New(logger),
		demoplugin.New(logger),
		metadata.New(logger),
		cloudauth.New(logger, run, secretsManager, cfg.Cloud),
		publish.New(logger, run, secretsManager, cfg.Cloud),
	)
}

func newDependencyCache(
	ctx context.Context,
	logger log.Logger,
	cfg *config.CacheConfig,
) (*depcache.Cache, error) {
	var backend depcache.Backend
	var err error
	if cfg != nil && cfg.Backend == config.CacheBackendS3 {
		backend, err = depcache.NewS3Backend(ctx, cfg.Bucket, cfg.Region)
	} else {
		root := ""
		if cfg != nil {
			root = cfg.Root
		}
		backend, err = depcache.NewLocalBackend(root)
	}
	if err != nil {
		return nil, err
	}
	return depcache.New(backend, logger), nil
}
