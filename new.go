package deckhand

import (
	log "go.arcalot.io/log/v2"

	"github.com/deckhand-ci/deckhand/config"
	"github.com/deckhand-ci/deckhand/internal/stage"
)

// New creates a new pipeline engine with the provided configuration. The
// passed stageRegistry provides the stage implementations; use
// NewDefaultStageRegistry for the built-in set.
func New(
	config *config.Config,
	stageRegistry stage.Registry,
) (PipelineEngine, error) {
	logger := log.New(config.Log)
	return &pipelineEngine{
		logger:        logger,
		config:        config,
		stageRegistry: stageRegistry,
	}, nil
}
