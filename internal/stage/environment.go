package stage

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	log "go.arcalot.io/log/v2"

	"github.com/deckhand-ci/deckhand/internal/artifact"
	"github.com/deckhand-ci/deckhand/internal/gitref"
)

// Environment is the per-run context handed to providers when a stage is
// loaded. Long-lived dependencies (runner, secrets, cloud settings) are
// passed to provider constructors instead.
type Environment struct {
	// Logger is the run logger, labeled with the stage ID.
	Logger log.Logger
	// FS is the workspace filesystem, rooted at WorkDir.
	FS billy.Filesystem
	// WorkDir is the absolute path of the workspace on the worker.
	WorkDir string
	// Ref is the push reference that triggered the run.
	Ref gitref.Ref
	// Artifacts is the per-run artifact registry.
	Artifacts *artifact.Store
}

// Abs resolves a workspace-relative path to an absolute path for tools that
// operate outside the workspace filesystem abstraction.
func (e *Environment) Abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.WorkDir, path)
}
