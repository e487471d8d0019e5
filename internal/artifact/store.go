// Package artifact tracks the files stages hand to each other during a run.
// The only invariant a pipeline run upholds is that an artifact file exists
// before a later stage references it; the store enforces that at registration
// and lookup time.
package artifact

import (
	"fmt"

	"github.com/go-git/go-billy/v5"
	log "go.arcalot.io/log/v2"
)

// Entry records a single artifact produced during a run.
type Entry struct {
	// Path is the artifact path relative to the workspace root. Artifacts
	// are identified by their path.
	Path string
	// Stage is the ID of the stage that produced (or skipped) the artifact.
	Stage string
	// Skipped marks artifacts whose producing stage was skipped by a branch
	// guard. The artifact does not exist on disk.
	Skipped bool
}

// Store is the per-run artifact registry.
type Store struct {
	fs      billy.Filesystem
	logger  log.Logger
	entries map[string]Entry
}

// NewStore creates an artifact store over the workspace filesystem.
func NewStore(fs billy.Filesystem, logger log.Logger) *Store {
	return &Store{
		fs:      fs,
		logger:  logger.WithLabel("source", "artifacts"),
		entries: map[string]Entry{},
	}
}

// Register records an artifact produced by a stage after verifying that the
// file actually exists in the workspace.
func (s *Store) Register(path string, stageID string) error {
	if previous, ok := s.entries[path]; ok && !previous.Skipped {
		return fmt.Errorf("artifact %s already produced by stage %s", path, previous.Stage)
	}
	if _, err := s.fs.Stat(path); err != nil {
		return &ErrMissingArtifact{Stage: stageID, Path: path}
	}
	s.logger.Debugf("Stage %s produced artifact %s.", stageID, path)
	s.entries[path] = Entry{Path: path, Stage: stageID}
	return nil
}

// RegisterSkipped records that an artifact will not be produced because its
// stage was skipped by a branch guard.
func (s *Store) RegisterSkipped(path string, stageID string) {
	if _, ok := s.entries[path]; ok {
		return
	}
	s.entries[path] = Entry{Path: path, Stage: stageID, Skipped: true}
}

// Get returns the entry for an artifact path.
func (s *Store) Get(path string) (Entry, bool) {
	entry, ok := s.entries[path]
	return entry, ok
}

// Verify checks that every named artifact has been produced and exists. It
// is called before a stage that declares needs runs.
func (s *Store) Verify(stageID string, paths []string) error {
	for _, path := range paths {
		entry, ok := s.entries[path]
		if !ok {
			return &ErrMissingArtifact{Stage: stageID, Path: path}
		}
		if entry.Skipped {
			return &ErrSkippedArtifact{Stage: stageID, Path: path, ProducedBy: entry.Stage}
		}
		if _, err := s.fs.Stat(path); err != nil {
			return &ErrMissingArtifact{Stage: stageID, Path: path}
		}
	}
	return nil
}

// ErrMissingArtifact signals that a stage referenced an artifact that does
// not exist in the workspace.
type ErrMissingArtifact struct {
	Stage string
	Path  string
}

// Error returns the error message.
func (e ErrMissingArtifact) Error() string {
	return fmt.Sprintf("stage %s references artifact %s, which does not exist in the workspace", e.Stage, e.Path)
}

// ErrSkippedArtifact signals that a stage needs an artifact whose producing
// stage was skipped by a branch guard.
type ErrSkippedArtifact struct {
	Stage      string
	Path       string
	ProducedBy string
}

// Error returns the error message.
func (e ErrSkippedArtifact) Error() string {
	return fmt.Sprintf(
		"stage %s needs artifact %s, but its producing stage %s was skipped on this branch",
		e.Stage,
		e.Path,
		e.ProducedBy,
	)
}
