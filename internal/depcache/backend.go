package depcache

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const archiveSuffix = ".tar.zst"

// Backend stores and retrieves cache archives by key.
type Backend interface {
	// Fetch returns a reader over the archive for the key. The second return
	// value is false on a cache miss, which is not an error.
	Fetch(ctx context.Context, key string) (io.ReadCloser, bool, error)
	// Store writes the archive for the key, replacing any previous entry.
	Store(ctx context.Context, key string, body io.Reader) error
}

// NewLocalBackend creates a backend storing archives in a directory. An
// empty root selects the user cache directory.
func NewLocalBackend(root string) (Backend, error) {
	if root == "" {
		root = filepath.Join(xdg.CacheHome, "deckhand")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s (%w)", root, err)
	}
	return &localBackend{root: root}, nil
}

type localBackend struct {
	root string
}

func (b *localBackend) Fetch(_ context.Context, key string) (io.ReadCloser, bool, error) {
	f, err := os.Open(filepath.Join(b.root, key+archiveSuffix)) //nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to open cache entry %s (%w)", key, err)
	}
	return f, true, nil
}

func (b *localBackend) Store(_ context.Context, key string, body io.Reader) error {
	target := filepath.Join(b.root, key+archiveSuffix)
	tmp, err := os.CreateTemp(b.root, key+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file (%w)", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry %s (%w)", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	// Rename is atomic on the same filesystem; concurrent runs race benignly
	// with last-writer-wins semantics.
	return os.Rename(tmp.Name(), target)
}
