package depcache

import (
	"bytes"
	"context"
	"fmt"

	log "go.arcalot.io/log/v2"
)

// Cache restores and saves dependency directories through a backend.
type Cache struct {
	backend Backend
	logger  log.Logger
}

// New creates a cache over the passed backend.
func New(backend Backend, logger log.Logger) *Cache {
	return &Cache{
		backend: backend,
		logger:  logger.WithLabel("source", "depcache"),
	}
}

// Restore unpacks the cache entry for the key under root. It returns false
// on a cache miss.
func (c *Cache) Restore(ctx context.Context, root string, key string) (bool, error) {
	body, hit, err := c.backend.Fetch(ctx, key)
	if err != nil {
		return false, err
	}
	if !hit {
		c.logger.Infof("Cache miss for key %s.", key)
		return false, nil
	}
	defer func() {
		_ = body.Close()
	}()
	if err := unpack(root, body); err != nil {
		return false, fmt.Errorf("failed to restore cache entry %s (%w)", key, err)
	}
	c.logger.Infof("Cache restored for key %s.", key)
	return true, nil
}

// Save archives the named paths under root and stores them for the key.
func (c *Cache) Save(ctx context.Context, root string, key string, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no cache paths provided")
	}
	var buf bytes.Buffer
	if err := pack(root, paths, &buf); err != nil {
		return fmt.Errorf("failed to archive cache paths (%w)", err)
	}
	if err := c.backend.Store(ctx, key, &buf); err != nil {
		return err
	}
	c.logger.Infof("Cache saved for key %s (%d bytes).", key, buf.Len())
	return nil
}
