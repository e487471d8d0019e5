// Package depcache restores and saves the dependency cache between pipeline
// runs. Cache entries are zstd-compressed tarballs keyed by a hash of the
// dependency manifest, stored in a local directory or an S3 bucket. There is
// no locking between concurrent runs; the last writer wins, matching the
// behavior of hosted CI caches.
package depcache

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// formatVersion salts the cache key so that incompatible changes to the
// archive format invalidate old entries.
const formatVersion = "v1"

// Key computes the cache key for a dependency manifest. Runs with the same
// manifest bytes share a cache entry.
func Key(manifest []byte) string {
	sum := blake3.Sum256(manifest)
	return formatVersion + "-" + hex.EncodeToString(sum[:16])
}
