// Package cache stores short-lived byte blobs keyed by string.
//
// The remote package uses it to avoid re-running directory listings on a
// cluster while the user is browsing. [FileCache] persists entries under the
// user cache directory; [NullCache] disables caching.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value and true on a hit. Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// ListingTTL is how long a remote directory listing stays fresh.
const ListingTTL = 30 * time.Second

// ListingKey returns the cache key for a directory listing of dir on the
// cluster preset.
func ListingKey(preset, dir string) string {
	return hashKey("listing", preset, dir)
}

// KeyType returns the part of key before the first colon. It labels cache
// metrics.
func KeyType(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
