// Package cache stores rendered code rasters between runs. Re-printing a
// sheet hits the cache for every unchanged record, which matters at high
// DPI where a single QR raster is hundreds of kilobytes of work.
//
// Backends: file (per-machine, the CLI default), redis (shared between
// workers behind the HTTP API), and null (caching disabled).
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
