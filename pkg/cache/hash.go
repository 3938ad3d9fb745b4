package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	// Full SHA-256 to prevent collisions between near-identical configs.
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ImageKey generates the cache key for a rendered code raster. Every input
// that changes the pixels participates: producer kind, payload, DPI and the
// producer's physical parameters.
func ImageKey(kind, payload string, dpi int, params ...any) string {
	return hashKey("img:"+kind, payload, dpi, params)
}
