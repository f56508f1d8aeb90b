// Package cache defines the advisory read-through cache consulted on paste
// read paths. A miss or an error must never dead-end a request; callers always
// fall back to the authoritative store.
package cache

import (
	"context"
	"time"
)

// Cache is a best-effort key-value store with optional TTLs.
type Cache interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores a value; ttl of zero means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
