// Package cache holds the small key/value stores used to checkpoint imports.
package cache

import (
	"context"
	"time"
)

// Store is a string key/value store with per-entry expiry
type Store interface {
	// Get returns the value for key and whether it was present and unexpired
	Get(ctx context.Context, key string) (string, bool, error)
	// Put stores value under key for ttl. A zero ttl never expires.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
