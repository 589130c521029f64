package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encoded values and integer counters with optional expiry.
// A zero ttl means the entry never expires.
type Cache interface {
	// GetJSON decodes the value stored under key into dest. It reports false
	// when the key is missing or expired.
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Increment atomically adds one to the counter under key, starting at 0.
	Increment(ctx context.Context, key string) (int64, error)
	// Counter returns the counter under key, 0 when missing.
	Counter(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
