// Package cache wraps recommendation computation with a keyed TTL cache and
// single-flight in-flight deduplication.
package cache

import (
	"context"
	"time"
)

// Store is the minimal key-value contract the recommendation cache needs.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}
