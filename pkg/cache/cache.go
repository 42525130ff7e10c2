package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss is returned when a key is absent or expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidCacheKey is returned for empty keys
	ErrInvalidCacheKey = errors.New("invalid cache key")
)

// Store is a byte-value cache with TTL and tag-based invalidation.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key or ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl and records key under each tag
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error

	// Delete removes a single key
	Delete(ctx context.Context, key string) error

	// InvalidateTags removes every key recorded under any of tags
	InvalidateTags(ctx context.Context, tags ...string) error

	// Stats returns hit/miss counters and the current item count
	Stats(ctx context.Context) (*Stats, error)

	// Close releases resources
	Close() error
}

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	HitRate   float64
	ItemCount int64
}

func newStats(hits, misses, items int64) *Stats {
	stats := &Stats{Hits: hits, Misses: misses, ItemCount: items}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}
