package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMaxEntries bounds the in-memory cache when no size is configured
const DefaultMaxEntries = 10000

type memoryEntry struct {
	value     []byte
	tags      []string
	expiresAt time.Time
}

// MemoryStore is an in-process LRU cache with per-entry TTL and a tag index
type MemoryStore struct {
	cache *lru.LRU[string, *memoryEntry]

	mu   sync.Mutex
	tags map[string]map[string]struct{}

	hits   atomic.Int64
	misses atomic.Int64
	now    func() time.Time
}

// NewMemoryStore creates a memory store holding at most maxEntries items.
// maxTTL caps how long any entry may live regardless of the ttl passed to Set.
func NewMemoryStore(maxEntries int, maxTTL time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	s := &MemoryStore{
		tags: make(map[string]map[string]struct{}),
		now:  time.Now,
	}
	s.cache = lru.NewLRU[string, *memoryEntry](maxEntries, s.onEvict, maxTTL)
	return s
}

// Get retrieves a cached value
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidCacheKey
	}

	entry, ok := s.cache.Get(key)
	if !ok || !s.now().Before(entry.expiresAt) {
		if ok {
			s.cache.Remove(key)
		}
		s.misses.Add(1)
		return nil, ErrCacheMiss
	}

	s.hits.Add(1)
	return append([]byte(nil), entry.value...), nil
}

// Set stores a value
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if key == "" {
		return ErrInvalidCacheKey
	}

	entry := &memoryEntry{
		value:     append([]byte(nil), value...),
		tags:      append([]string(nil), tags...),
		expiresAt: s.now().Add(ttl),
	}

	// Replacing a key does not fire the eviction callback, so the previous
	// entry's tags are unlinked here. The LRU calls onEvict while holding its
	// own lock, so s.mu must never be held across a call into s.cache.
	old, hadOld := s.cache.Peek(key)
	s.cache.Add(key, entry)

	s.mu.Lock()
	if hadOld {
		s.unlinkLocked(key, old.tags)
	}
	for _, tag := range tags {
		keys, ok := s.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	s.mu.Unlock()

	return nil
}

// Delete removes a cached value
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidCacheKey
	}
	s.cache.Remove(key)
	return nil
}

// InvalidateTags removes every key recorded under the given tags
func (s *MemoryStore) InvalidateTags(ctx context.Context, tags ...string) error {
	var keys []string

	s.mu.Lock()
	for _, tag := range tags {
		for key := range s.tags[tag] {
			keys = append(keys, key)
		}
		delete(s.tags, tag)
	}
	s.mu.Unlock()

	for _, key := range keys {
		s.cache.Remove(key)
	}
	return nil
}

// Stats returns cache statistics
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	return newStats(s.hits.Load(), s.misses.Load(), int64(s.cache.Len())), nil
}

// Close releases resources
func (s *MemoryStore) Close() error {
	s.cache.Purge()
	return nil
}

func (s *MemoryStore) onEvict(key string, entry *memoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlinkLocked(key, entry.tags)
}

func (s *MemoryStore) unlinkLocked(key string, tags []string) {
	for _, tag := range tags {
		keys, ok := s.tags[tag]
		if !ok {
			continue
		}
		delete(keys, key)
		if len(keys) == 0 {
			delete(s.tags, tag)
		}
	}
}
