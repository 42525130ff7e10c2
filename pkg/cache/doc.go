// Package cache provides tag-aware caches for computed report values.
//
// # Overview
//
// Values are opaque byte slices stored with a TTL and any number of tags.
// Writers elsewhere in the system invalidate by tag (for example "order-list"
// or "store:42") when the underlying data changes; entries otherwise live
// until their TTL expires.
//
// # Backends
//
//   - MemoryStore: in-process LRU (hashicorp/golang-lru expirable) with a tag index
//   - RedisStore: shared cache using Redis strings for values and sets for tags
//
// # Usage Example
//
//	store := cache.NewMemoryStore(10000, time.Hour)
//	_ = store.Set(ctx, "kpi:v1:store:42:...", data, 5*time.Minute, "order-list", "store:42")
//
//	// after an order write
//	_ = store.InvalidateTags(ctx, "order-list")
//
// Cache misses are reported as ErrCacheMiss.
package cache
