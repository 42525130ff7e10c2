package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStoreTest creates a miniredis instance and returns the store and cleanup function
func setupRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	store, err := NewRedisStore(RedisConfig{
		URL:        "redis://" + mr.Addr(),
		MaxRetries: 3,
		PoolSize:   10,
		KeyPrefix:  "boxoffice:",
	})
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create Redis store: %v", err)
	}

	cleanup := func() {
		store.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{URL: "invalid://url"})
	assert.Error(t, err)
}

func TestNewRedisStore_ConnectionFailure(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{URL: "redis://localhost:9999"})
	assert.Error(t, err)
}

func TestRedisStore_GetSet(t *testing.T) {
	store, mr, cleanup := setupRedisStoreTest(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Get(ctx, "kpi:1")
	assert.True(t, errors.Is(err, ErrCacheMiss))

	require.NoError(t, store.Set(ctx, "kpi:1", []byte(`{"orders_count":1}`), 300*time.Second, "order-list", "store:1"))

	got, err := store.Get(ctx, "kpi:1")
	require.NoError(t, err)
	assert.Equal(t, `{"orders_count":1}`, string(got))

	assert.True(t, mr.Exists("boxoffice:kpi:1"))
	assert.Equal(t, 300*time.Second, mr.TTL("boxoffice:kpi:1"))

	members, err := mr.Members("boxoffice:tag:store:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"kpi:1"}, members)
}

func TestRedisStore_Expiry(t *testing.T) {
	store, mr, cleanup := setupRedisStoreTest(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 300*time.Second, "store:1"))
	mr.FastForward(301 * time.Second)

	_, err := store.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrCacheMiss))
	assert.False(t, mr.Exists("boxoffice:tag:store:1"), "tag sets expire with their keys")
}

func TestRedisStore_InvalidateTags(t *testing.T) {
	store, mr, cleanup := setupRedisStoreTest(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute, "order-list", "store:1"))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Minute, "order-list", "store:2"))
	require.NoError(t, store.Set(ctx, "c", []byte("3"), time.Minute, "rsvp-list"))

	require.NoError(t, store.InvalidateTags(ctx, "order-list"))

	for _, key := range []string{"a", "b"} {
		_, err := store.Get(ctx, key)
		assert.True(t, errors.Is(err, ErrCacheMiss), "key %s", key)
	}
	_, err := store.Get(ctx, "c")
	assert.NoError(t, err)
	assert.False(t, mr.Exists("boxoffice:tag:order-list"))

	// unknown tags are a no-op
	assert.NoError(t, store.InvalidateTags(ctx, "never-set"))
}

func TestRedisStore_DeleteAndStats(t *testing.T) {
	store, _, cleanup := setupRedisStoreTest(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	_, _ = store.Get(ctx, "k")
	require.NoError(t, store.Delete(ctx, "k"))
	_, _ = store.Get(ctx, "k")

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)

	assert.NoError(t, store.Ping(ctx))
	assert.True(t, errors.Is(store.Delete(ctx, ""), ErrInvalidCacheKey))
}
