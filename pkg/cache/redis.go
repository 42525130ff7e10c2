package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int
	KeyPrefix  string
}

// RedisStore is a Store backed by Redis. Values live under <prefix><key>;
// tag membership is kept in sets named <prefix>tag:<tag>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(config RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if config.Password != "" {
		opts.Password = config.Password
	}
	if config.DB >= 0 {
		opts.DB = config.DB
	}
	if config.MaxRetries > 0 {
		opts.MaxRetries = config.MaxRetries
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreFromClient(client, config.KeyPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Get retrieves a cached value
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidCacheKey
	}

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		s.client.Incr(ctx, s.prefix+"stats:misses")
		return nil, ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	s.client.Incr(ctx, s.prefix+"stats:hits")
	return data, nil
}

// Set stores a value and records its tags. Tag sets are given at least the
// entry's TTL so they never expire before the keys they index.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if key == "" {
		return ErrInvalidCacheKey
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.prefix+key, value, ttl)
	for _, tag := range tags {
		tagKey := s.tagKey(tag)
		pipe.SAdd(ctx, tagKey, key)
		if ttl > 0 {
			pipe.Expire(ctx, tagKey, ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes a cached value
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidCacheKey
	}
	return s.client.Del(ctx, s.prefix+key).Err()
}

// InvalidateTags removes every key recorded under the given tags
func (s *RedisStore) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		tagKey := s.tagKey(tag)

		members, err := s.client.SMembers(ctx, tagKey).Result()
		if err != nil {
			return fmt.Errorf("failed to read tag %s: %w", tag, err)
		}

		keys := make([]string, 0, len(members)+1)
		for _, m := range members {
			keys = append(keys, s.prefix+m)
		}
		keys = append(keys, tagKey)

		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate tag %s: %w", tag, err)
		}
	}
	return nil
}

// Stats returns cache statistics. ItemCount is the size of the whole Redis
// database, not only this prefix.
func (s *RedisStore) Stats(ctx context.Context) (*Stats, error) {
	hits, err := s.counter(ctx, "stats:hits")
	if err != nil {
		return nil, err
	}
	misses, err := s.counter(ctx, "stats:misses")
	if err != nil {
		return nil, err
	}
	size, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}
	return newStats(hits, misses, size), nil
}

// Ping checks Redis connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) tagKey(tag string) string {
	return s.prefix + "tag:" + tag
}

func (s *RedisStore) counter(ctx context.Context, name string) (int64, error) {
	n, err := s.client.Get(ctx, s.prefix+name).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
