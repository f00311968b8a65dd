package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatchSize is the COUNT hint for SCAN and the chunk size for batched DELs.
const scanBatchSize = 100

// Entry is a key/value/TTL triple for batched writes.
type Entry struct {
	Key   string
	Value []byte
	TTL   time.Duration
}

// RedisStore adapts the cache operation set onto a Redis backend. Backend
// failures surface as ErrUnavailable so the caller can degrade instead of
// crashing; a missing key surfaces as ErrNotFound.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store and verifies connectivity within
// connectTimeout. A zero connectTimeout defaults to 5 seconds.
func NewRedisStore(addr, password string, db int, connectTimeout time.Duration) (*RedisStore, error) {
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, wrapBackendErr(err)
	}

	return &RedisStore{client: client}, nil
}

// Get retrieves a value from Redis.
func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, wrapBackendErr(err)
	}
	return val, nil
}

// Set stores a value in Redis with the given TTL.
func (rs *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := rs.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return wrapBackendErr(err)
	}
	return nil
}

// Delete removes a key from Redis. It reports whether the key existed.
func (rs *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := rs.client.Del(ctx, key).Result()
	if err != nil {
		return false, wrapBackendErr(err)
	}
	return n > 0, nil
}

// Exists reports whether a key is present in Redis.
func (rs *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := rs.client.Exists(ctx, key).Result()
	if err != nil {
		return false, wrapBackendErr(err)
	}
	return n > 0, nil
}

// MGet retrieves multiple keys in one round trip. The result is aligned with
// keys; a nil slot marks an absent key.
func (rs *RedisStore) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := rs.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrapBackendErr(err)
	}

	out := make([][]byte, len(keys))
	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected MGET reply type %T for key %q", ErrSerialization, v, keys[i])
		}
		out[i] = []byte(s)
	}
	return out, nil
}

// MSet stores multiple entries in one pipelined round trip. Redis MSET cannot
// carry per-key TTLs, so the writes are pipelined SETs instead; the pipeline
// is atomic from the caller's point of view but not transactional across keys.
func (rs *RedisStore) MSet(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	_, err := rs.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.Set(ctx, e.Key, e.Value, e.TTL)
		}
		return nil
	})
	if err != nil {
		return wrapBackendErr(err)
	}
	return nil
}

// DeletePattern removes every key matching a glob pattern. Matching keys are
// resolved with SCAN and deleted in batches, so the call is O(number of
// matching keys) and unsuitable for very large key spaces.
func (rs *RedisStore) DeletePattern(ctx context.Context, pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	var (
		cursor  uint64
		deleted int
		batch   []string
	)
	for {
		keys, next, err := rs.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return deleted, wrapBackendErr(err)
		}

		batch = append(batch, keys...)
		if len(batch) >= scanBatchSize {
			n, err := rs.deleteBatch(ctx, batch)
			deleted += n
			if err != nil {
				return deleted, err
			}
			batch = batch[:0]
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	n, err := rs.deleteBatch(ctx, batch)
	deleted += n
	return deleted, err
}

func (rs *RedisStore) deleteBatch(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := rs.client.Del(ctx, keys...).Result()
	if err != nil {
		return int(n), wrapBackendErr(err)
	}
	return int(n), nil
}

// FlushAll removes every key from the current Redis database.
func (rs *RedisStore) FlushAll(ctx context.Context) error {
	if err := rs.client.FlushDB(ctx).Err(); err != nil {
		return wrapBackendErr(err)
	}
	return nil
}

// Ping checks backend reachability and returns the round-trip latency.
func (rs *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := rs.client.Ping(ctx).Err(); err != nil {
		return 0, wrapBackendErr(err)
	}
	return time.Since(start), nil
}

// Close releases the Redis connection pool.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

// Client returns the underlying Redis client.
func (rs *RedisStore) Client() *redis.Client {
	return rs.client
}

// wrapBackendErr maps transport-level failures, including context timeouts,
// onto ErrUnavailable so callers can branch with errors.Is.
func wrapBackendErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
