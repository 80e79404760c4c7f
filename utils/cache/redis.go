package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for cache misses
var ErrNotFound = errors.New("key not found in cache")

// RedisCache serves the course detail cache and the login lockout counters
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to redisURL and fails fast when the server is unreachable
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{client: client}, nil
}

// GetJSON decodes the value at key into dest
func (r *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// SetJSON stores value as JSON for ttl
func (r *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, raw, ttl).Err()
}

// Delete removes keys; missing keys are ignored
func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// CountInWindow increments the counter at key. The first hit opens a window
// of the given length, after which the counter disappears.
func (r *RedisCache) CountInWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Lock marks key as locked for d
func (r *RedisCache) Lock(ctx context.Context, key string, d time.Duration) error {
	return r.client.Set(ctx, key, "locked", d).Err()
}

// LockRemaining reports how long key stays locked, zero when it is not.
// A lock without expiry reports fallback.
func (r *RedisCache) LockRemaining(ctx context.Context, key string, fallback time.Duration) (time.Duration, error) {
	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	switch {
	case ttl == -2:
		return 0, nil
	case ttl < 0:
		return fallback, nil
	default:
		return ttl, nil
	}
}

// Ping checks the connection
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
