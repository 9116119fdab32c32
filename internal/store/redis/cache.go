package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 256

// Cache is a TTL key-value cache over Redis. It never reads through; callers
// populate and invalidate it explicitly.
type Cache struct {
	client *redis.Client
}

// NewCache wraps an existing client. The client's lifecycle stays with the caller.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached bytes and whether the key was present.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis.Cache.Get: %w", err)
	}
	return data, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis.Cache.Set: %w", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis.Cache.Delete: %w", err)
	}
	return nil
}

// KeysMatching enumerates keys matching a glob pattern with SCAN. The result
// is eventually consistent: keys written during the sweep may be missed.
func (c *Cache) KeysMatching(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("redis.Cache.KeysMatching: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

// DeletePattern removes every key matching pattern and reports how many
// keys were found.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	keys, err := c.KeysMatching(ctx, pattern)
	if err != nil {
		return 0, err
	}
	if err := c.Delete(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}
