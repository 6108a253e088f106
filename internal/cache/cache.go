// Package cache provides an optional Redis-backed JSON cache for upstream
// enrichment payloads. When caching is disabled in the configuration a noop
// implementation is used, so callers never branch on whether a cache exists.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by GetJSON when the key is absent.
var ErrMiss = errors.New("cache miss")

// Cache stores and retrieves JSON-encoded values with a per-cache TTL.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any) error
	Close() error
}

// redisCache implements Cache on a Redis client.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection. All entries expire
// after ttl.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &redisCache{client: client, ttl: ttl}, nil
}

func (c *redisCache) GetJSON(ctx context.Context, key string, dest any) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return fmt.Errorf("failed to read cache key %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode cached value for %q: %w", key, err)
	}
	return nil
}

func (c *redisCache) SetJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %q: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %q: %w", key, err)
	}
	return nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

// noop is the disabled-cache implementation. Every read misses and every
// write succeeds silently.
type noop struct{}

// NewNoop returns a cache that stores nothing.
func NewNoop() Cache {
	return noop{}
}

func (noop) GetJSON(context.Context, string, any) error { return ErrMiss }
func (noop) SetJSON(context.Context, string, any) error { return nil }
func (noop) Close() error                               { return nil }
