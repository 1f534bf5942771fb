// Package cache wraps the Redis client used for token revocation and
// short-lived response caching.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// Connect opens a Redis client and verifies connectivity.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// Cache is a thin convenience layer over a Redis client.
type Cache struct {
	client *redis.Client
}

// New wraps an existing client.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Client exposes the underlying connection for components that need raw
// commands.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Set stores a value under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Get fetches a value, returning ErrMiss when the key does not exist.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

// Delete removes keys, ignoring those that do not exist.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// Blacklist marks a token as revoked until its remaining lifetime expires.
// Tokens with no remaining lifetime are skipped.
func (c *Cache) Blacklist(ctx context.Context, prefix, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, prefix+token, "1", ttl).Err()
}

// IsBlacklisted reports whether a token has been revoked.
func (c *Cache) IsBlacklisted(ctx context.Context, prefix, token string) (bool, error) {
	n, err := c.client.Exists(ctx, prefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping verifies the connection is alive; used by readiness checks.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
