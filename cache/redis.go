// Package cache memoizes translator and summarizer output in Redis so a
// clause seen before skips the remote model call.
package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a string key/value store with expiry
type Cache interface {
	// Get returns false with a nil error when the key does not exist
	Get(ctx context.Context, key string) (bool, string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
}

// Options configures the Redis connection
type Options struct {
	Address   string
	Password  string
	DB        int
	TLSConfig *tls.Config
}

// RedisCache implements Cache on a Redis server
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache opens a client; the connection is established lazily
func NewRedisCache(options Options) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:      options.Address,
			Password:  options.Password,
			DB:        options.DB,
			TLSConfig: options.TLSConfig,
		}),
	}
}

// Ping tests connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Get executes the redis GET command
func (c *RedisCache) Get(ctx context.Context, key string) (bool, string, error) {
	s, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}
	return true, s, nil
}

// Set executes the redis SET command. A negative expiration disables caching.
func (c *RedisCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if expiration < 0 {
		return nil
	}
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Close closes the client connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}
