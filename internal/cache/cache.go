// Package cache is a JSON read-through cache on Redis for aggregate reads.
// A nil *Cache is valid and caches nothing.
package cache

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Redis miss detection
	"fmt"           // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging
)

// DefaultTTL applies when no TTL is configured
const DefaultTTL = 60 * time.Second

// Cache stores JSON values in Redis with a fixed TTL
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New wraps a Redis client. A nil client yields a nil Cache.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Connect opens a Redis client and pings it
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// TenantKey names a value cached for one tenant
func TenantKey(userID uint, name string) string {
	return fmt.Sprintf("tenant:%d:%s", userID, name)
}

// AdminKey names a value cached for the global admin view
func AdminKey(name string) string {
	return "admin:" + name
}

// Get retrieves a value from Redis and unmarshals it into dest
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, key).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal(val, dest) // Unmarshal JSON into dest
}

// Set stores value as JSON with the cache TTL
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Delete removes keys from Redis
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// InvalidateTenant drops everything cached for userID and the admin
// aggregates that include it
func (c *Cache) InvalidateTenant(ctx context.Context, userID uint) {
	if c == nil {
		return
	}
	for _, pattern := range []string{TenantKey(userID, "*"), AdminKey("*")} {
		if err := c.deleteMatching(ctx, pattern); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "pattern": pattern}).
				WithError(err).Warn("Cache invalidation failed")
		}
	}
}

func (c *Cache) deleteMatching(ctx context.Context, pattern string) error {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.Delete(ctx, keys...)
}

// Remember returns the cached value under key or computes, stores and
// returns it. Redis failures are logged and fall through to load.
func Remember[T any](ctx context.Context, c *Cache, key string, load func() (T, error)) (T, error) {
	var v T
	hit, err := c.Get(ctx, key, &v)
	if err != nil {
		logrus.WithField("key", key).WithError(err).Warn("Cache read failed")
	} else if hit {
		return v, nil
	}
	v, err = load()
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v); err != nil {
		logrus.WithField("key", key).WithError(err).Warn("Cache write failed")
	}
	return v, nil
}
