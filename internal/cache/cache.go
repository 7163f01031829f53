package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL is the fixed expiry of every weather entry.
const TTL = time.Hour

// CurrentKey returns the key for a city's current-weather entry.
// Only case is normalized; whitespace and locale are left alone.
func CurrentKey(city string) string {
	return "weather:current:" + strings.ToLower(city)
}

// ForecastKey returns the key for a city's forecast entry.
func ForecastKey(city string) string {
	return "weather:forecast:" + strings.ToLower(city)
}

// Cache wraps a Redis client and stores JSON-encoded values.
// It never reports errors to callers: a store failure behaves as a miss on
// read and as a no-op on write, and is logged.
type Cache struct {
	client redis.UniversalClient
	log    *slog.Logger
}

// NewCache constructs a Cache over the given client.
func NewCache(client redis.UniversalClient, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{client: client, log: log}
}

// Get decodes the entry at key into dst and reports whether it was found.
// A stored JSON null counts as a miss.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", "key", key, "err", err)
		}
		return false
	}

	if string(val) == "null" {
		return false
	}

	if err := json.Unmarshal(val, dst); err != nil {
		c.log.Warn("discarding malformed cache entry", "key", key, "err", err)
		return false
	}

	return true
}

// Set stores v at key with the given expiry.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache set: marshaling value", "key", key, "err", err)
		return
	}

	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		c.log.Warn("cache set failed", "key", key, "err", err)
	}
}

// Delete removes the entry at key.
func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warn("cache delete failed", "key", key, "err", err)
	}
}

// Ping reports whether the store is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
