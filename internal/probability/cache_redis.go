package probability

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares extra-fields calculations across processes. It is
// fail-open: a Redis error degrades to a cache miss, never to a failed match.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache wraps a Redis client as a combination cache.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) key(key string) string {
	return "personmatch:combinations:" + key
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]Combination, bool) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.WarnContext(ctx, "combination cache read failed", "error", err)
		}
		return nil, false
	}
	var combos []Combination
	if err := json.Unmarshal(raw, &combos); err != nil {
		return nil, false
	}
	return combos, true
}

func (c *RedisCache) Set(ctx context.Context, key string, combos []Combination) {
	raw, err := json.Marshal(combos)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "combination cache write failed", "error", err)
	}
}
