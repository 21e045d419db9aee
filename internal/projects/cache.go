package projects

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const statsCacheKey = "projects:stats"

// Cache is the Redis-backed stats cache. A nil client degrades to a
// no-op so the service works without Redis in tests.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) Get(ctx context.Context) (*Stats, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("projects: stats cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}
	var s Stats
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (c *Cache) Set(ctx context.Context, s *Stats) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsCacheKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("projects: stats cache write failed", slog.String("error", err.Error()))
	}
}

func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, statsCacheKey).Err(); err != nil {
		c.logger.Warn("projects: stats cache invalidate failed", slog.String("error", err.Error()))
	}
}
