package triage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/redis/go-redis/v9"
)

const dashboardKey = "carewatch:dashboard"

// RedisCache keeps dashboard snapshots in Redis with a short TTL. Every
// failure is logged and treated as a miss so the dashboard path never
// depends on Redis availability.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger log.Logger
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger log.Logger) *RedisCache {
	if logger == nil {
		logger = log.Nop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// GetDashboard returns the cached snapshot, if any.
func (c *RedisCache) GetDashboard(ctx context.Context) (*Dashboard, bool) {
	raw, err := c.client.Get(ctx, dashboardKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn(ctx, "dashboard cache read failed", "error", err)
		}
		return nil, false
	}

	var d Dashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		c.logger.Warn(ctx, "dashboard cache payload corrupt", "error", err)
		return nil, false
	}
	return &d, true
}

// PutDashboard stores a snapshot for the configured TTL.
func (c *RedisCache) PutDashboard(ctx context.Context, d *Dashboard) {
	raw, err := json.Marshal(d)
	if err != nil {
		c.logger.Warn(ctx, "dashboard cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, dashboardKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "dashboard cache write failed", "error", err)
	}
}
