// Package cache keeps read-mostly lookups in Redis using the cache-aside pattern.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/observability"
)

const userKeyPrefix = "user:summary:"

// UserCache caches user summaries by id.
type UserCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewUserCache returns a cache. A nil client or a non-positive ttl disables caching.
func NewUserCache(client redis.Cmdable, ttl time.Duration, metrics *observability.Metrics, logger *zap.Logger) *UserCache {
	return &UserCache{client: client, ttl: ttl, metrics: metrics, logger: logger}
}

func (c *UserCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get returns the cached summary for id, calling load and storing its result on a miss.
// Redis failures degrade to load.
func (c *UserCache) Get(ctx context.Context, id string, load func(context.Context) (*domain.UserSummary, error)) (*domain.UserSummary, error) {
	if !c.enabled() {
		return load(ctx)
	}

	key := userKeyPrefix + id
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var summary domain.UserSummary
		if jsonErr := json.Unmarshal(raw, &summary); jsonErr == nil {
			c.metrics.RecordCacheLookup(true)
			return &summary, nil
		}
		c.logger.Warn("discarding malformed cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("user cache read failed", zap.String("key", key), zap.Error(err))
	}
	c.metrics.RecordCacheLookup(false)

	summary, err := load(ctx)
	if err != nil || summary == nil {
		return summary, err
	}

	if payload, err := json.Marshal(summary); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("user cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return summary, nil
}
