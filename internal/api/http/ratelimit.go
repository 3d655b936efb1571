package http

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/hostres/internal/config"
	"github.com/spec-kit/hostres/internal/observability"
	apperrors "github.com/spec-kit/hostres/pkg/util"
)

// RateLimiter enforces a fixed-window request budget per client IP in Redis.
type RateLimiter struct {
	client     redis.Cmdable
	enabled    bool
	limit      int
	window     time.Duration
	failClosed bool
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewRateLimiter builds a limiter from configuration.
func NewRateLimiter(client redis.Cmdable, cfg config.RateLimitConfig, metrics *observability.Metrics, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client:     client,
		enabled:    cfg.Enabled,
		limit:      cfg.AuthLimit,
		window:     cfg.Window(),
		failClosed: cfg.FailClosed,
		metrics:    metrics,
		logger:     logger,
	}
}

// Allow counts one request for id against resource and reports whether it fits
// the window, plus the remaining budget.
func (l *RateLimiter) Allow(ctx context.Context, resource, id string) (bool, int, error) {
	if l.client == nil {
		return false, 0, errors.New("redis client not configured")
	}
	key := fmt.Sprintf("rl:%s:%s", resource, id)

	// The window key is created with its TTL and counted in one transaction,
	// so a counter can never exist without an expiry.
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	count := incr.Val()
	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(l.limit), remaining, nil
}

// Handler returns middleware limiting the named resource.
func (l *RateLimiter) Handler(resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l == nil || !l.enabled {
			return c.Next()
		}

		allowed, remaining, err := l.Allow(c.UserContext(), resource, c.IP())
		if err != nil {
			if l.failClosed {
				l.logger.Warn("rate limit unavailable; rejecting", zap.String("resource", resource), zap.Error(err))
				return apperrors.NewUnavailable("rate limit unavailable", nil)
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			l.metrics.RecordRateLimited(resource)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(l.window.Seconds())))
			return apperrors.NewTooManyRequests("Too many requests, please try again later")
		}
		return c.Next()
	}
}
