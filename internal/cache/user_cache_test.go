package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/hostres/internal/domain"
)

func newTestCache(t *testing.T, ttl time.Duration) (*UserCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewUserCache(client, ttl, nil, zap.NewNop()), mr
}

func resolverSummary() *domain.UserSummary {
	designation := "plumbing"
	return &domain.UserSummary{ID: "r-1", Name: "Ravi", Email: "ravi@hostel.edu", Role: domain.RoleResolver, Designation: &designation}
}

func TestUserCache_LoadsOnceThenHits(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	loads := 0
	load := func(context.Context) (*domain.UserSummary, error) {
		loads++
		return resolverSummary(), nil
	}

	first, err := c.Get(context.Background(), "r-1", load)
	require.NoError(t, err)
	second, err := c.Get(context.Background(), "r-1", load)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, first, second)
	assert.Equal(t, "plumbing", second.DesignationOrEmpty())
	assert.True(t, mr.Exists(userKeyPrefix+"r-1"))
	assert.Equal(t, time.Minute, mr.TTL(userKeyPrefix+"r-1"))
}

func TestUserCache_ExpiredEntryReloads(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	loads := 0
	load := func(context.Context) (*domain.UserSummary, error) {
		loads++
		return resolverSummary(), nil
	}

	_, err := c.Get(context.Background(), "r-1", load)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = c.Get(context.Background(), "r-1", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestUserCache_LoadErrorNotCached(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	boom := errors.New("db down")

	_, err := c.Get(context.Background(), "r-1", func(context.Context) (*domain.UserSummary, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(userKeyPrefix+"r-1"))
}

func TestUserCache_RedisDownFallsBack(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	summary, err := c.Get(context.Background(), "r-1", func(context.Context) (*domain.UserSummary, error) {
		return resolverSummary(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "r-1", summary.ID)
}

func TestUserCache_Disabled(t *testing.T) {
	disabled := NewUserCache(nil, time.Minute, nil, zap.NewNop())
	loads := 0
	load := func(context.Context) (*domain.UserSummary, error) {
		loads++
		return resolverSummary(), nil
	}
	_, _ = disabled.Get(context.Background(), "r-1", load)
	_, _ = disabled.Get(context.Background(), "r-1", load)
	assert.Equal(t, 2, loads)
}
