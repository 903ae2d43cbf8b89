package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

func setupLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return NewRedisLimiter(client, limit, window, "ratelimit"), mr
}

func testVoter() domain.Voter {
	return domain.Voter{UserID: "user-1", IP: "203.0.113.7", UserAgent: "test-agent"}
}

func TestRedisLimiter_UnderTheLimit_Allows(t *testing.T) {
	limiter, _ := setupLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.NoError(t, limiter.Check(ctx, 1, testVoter()))
	}
}

func TestRedisLimiter_OverTheLimit_Rejects(t *testing.T) {
	limiter, _ := setupLimiter(t, 2, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Check(ctx, 1, testVoter()))
	require.NoError(t, limiter.Check(ctx, 1, testVoter()))

	err := limiter.Check(ctx, 1, testVoter())
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
}

func TestRedisLimiter_WindowExpiry_ResetsTheCount(t *testing.T) {
	limiter, mr := setupLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Check(ctx, 1, testVoter()))
	require.ErrorIs(t, limiter.Check(ctx, 1, testVoter()), ErrRateLimitExceeded)

	mr.FastForward(2 * time.Minute)

	assert.NoError(t, limiter.Check(ctx, 1, testVoter()))
}

func TestRedisLimiter_DistinctOrigins_HaveIndependentCounts(t *testing.T) {
	limiter, _ := setupLimiter(t, 1, time.Minute)
	ctx := context.Background()

	other := domain.Voter{UserID: "user-2", IP: "198.51.100.4", UserAgent: "other-agent"}

	require.NoError(t, limiter.Check(ctx, 1, testVoter()))
	assert.NoError(t, limiter.Check(ctx, 1, other))
	// Same origin on another event is a separate window too.
	assert.NoError(t, limiter.Check(ctx, 2, testVoter()))
}

func TestRedisLimiter_ZeroLimit_IsPermissive(t *testing.T) {
	limiter, _ := setupLimiter(t, 0, time.Minute)

	assert.NoError(t, limiter.Check(context.Background(), 1, testVoter()))
}

func TestNoop_AlwaysAllows(t *testing.T) {
	guard := NewNoop()

	for i := 0; i < 100; i++ {
		assert.NoError(t, guard.Check(context.Background(), 1, testVoter()))
	}
}
