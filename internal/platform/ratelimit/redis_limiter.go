// Package ratelimit guards casting endpoints against vote stuffing with a
// fixed-window Redis limiter, plus a noop for when the guard is disabled.
package ratelimit

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

var ErrRateLimitExceeded = fmt.Errorf("vote rate limit exceeded")

// RedisLimiter counts casting attempts per (event, IP, user agent) in fixed
// windows.
type RedisLimiter struct {
	client    *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: prefix,
	}
}

func (r *RedisLimiter) Check(ctx context.Context, eventID uint, voter domain.Voter) error {
	if r.client == nil || r.limit <= 0 || r.window <= 0 {
		// Misconfigured limiter degrades to permissive.
		return nil
	}

	key := r.buildKey(eventID, voter)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("ratelimit: increment: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return fmt.Errorf("ratelimit: expire: %w", err)
		}
	}

	if int(count) > r.limit {
		return ErrRateLimitExceeded
	}

	return nil
}

func (r *RedisLimiter) buildKey(eventID uint, voter domain.Voter) string {
	// SHA-1 keeps raw IP/UA out of Redis keys.
	base := fmt.Sprintf("%d|%s|%s", eventID, voter.IP, voter.UserAgent)
	hash := sha1.Sum([]byte(base))
	return fmt.Sprintf("%s:%s", r.keyPrefix, hex.EncodeToString(hash[:]))
}

var _ domain.FraudGuard = (*RedisLimiter)(nil)
