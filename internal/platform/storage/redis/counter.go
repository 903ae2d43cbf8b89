// Package redis implements the live counters and the recompute queue on
// Redis. Both are accelerators; the votes table stays the source of truth.
package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

// Counter keeps per-entry vote counts under prefixed keys so the live display
// never has to aggregate the votes table between recomputes.
type Counter struct {
	client *redis.Client
	prefix string
}

func NewCounter(client *redis.Client, prefix string) *Counter {
	return &Counter{
		client: client,
		prefix: prefix,
	}
}

func (c *Counter) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return c.client.IncrBy(ctx, c.key(key), delta).Result()
}

func (c *Counter) Get(ctx context.Context, key string) (int64, error) {
	val, err := c.client.Get(ctx, c.key(key)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

func (c *Counter) GetAll(ctx context.Context, keys []string) (map[string]int64, error) {
	if len(keys) == 0 {
		return map[string]int64{}, nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}

	// One MGET instead of a round-trip per entry.
	values, err := c.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(keys))
	for i, raw := range values {
		if raw == nil {
			counts[keys[i]] = 0
			continue
		}

		switch v := raw.(type) {
		case string:
			num, convErr := strconv.ParseInt(v, 10, 64)
			if convErr != nil {
				return nil, fmt.Errorf("redis counter: bad value for %s: %w", keys[i], convErr)
			}
			counts[keys[i]] = num
		case int64:
			counts[keys[i]] = v
		default:
			return nil, fmt.Errorf("redis counter: unexpected type %T", raw)
		}
	}

	return counts, nil
}

func (c *Counter) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

var _ domain.Counter = (*Counter)(nil)
