package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

// RecomputeQueue carries deferred summary-rebuild requests over a Redis list.
// Rating casts publish here instead of rebuilding inline; the worker drains it.
type RecomputeQueue struct {
	client *redis.Client
	key    string
}

func NewRecomputeQueue(client *redis.Client, key string) *RecomputeQueue {
	return &RecomputeQueue{
		client: client,
		key:    key,
	}
}

type recomputeRequest struct {
	EventID uint `json:"event_id"`
}

func (q *RecomputeQueue) Publish(ctx context.Context, eventID uint) error {
	payload, err := json.Marshal(recomputeRequest{EventID: eventID})
	if err != nil {
		return fmt.Errorf("redis queue: marshal request: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("redis queue: push request: %w", err)
	}
	return nil
}

func (q *RecomputeQueue) Consume(ctx context.Context, handler func(context.Context, uint) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// BRPOP blocks with a short timeout so context cancellation is
		// honored between pops.
		res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("redis queue: pop request: %w", err)
		}

		if len(res) != 2 {
			continue
		}

		var req recomputeRequest
		if err := json.Unmarshal([]byte(res[1]), &req); err != nil {
			return fmt.Errorf("redis queue: bad payload: %w", err)
		}

		if err := handler(ctx, req.EventID); err != nil {
			return err
		}
	}
}

var _ domain.RecomputeQueue = (*RecomputeQueue)(nil)
