// Package worker drains the recompute queue, rebuilding summaries for events
// whose rating traffic defers the rebuild out of the casting path.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/app/results"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/metrics"
)

// RecomputeProcessor runs one summary rebuild per queued request. Rebuilds are
// idempotent, so redundant requests for the same event are harmless.
type RecomputeProcessor struct {
	store      domain.Store
	aggregator *results.Aggregator
}

func NewRecomputeProcessor(store domain.Store, aggregator *results.Aggregator) *RecomputeProcessor {
	return &RecomputeProcessor{
		store:      store,
		aggregator: aggregator,
	}
}

func (p *RecomputeProcessor) Process(ctx context.Context, eventID uint) error {
	start := time.Now()

	err := p.store.InTx(ctx, func(r domain.Repos) error {
		return p.aggregator.Recompute(ctx, r, eventID)
	})
	if err != nil {
		return fmt.Errorf("worker: recompute event %d: %w", eventID, err)
	}

	metrics.IncRecompute()
	metrics.ObserveRecomputeDuration(time.Since(start).Seconds())

	return nil
}
