// Package results folds raw vote tallies into display projections and keeps
// the vote_summaries cache in sync with the votes table.
package results

import (
	"context"
	"fmt"
	"sort"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

// Aggregator rebuilds the per-event summary rows. It is the only writer of
// vote_summaries; a recompute fully replaces the event's rows, so running it
// redundantly or after dropping the table is always safe.
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Recompute rebuilds every summary row for the event from fresh tallies and
// assigns rankings per division. Rankings are dense and distinct: entries tied
// on points still get consecutive ranks, ordered by entry number so the
// outcome never depends on scan order. Cost scales with the event's vote rows,
// since the tally query reads them all.
func (a *Aggregator) Recompute(ctx context.Context, r domain.Repos, eventID uint) error {
	tallies, err := r.Votes().TallyByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("aggregator: tally event %d: %w", eventID, err)
	}

	entries, err := r.Entries().ListByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("aggregator: load entries for event %d: %w", eventID, err)
	}
	numberByEntry := make(map[uint]int, len(entries))
	for _, e := range entries {
		numberByEntry[e.ID] = e.EntryNumber
	}

	byEntry := make(map[uint]*domain.VoteSummary)
	for _, t := range tallies {
		s, ok := byEntry[t.EntryID]
		if !ok {
			s = &domain.VoteSummary{
				EventID:    eventID,
				EntryID:    t.EntryID,
				DivisionID: t.DivisionID,
			}
			byEntry[t.EntryID] = s
		}
		s.TotalPoints = s.TotalPoints.Add(t.Points)
		s.VoteCount += t.Count
		switch t.Place {
		case 1:
			s.FirstPlaceCount += t.Count
		case 2:
			s.SecondPlaceCount += t.Count
		case 3:
			s.ThirdPlaceCount += t.Count
		}
	}

	// Rank within each division; entries without a division rank together.
	byDivision := make(map[uint][]*domain.VoteSummary)
	for _, s := range byEntry {
		var key uint
		if s.DivisionID != nil {
			key = *s.DivisionID
		}
		byDivision[key] = append(byDivision[key], s)
	}

	summaries := make([]domain.VoteSummary, 0, len(byEntry))
	for _, group := range byDivision {
		sort.Slice(group, func(i, j int) bool {
			if cmp := group[i].TotalPoints.Cmp(group[j].TotalPoints); cmp != 0 {
				return cmp > 0
			}
			ni, nj := numberByEntry[group[i].EntryID], numberByEntry[group[j].EntryID]
			if ni != nj {
				return ni < nj
			}
			return group[i].EntryID < group[j].EntryID
		})
		for rank, s := range group {
			s.Ranking = rank + 1
			summaries = append(summaries, *s)
		}
	}

	if err := r.Summaries().ReplaceForEvent(ctx, eventID, summaries); err != nil {
		return fmt.Errorf("aggregator: replace summaries for event %d: %w", eventID, err)
	}
	return nil
}

// Fold joins place tallies with entry metadata into display results, ordered
// by total points descending with entry number as the deterministic tie key.
func Fold(tallies []domain.PlaceTally, entries []domain.Entry) []domain.EntryResult {
	entryByID := make(map[uint]domain.Entry, len(entries))
	for _, e := range entries {
		entryByID[e.ID] = e
	}

	byEntry := make(map[uint]*domain.EntryResult)
	for _, t := range tallies {
		res, ok := byEntry[t.EntryID]
		if !ok {
			res = &domain.EntryResult{
				EntryID:     t.EntryID,
				DivisionID:  t.DivisionID,
				PlaceCounts: make(map[int]int64),
			}
			if e, found := entryByID[t.EntryID]; found {
				res.EntryName = e.Name
				res.EntryNumber = e.EntryNumber
				if e.Division != nil {
					res.DivisionName = e.Division.Type
					if res.DivisionName == "" {
						res.DivisionName = e.Division.Code
					}
				}
				if e.Participant != nil {
					res.ParticipantName = e.Participant.Name
				}
			}
			byEntry[t.EntryID] = res
		}
		res.TotalPoints = res.TotalPoints.Add(t.Points)
		res.VoteCount += t.Count
		if t.Place > 0 {
			res.PlaceCounts[t.Place] += t.Count
		}
	}

	out := make([]domain.EntryResult, 0, len(byEntry))
	for _, res := range byEntry {
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].TotalPoints.Cmp(out[j].TotalPoints); cmp != 0 {
			return cmp > 0
		}
		if out[i].EntryNumber != out[j].EntryNumber {
			return out[i].EntryNumber < out[j].EntryNumber
		}
		return out[i].EntryID < out[j].EntryID
	})
	return out
}
