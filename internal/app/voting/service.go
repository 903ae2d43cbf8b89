// Package voting implements the casting rules: ballot validation, point
// calculation per voting category and transactional vote persistence.
package voting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/app/results"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/ids"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/logger"
)

// Service owns the votes table: it is the only writer, and it delegates
// summary maintenance to the aggregator inside the same transaction.
type Service struct {
	store      domain.Store
	aggregator *results.Aggregator
	resolver   *Resolver
	counters   domain.Counter
	queue      domain.RecomputeQueue
	guard      domain.FraudGuard
	clock      domain.Clock
	ids        *ids.Generator
}

func NewService(
	store domain.Store,
	aggregator *results.Aggregator,
	counters domain.Counter,
	queue domain.RecomputeQueue,
	guard domain.FraudGuard,
	clock domain.Clock,
	idGen *ids.Generator,
) *Service {
	if idGen == nil {
		idGen = ids.DefaultGenerator()
	}
	return &Service{
		store:      store,
		aggregator: aggregator,
		resolver:   NewResolver(store.Divisions(), store.Entries()),
		counters:   counters,
		queue:      queue,
		guard:      guard,
		clock:      clock,
		ids:        idGen,
	}
}

// CreateEvent persists an event with its scoring, grouping and weight
// configuration in one transaction. Entries arrive linked by division code and
// participant name since IDs are generated during the same call.
func (s *Service) CreateEvent(ctx context.Context, setup domain.EventSetup) (domain.Event, error) {
	if err := validateSetup(setup); err != nil {
		return domain.Event{}, err
	}

	now := s.clock.Now()
	event := setup.Event
	if event.VotingOpensAt.IsZero() {
		event.VotingOpensAt = now
	}
	if event.VotingClosesAt.IsZero() || !event.VotingClosesAt.After(event.VotingOpensAt) {
		return domain.Event{}, fmt.Errorf("%w: voting window must close after it opens", ErrInvalidEventSetup)
	}
	event.Active = true
	event.VotingType = &setup.VotingType
	event.DivisionTypes = setup.DivisionTypes
	event.Divisions = setup.Divisions
	event.Participants = setup.Participants

	err := s.store.InTx(ctx, func(r domain.Repos) error {
		if err := r.Events().Create(ctx, &event); err != nil {
			return err
		}

		divisionByCode := make(map[string]uint, len(event.Divisions))
		for _, d := range event.Divisions {
			divisionByCode[d.Code] = d.ID
		}
		participantByName := make(map[string]uint, len(event.Participants))
		for _, p := range event.Participants {
			participantByName[p.Name] = p.ID
		}

		for _, es := range setup.Entries {
			entry := domain.Entry{
				EventID:     event.ID,
				Name:        es.Name,
				EntryNumber: es.EntryNumber,
			}
			if es.DivisionCode != "" {
				id, ok := divisionByCode[es.DivisionCode]
				if !ok {
					return fmt.Errorf("%w: entry %q references unknown division %q", ErrInvalidEventSetup, es.Name, es.DivisionCode)
				}
				entry.DivisionID = &id
			}
			if es.ParticipantName != "" {
				id, ok := participantByName[es.ParticipantName]
				if !ok {
					return fmt.Errorf("%w: entry %q references unknown participant %q", ErrInvalidEventSetup, es.Name, es.ParticipantName)
				}
				entry.ParticipantID = &id
			}
			if err := r.Entries().Create(ctx, &entry); err != nil {
				return err
			}
			event.Entries = append(event.Entries, entry)
		}

		for _, w := range setup.VoterWeights {
			w.EventID = event.ID
			if err := r.VoterWeights().Set(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *Service) ListActiveEvents(ctx context.Context) ([]domain.Event, error) {
	return s.store.Events().ListActive(ctx)
}

// CastRankedVotes records a voter's full ranked ballot. The whole ballot is
// validated before anything is written: duplicate selections within a division
// type abort immediately, and unresolvable inputs are collected so the voter
// gets every mistake back in one error. Persistence plus summary recompute run
// in a single transaction; a failure leaves zero rows behind.
func (s *Service) CastRankedVotes(ctx context.Context, eventID uint, voter domain.Voter, ballot domain.RankedBallot) error {
	event, scheme, err := s.loadOpenEvent(ctx, eventID)
	if err != nil {
		return err
	}
	ranked, ok := scheme.(domain.RankedScheme)
	if !ok {
		return fmt.Errorf("%w: category %q does not take ranked ballots", ErrInvalidVotingTypeConfig, scheme.Category())
	}
	if len(ranked.Places) == 0 {
		return fmt.Errorf("%w: no place points configured", ErrInvalidVotingTypeConfig)
	}

	if err := s.checkGuard(ctx, eventID, voter); err != nil {
		return err
	}
	if err := s.requireFirstBallot(ctx, eventID, voter); err != nil {
		return err
	}

	type selection struct {
		typeCode string
		place    int
		input    string
	}
	var selections []selection
	for _, typeCode := range sortedKeys(ballot) {
		places := ballot[typeCode]
		seen := make(map[string]bool, len(places))
		for _, place := range sortedPlaces(places) {
			input := places[place]
			if seen[input] {
				return &DuplicateSelectionError{TypeCode: typeCode, Place: place, Input: input}
			}
			seen[input] = true
			selections = append(selections, selection{typeCode: typeCode, place: place, input: input})
		}
	}
	if len(selections) == 0 {
		return fmt.Errorf("%w: empty ballot", ErrInvalidEntrySelection)
	}

	// Resolve everything before the first write: a ballot is all-or-nothing.
	type resolved struct {
		entry domain.Entry
		place int
	}
	var (
		pending []resolved
		invalid []InvalidSelection
	)
	for _, sel := range selections {
		entry, err := s.resolver.Resolve(ctx, event, sel.typeCode, sel.input)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				invalid = append(invalid, InvalidSelection{TypeCode: sel.typeCode, Place: sel.place, Input: sel.input})
				continue
			}
			return err
		}
		pending = append(pending, resolved{entry: entry, place: sel.place})
	}
	if len(invalid) > 0 {
		return &SelectionValidationError{Invalid: invalid}
	}

	weight, err := s.store.VoterWeights().Multiplier(ctx, eventID, voter.UserID)
	if err != nil {
		return err
	}

	votes := make([]domain.Vote, 0, len(pending))
	for _, p := range pending {
		points, ok := ranked.PointsForPlace(p.place)
		if !ok {
			return fmt.Errorf("%w: no points configured for place %d", ErrInvalidVotingTypeConfig, p.place)
		}
		votes = append(votes, s.newVote(eventID, voter, p.entry, p.place, points, weight, nil))
	}

	if err := s.persistBallot(ctx, eventID, votes, true); err != nil {
		return err
	}
	s.bumpCounters(ctx, eventID, votes)
	return nil
}

// CastApprovalVotes records one approval (or cumulative) ballot. Every
// selected entry receives points_per_vote at weight 1; cumulative ballots may
// repeat an entry, stacking points onto its single idempotent row.
func (s *Service) CastApprovalVotes(ctx context.Context, eventID uint, voter domain.Voter, entryIDs []uint) error {
	_, scheme, err := s.loadOpenEvent(ctx, eventID)
	if err != nil {
		return err
	}
	approval, ok := scheme.(domain.ApprovalScheme)
	if !ok {
		return fmt.Errorf("%w: category %q does not take approval ballots", ErrInvalidVotingTypeConfig, scheme.Category())
	}

	if err := s.checkGuard(ctx, eventID, voter); err != nil {
		return err
	}
	if err := s.requireFirstBallot(ctx, eventID, voter); err != nil {
		return err
	}

	occurrences := make(map[uint]int64, len(entryIDs))
	var distinct []uint
	for _, id := range entryIDs {
		if occurrences[id] == 0 {
			distinct = append(distinct, id)
		}
		occurrences[id]++
	}
	if len(distinct) == 0 {
		return fmt.Errorf("%w: empty ballot", ErrInvalidEntrySelection)
	}

	capped := len(distinct)
	if approval.Cumulative {
		capped = len(entryIDs)
	}
	if approval.MaxSelections > 0 && capped > approval.MaxSelections {
		return fmt.Errorf("%w: %d selections, limit is %d", ErrTooManySelections, capped, approval.MaxSelections)
	}

	var (
		pending []domain.Entry
		invalid []InvalidSelection
	)
	for _, id := range distinct {
		entry, err := s.store.Entries().FindByID(ctx, eventID, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				invalid = append(invalid, InvalidSelection{Input: strconv.FormatUint(uint64(id), 10)})
				continue
			}
			return err
		}
		pending = append(pending, entry)
	}
	if len(invalid) > 0 {
		return &SelectionValidationError{Invalid: invalid}
	}

	one := decimal.NewFromInt(1)
	votes := make([]domain.Vote, 0, len(pending))
	for _, entry := range pending {
		base := approval.PointsPerVote
		if approval.Cumulative {
			base = base.Mul(decimal.NewFromInt(occurrences[entry.ID]))
		}
		votes = append(votes, s.newVote(eventID, voter, entry, 0, base, one, nil))
	}

	if err := s.persistBallot(ctx, eventID, votes, true); err != nil {
		return err
	}
	s.bumpCounters(ctx, eventID, votes)
	return nil
}

// CastRatingVote records one rating for one entry. Each call is its own
// transaction and re-rating updates the existing row. The summary rebuild is
// deferred through the recompute queue so bursts of single-entry ratings do
// not serialize on full-event rebuilds; without a queue it runs inline.
func (s *Service) CastRatingVote(ctx context.Context, eventID uint, voter domain.Voter, entryID uint, rating float64) error {
	_, scheme, err := s.loadOpenEvent(ctx, eventID)
	if err != nil {
		return err
	}
	ratingScheme, ok := scheme.(domain.RatingScheme)
	if !ok {
		return fmt.Errorf("%w: category %q does not take rating votes", ErrInvalidVotingTypeConfig, scheme.Category())
	}

	if err := s.checkGuard(ctx, eventID, voter); err != nil {
		return err
	}

	if rating < ratingScheme.Min || rating > ratingScheme.Max {
		return fmt.Errorf("%w: %v outside [%v, %v]", ErrInvalidRating, rating, ratingScheme.Min, ratingScheme.Max)
	}

	entry, err := s.store.Entries().FindByID(ctx, eventID, entryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: entry %d", ErrEntryNotFound, entryID)
		}
		return err
	}

	vote := s.newVote(eventID, voter, entry, 0, decimal.NewFromFloat(rating), decimal.NewFromInt(1), &rating)

	recomputeInline := s.queue == nil
	if err := s.persistBallot(ctx, eventID, []domain.Vote{vote}, recomputeInline); err != nil {
		return err
	}
	if !recomputeInline {
		if err := s.queue.Publish(ctx, eventID); err != nil {
			// The vote is committed; a lost recompute request only delays the
			// summary until the next one, so log instead of failing the cast.
			logger.Error("publish recompute request failed", "event", eventID, "err", err)
		}
	}
	s.bumpCounters(ctx, eventID, []domain.Vote{vote})
	return nil
}

// GetResults projects live results straight from the votes table, bypassing
// the summary cache. Used for immediate post-vote display.
func (s *Service) GetResults(ctx context.Context, eventID uint) ([]domain.EntryResult, error) {
	if _, err := s.findEvent(ctx, eventID); err != nil {
		return nil, err
	}
	tallies, err := s.store.Votes().TallyByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Entries().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return results.Fold(tallies, entries), nil
}

func (s *Service) GetResultsByDivision(ctx context.Context, eventID, divisionID uint) ([]domain.EntryResult, error) {
	if _, err := s.findEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if _, err := s.store.Divisions().FindByID(ctx, eventID, divisionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: division %d", ErrDivisionNotFound, divisionID)
		}
		return nil, err
	}
	tallies, err := s.store.Votes().TallyByDivision(ctx, eventID, divisionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Entries().ListByDivision(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	return results.Fold(tallies, entries), nil
}

// GetLeaderboard truncates the live results to limit rows; limit <= 0 returns
// everything.
func (s *Service) GetLeaderboard(ctx context.Context, eventID uint, divisionID *uint, limit int) ([]domain.EntryResult, error) {
	var (
		board []domain.EntryResult
		err   error
	)
	if divisionID != nil {
		board, err = s.GetResultsByDivision(ctx, eventID, *divisionID)
	} else {
		board, err = s.GetResults(ctx, eventID)
	}
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}

func (s *Service) HasUserVoted(ctx context.Context, userID string, eventID uint, divisionID *uint) (bool, error) {
	if _, err := s.findEvent(ctx, eventID); err != nil {
		return false, err
	}
	return s.store.Votes().HasVoted(ctx, eventID, userID, divisionID)
}

// LiveCounts reads the cheap Redis per-entry counters; without a counter it
// falls back to the vote store so callers always get consistent numbers.
func (s *Service) LiveCounts(ctx context.Context, eventID uint) (map[uint]int64, error) {
	if _, err := s.findEvent(ctx, eventID); err != nil {
		return nil, err
	}
	entries, err := s.store.Entries().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(entries))
	if s.counters == nil {
		tallies, err := s.store.Votes().TallyByEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			counts[e.ID] = 0
		}
		for _, t := range tallies {
			counts[t.EntryID] += t.Count
		}
		return counts, nil
	}

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = CounterKeyEntry(eventID, e.ID)
	}
	values, err := s.counters.GetAll(ctx, keys)
	if err != nil {
		return nil, err
	}
	for i, e := range entries {
		counts[e.ID] = values[keys[i]]
	}
	return counts, nil
}

func (s *Service) findEvent(ctx context.Context, eventID uint) (domain.Event, error) {
	event, err := s.store.Events().FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Event{}, fmt.Errorf("%w: event %d", ErrEventNotFound, eventID)
		}
		return domain.Event{}, err
	}
	return event, nil
}

func (s *Service) loadOpenEvent(ctx context.Context, eventID uint) (domain.Event, domain.Scheme, error) {
	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, nil, err
	}
	if !event.IsVotingOpen(s.clock.Now()) {
		return domain.Event{}, nil, ErrVotingClosed
	}
	if event.VotingType == nil {
		return domain.Event{}, nil, fmt.Errorf("%w: event %d has no voting type", ErrInvalidVotingTypeConfig, eventID)
	}
	scheme, err := event.VotingType.Scheme()
	if err != nil {
		// Configuration defect, not voter input; keep it distinguishable.
		logger.Error("voting type misconfigured", "event", eventID, "category", event.VotingType.Category, "err", err)
		return domain.Event{}, nil, fmt.Errorf("%w: %v", ErrInvalidVotingTypeConfig, err)
	}
	return event, scheme, nil
}

func (s *Service) checkGuard(ctx context.Context, eventID uint, voter domain.Voter) error {
	if s.guard == nil {
		return nil
	}
	return s.guard.Check(ctx, eventID, voter)
}

// requireFirstBallot is the event-level one-ballot guard. The vote store's
// upsert is idempotent per key; this outer check additionally rejects a whole
// second ballot from a voter who already has any vote recorded.
func (s *Service) requireFirstBallot(ctx context.Context, eventID uint, voter domain.Voter) error {
	voted, err := s.store.Votes().HasVoted(ctx, eventID, voter.UserID, nil)
	if err != nil {
		return err
	}
	if voted {
		return ErrAlreadyVoted
	}
	return nil
}

func (s *Service) newVote(eventID uint, voter domain.Voter, entry domain.Entry, place int, base, weight decimal.Decimal, rating *float64) domain.Vote {
	return domain.Vote{
		ID:               domain.VoteID(s.ids.New()),
		EventID:          eventID,
		UserID:           voter.UserID,
		EntryID:          entry.ID,
		DivisionID:       entry.DivisionID,
		Place:            place,
		BasePoints:       base,
		WeightMultiplier: weight,
		FinalPoints:      base.Mul(weight),
		Rating:           rating,
		VoterIP:          voter.IP,
		UserAgent:        voter.UserAgent,
		CreatedAt:        s.clock.Now(),
	}
}

func (s *Service) persistBallot(ctx context.Context, eventID uint, votes []domain.Vote, recompute bool) error {
	return s.store.InTx(ctx, func(r domain.Repos) error {
		for _, v := range votes {
			if err := r.Votes().Upsert(ctx, v); err != nil {
				return err
			}
		}
		if recompute {
			return s.aggregator.Recompute(ctx, r, eventID)
		}
		return nil
	})
}

// bumpCounters is best effort: live counters are display sugar and must never
// fail a committed ballot.
func (s *Service) bumpCounters(ctx context.Context, eventID uint, votes []domain.Vote) {
	if s.counters == nil {
		return
	}
	for _, v := range votes {
		if _, err := s.counters.Increment(ctx, CounterKeyEntry(eventID, v.EntryID), 1); err != nil {
			logger.Error("increment entry counter failed", "event", eventID, "entry", v.EntryID, "err", err)
			return
		}
	}
	if _, err := s.counters.Increment(ctx, CounterKeyEventTotal(eventID), int64(len(votes))); err != nil {
		logger.Error("increment event counter failed", "event", eventID, "err", err)
	}
}

func validateSetup(setup domain.EventSetup) error {
	if setup.Event.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEventSetup)
	}
	if len(setup.Entries) == 0 {
		return fmt.Errorf("%w: at least one entry is required", ErrInvalidEventSetup)
	}
	if _, err := setup.VotingType.Scheme(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVotingTypeConfig, err)
	}
	return nil
}

func sortedKeys(ballot domain.RankedBallot) []string {
	keys := make([]string, 0, len(ballot))
	for k := range ballot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedPlaces(places map[int]string) []int {
	out := make([]int, 0, len(places))
	for p := range places {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

var _ domain.VotingService = (*Service)(nil)
