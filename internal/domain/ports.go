package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type EventRepository interface {
	// Create persists the event together with any nested voting type,
	// division types, divisions and participants, filling generated IDs.
	Create(ctx context.Context, e *Event) error
	// FindByID returns the event with its voting configuration and division
	// type template preloaded.
	FindByID(ctx context.Context, id uint) (Event, error)
	ListActive(ctx context.Context) ([]Event, error)
}

type DivisionRepository interface {
	FindByCode(ctx context.Context, eventID uint, code string) (Division, error)
	FindByID(ctx context.Context, eventID, id uint) (Division, error)
	ListByEvent(ctx context.Context, eventID uint) ([]Division, error)
}

type EntryRepository interface {
	Create(ctx context.Context, e *Entry) error
	FindByID(ctx context.Context, eventID, id uint) (Entry, error)
	FindByNumber(ctx context.Context, eventID uint, number int) (Entry, error)
	// FindByNumberAndType scopes the number lookup to entries whose division
	// carries the given long-form type name.
	FindByNumberAndType(ctx context.Context, eventID uint, number int, divisionType string) (Entry, error)
	ListByDivision(ctx context.Context, divisionID uint) ([]Entry, error)
	// ListByEvent batch-loads all entries with division and participant
	// attached, so display joins never fan out per row.
	ListByEvent(ctx context.Context, eventID uint) ([]Entry, error)
}

type VoteRepository interface {
	// Upsert inserts the vote or, when a row already exists for the
	// (user, event, entry, place) key, overwrites its points, weight and
	// rating in place. Safe under concurrent calls for the same key.
	Upsert(ctx context.Context, v Vote) error
	HasVoted(ctx context.Context, eventID uint, userID string, divisionID *uint) (bool, error)
	CountByEvent(ctx context.Context, eventID uint) (int64, error)
	// TallyByEvent groups votes by (entry, place) with summed final points.
	TallyByEvent(ctx context.Context, eventID uint) ([]PlaceTally, error)
	TallyByDivision(ctx context.Context, eventID, divisionID uint) ([]PlaceTally, error)
}

type SummaryRepository interface {
	// ReplaceForEvent swaps the event's summary rows wholesale. The results
	// aggregator is the only caller; summaries are never patched in place.
	ReplaceForEvent(ctx context.Context, eventID uint, summaries []VoteSummary) error
	ListByEvent(ctx context.Context, eventID uint) ([]VoteSummary, error)
	ListByDivision(ctx context.Context, eventID, divisionID uint) ([]VoteSummary, error)
}

type VoterWeightRepository interface {
	Set(ctx context.Context, w VoterWeight) error
	// Multiplier returns the event-scoped weight for a user, 1 when unset.
	Multiplier(ctx context.Context, eventID uint, userID string) (decimal.Decimal, error)
}

// Repos bundles the repositories that participate in a casting transaction.
type Repos interface {
	Events() EventRepository
	Divisions() DivisionRepository
	Entries() EntryRepository
	Votes() VoteRepository
	Summaries() SummaryRepository
	VoterWeights() VoterWeightRepository
}

// Store is the transactional storage facade. InTx runs fn against
// transaction-scoped repositories; any error rolls the whole unit back.
type Store interface {
	Repos
	InTx(ctx context.Context, fn func(Repos) error) error
}

// Counter keeps cheap live tallies (Redis) for display between recomputes.
type Counter interface {
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
	GetAll(ctx context.Context, keys []string) (map[string]int64, error)
}

// RecomputeQueue carries deferred summary-rebuild requests by event ID.
type RecomputeQueue interface {
	Publish(ctx context.Context, eventID uint) error
	Consume(ctx context.Context, handler func(context.Context, uint) error) error
}

// FraudGuard vetoes suspicious casting attempts before any write happens.
type FraudGuard interface {
	Check(ctx context.Context, eventID uint, voter Voter) error
}

type Clock interface {
	Now() time.Time
}

// RankedBallot maps a division-type code to the voter's (place -> raw input)
// selections for that type.
type RankedBallot map[string]map[int]string

// EntrySetup describes one entry in an event-setup payload, linked to its
// division and participant by code/name since IDs do not exist yet.
type EntrySetup struct {
	Name            string
	EntryNumber     int
	DivisionCode    string
	ParticipantName string
}

// EventSetup is the operator-facing payload used to configure an event in one
// call: the event window plus its scoring, grouping and weight configuration.
type EventSetup struct {
	Event         Event
	VotingType    VotingType
	DivisionTypes []DivisionType
	Divisions     []Division
	Participants  []Participant
	Entries       []EntrySetup
	VoterWeights  []VoterWeight
}

// VotingService is the contract exposed to transport collaborators.
type VotingService interface {
	CreateEvent(ctx context.Context, setup EventSetup) (Event, error)
	ListActiveEvents(ctx context.Context) ([]Event, error)
	CastRankedVotes(ctx context.Context, eventID uint, voter Voter, ballot RankedBallot) error
	CastApprovalVotes(ctx context.Context, eventID uint, voter Voter, entryIDs []uint) error
	CastRatingVote(ctx context.Context, eventID uint, voter Voter, entryID uint, rating float64) error
	GetResults(ctx context.Context, eventID uint) ([]EntryResult, error)
	GetResultsByDivision(ctx context.Context, eventID, divisionID uint) ([]EntryResult, error)
	GetLeaderboard(ctx context.Context, eventID uint, divisionID *uint, limit int) ([]EntryResult, error)
	HasUserVoted(ctx context.Context, userID string, eventID uint, divisionID *uint) (bool, error)
	LiveCounts(ctx context.Context, eventID uint) (map[uint]int64, error)
}
