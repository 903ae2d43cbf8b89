package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type VoteID string

// Event is a voting event. The voting window is open while Active is set and
// the clock sits between VotingOpensAt (inclusive) and VotingClosesAt (exclusive).
type Event struct {
	ID             uint           `gorm:"column:id;primaryKey" json:"id"`
	Name           string         `gorm:"column:name;type:text;not null" json:"name"`
	VotingOpensAt  time.Time      `gorm:"column:voting_opens_at;not null" json:"voting_opens_at"`
	VotingClosesAt time.Time      `gorm:"column:voting_closes_at;not null" json:"voting_closes_at"`
	Active         bool           `gorm:"column:active;not null;default:true" json:"active"`
	VotingType     *VotingType    `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"voting_type,omitempty"`
	DivisionTypes  []DivisionType `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"division_types,omitempty"`
	Divisions      []Division     `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"divisions,omitempty"`
	Participants   []Participant  `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Entries        []Entry        `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"entries,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IsVotingOpen is the window predicate used to gate every casting operation.
func (e Event) IsVotingOpen(now time.Time) bool {
	return e.Active && !now.Before(e.VotingOpensAt) && now.Before(e.VotingClosesAt)
}

// VotingType names the scoring algorithm for an event and carries the
// category-specific settings. Scheme() exposes the settings as a closed
// variant so business code never dispatches on the raw category string.
type VotingType struct {
	ID            uint            `gorm:"column:id;primaryKey" json:"id"`
	EventID       uint            `gorm:"column:event_id;not null;index" json:"event_id"`
	Name          string          `gorm:"column:name;type:text;not null" json:"name"`
	Category      VotingCategory  `gorm:"column:category;type:text;not null" json:"category"`
	PointsPerVote decimal.Decimal `gorm:"column:points_per_vote;type:numeric;default:1" json:"points_per_vote"`
	MaxSelections int             `gorm:"column:max_selections;not null;default:0" json:"max_selections"`
	MinRating     float64         `gorm:"column:min_rating;not null;default:0" json:"min_rating"`
	MaxRating     float64         `gorm:"column:max_rating;not null;default:10" json:"max_rating"`
	Places        []PlaceConfig   `gorm:"foreignKey:VotingTypeID;constraint:OnDelete:CASCADE" json:"places,omitempty"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// PlaceConfig assigns points to one ranked finishing position.
type PlaceConfig struct {
	ID           uint            `gorm:"column:id;primaryKey" json:"id"`
	VotingTypeID uint            `gorm:"column:voting_type_id;not null;index" json:"voting_type_id"`
	Place        int             `gorm:"column:place;not null" json:"place"`
	Points       decimal.Decimal `gorm:"column:points;type:numeric;not null" json:"points"`
}

// Division groups entries under one event. Code is the short display code
// ("P1"); Type is the long-form category name ("Professional"). Divisions of
// the same Type are grouped for display.
type Division struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	EventID   uint      `gorm:"column:event_id;not null;uniqueIndex:idx_divisions_event_code,priority:1" json:"event_id"`
	Code      string    `gorm:"column:code;type:text;not null;uniqueIndex:idx_divisions_event_code,priority:2" json:"code"`
	Type      string    `gorm:"column:type;type:text" json:"type"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// DivisionType is one row of the event's template list mapping a short
// alphabetic code ("P") to a division type name ("Professional"). The entry
// resolver uses it to translate ballot codes into type names.
type DivisionType struct {
	ID      uint   `gorm:"column:id;primaryKey" json:"id"`
	EventID uint   `gorm:"column:event_id;not null;uniqueIndex:idx_division_types_event_code,priority:1" json:"event_id"`
	Code    string `gorm:"column:code;type:text;not null;uniqueIndex:idx_division_types_event_code,priority:2" json:"code"`
	Name    string `gorm:"column:name;type:text;not null" json:"name"`
}

// Participant is the person or act behind an entry.
type Participant struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	EventID   uint      `gorm:"column:event_id;not null;index" json:"event_id"`
	Name      string    `gorm:"column:name;type:text;not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Entry is the votable unit. EntryNumber is unique within the event, not
// globally; it is what voters type on their ballots.
type Entry struct {
	ID            uint         `gorm:"column:id;primaryKey" json:"id"`
	EventID       uint         `gorm:"column:event_id;not null;uniqueIndex:idx_entries_event_number,priority:1" json:"event_id"`
	DivisionID    *uint        `gorm:"column:division_id;index" json:"division_id,omitempty"`
	ParticipantID *uint        `gorm:"column:participant_id" json:"participant_id,omitempty"`
	Name          string       `gorm:"column:name;type:text;not null" json:"name"`
	EntryNumber   int          `gorm:"column:entry_number;not null;uniqueIndex:idx_entries_event_number,priority:2" json:"entry_number"`
	Division      *Division    `gorm:"foreignKey:DivisionID" json:"division,omitempty"`
	Participant   *Participant `gorm:"foreignKey:ParticipantID" json:"participant,omitempty"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Voter carries the request-scoped identity of whoever is casting. Passed
// explicitly into every casting operation; nothing reads ambient request state.
type Voter struct {
	UserID    string `json:"user_id"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// Vote is the atomic fact. Place 0 means "no place" (approval, rating,
// cumulative); the composite unique index over (user_id, event_id, entry_id,
// place) therefore enforces both idempotency keys: ranked votes are unique per
// place, non-ranked votes collapse onto the single place-0 row.
type Vote struct {
	ID               VoteID          `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	EventID          uint            `gorm:"column:event_id;not null;uniqueIndex:idx_votes_ballot_key,priority:2;index:idx_votes_event" json:"event_id"`
	UserID           string          `gorm:"column:user_id;type:text;not null;uniqueIndex:idx_votes_ballot_key,priority:1" json:"user_id"`
	EntryID          uint            `gorm:"column:entry_id;not null;uniqueIndex:idx_votes_ballot_key,priority:3;index:idx_votes_entry" json:"entry_id"`
	DivisionID       *uint           `gorm:"column:division_id;index" json:"division_id,omitempty"`
	Place            int             `gorm:"column:place;not null;default:0;uniqueIndex:idx_votes_ballot_key,priority:4" json:"place,omitempty"`
	BasePoints       decimal.Decimal `gorm:"column:base_points;type:numeric;not null" json:"base_points"`
	WeightMultiplier decimal.Decimal `gorm:"column:weight_multiplier;type:numeric;not null;default:1" json:"weight_multiplier"`
	FinalPoints      decimal.Decimal `gorm:"column:final_points;type:numeric;not null" json:"final_points"`
	Rating           *float64        `gorm:"column:rating" json:"rating,omitempty"`
	VoterIP          string          `gorm:"column:voter_ip;type:text" json:"-"`
	UserAgent        string          `gorm:"column:user_agent;type:text" json:"-"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// VoteSummary is the derived leaderboard cache. Entirely rebuildable from
// votes; the results aggregator is its only writer and may drop and rebuild it
// for an event at any time.
type VoteSummary struct {
	ID               uint            `gorm:"column:id;primaryKey" json:"-"`
	EventID          uint            `gorm:"column:event_id;not null;uniqueIndex:idx_summaries_event_entry,priority:1" json:"event_id"`
	EntryID          uint            `gorm:"column:entry_id;not null;uniqueIndex:idx_summaries_event_entry,priority:2" json:"entry_id"`
	DivisionID       *uint           `gorm:"column:division_id;index" json:"division_id,omitempty"`
	TotalPoints      decimal.Decimal `gorm:"column:total_points;type:numeric;not null" json:"total_points"`
	VoteCount        int64           `gorm:"column:vote_count;not null" json:"vote_count"`
	FirstPlaceCount  int64           `gorm:"column:first_place_count;not null;default:0" json:"first_place_count"`
	SecondPlaceCount int64           `gorm:"column:second_place_count;not null;default:0" json:"second_place_count"`
	ThirdPlaceCount  int64           `gorm:"column:third_place_count;not null;default:0" json:"third_place_count"`
	Ranking          int             `gorm:"column:ranking;not null;default:0" json:"ranking"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// VoterWeight is an event-scoped per-user weight multiplier (judges count
// more than public voters). Absent rows mean weight 1.
type VoterWeight struct {
	ID         uint            `gorm:"column:id;primaryKey" json:"id"`
	EventID    uint            `gorm:"column:event_id;not null;uniqueIndex:idx_voter_weights_event_user,priority:1" json:"event_id"`
	UserID     string          `gorm:"column:user_id;type:text;not null;uniqueIndex:idx_voter_weights_event_user,priority:2" json:"user_id"`
	Multiplier decimal.Decimal `gorm:"column:multiplier;type:numeric;not null;default:1" json:"multiplier"`
}

// PlaceTally is one grouped aggregation row from the vote store: the summed
// final points and vote count for one (entry, place) pair.
type PlaceTally struct {
	EntryID    uint
	DivisionID *uint
	Place      int
	Points     decimal.Decimal
	Count      int64
}

// EntryResult is the read projection returned to display callers, folded from
// place tallies joined with entry/division/participant metadata.
type EntryResult struct {
	EntryID         uint            `json:"entry_id"`
	EntryName       string          `json:"entry_name"`
	EntryNumber     int             `json:"entry_number"`
	DivisionID      *uint           `json:"division_id,omitempty"`
	DivisionName    string          `json:"division_name,omitempty"`
	ParticipantName string          `json:"participant_name,omitempty"`
	TotalPoints     decimal.Decimal `json:"total_points"`
	VoteCount       int64           `json:"vote_count"`
	PlaceCounts     map[int]int64   `json:"place_counts,omitempty"`
}

func (Event) TableName() string        { return "events" }
func (VotingType) TableName() string   { return "voting_types" }
func (PlaceConfig) TableName() string  { return "place_configs" }
func (Division) TableName() string     { return "divisions" }
func (DivisionType) TableName() string { return "division_types" }
func (Participant) TableName() string  { return "participants" }
func (Entry) TableName() string        { return "entries" }
func (Vote) TableName() string         { return "votes" }
func (VoteSummary) TableName() string  { return "vote_summaries" }
func (VoterWeight) TableName() string  { return "voter_weights" }
