package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

// Store bundles the GORM repositories behind the domain's transactional
// facade. InTx hands callers a Store bound to the transaction, so the same
// repository code runs inside and outside transactions.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Events() domain.EventRepository             { return NewEventRepository(s.db) }
func (s *Store) Divisions() domain.DivisionRepository       { return NewDivisionRepository(s.db) }
func (s *Store) Entries() domain.EntryRepository            { return NewEntryRepository(s.db) }
func (s *Store) Votes() domain.VoteRepository               { return NewVoteRepository(s.db) }
func (s *Store) Summaries() domain.SummaryRepository        { return NewSummaryRepository(s.db) }
func (s *Store) VoterWeights() domain.VoterWeightRepository { return NewVoterWeightRepository(s.db) }

func (s *Store) InTx(ctx context.Context, fn func(domain.Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

var _ domain.Store = (*Store)(nil)
