package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

// VoteRepository persists individual votes and runs the grouped aggregations
// everything else is built on.
type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// Upsert inserts or, when the (user, event, entry, place) key already holds a
// row, overwrites its points, weight and rating. The conflict target is the
// composite unique index, so two concurrent casts for the same key cannot
// produce duplicates; the loser's values win (last write wins).
func (r *VoteRepository) Upsert(ctx context.Context, v domain.Vote) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "event_id"},
				{Name: "entry_id"},
				{Name: "place"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"base_points",
				"weight_multiplier",
				"final_points",
				"rating",
				"voter_ip",
				"user_agent",
				"updated_at",
			}),
		}).
		Create(&v).Error
	if err != nil {
		return fmt.Errorf("gorm votes: upsert: %w", err)
	}
	return nil
}

func (r *VoteRepository) HasVoted(ctx context.Context, eventID uint, userID string, divisionID *uint) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("event_id = ? AND user_id = ?", eventID, userID)
	if divisionID != nil {
		query = query.Where("division_id = ?", *divisionID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("gorm votes: has voted: %w", err)
	}
	return count > 0, nil
}

func (r *VoteRepository) CountByEvent(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm votes: count event %d: %w", eventID, err)
	}
	return count, nil
}

type tallyRow struct {
	EntryID    uint
	DivisionID *uint
	Place      int
	Points     decimal.Decimal
	Votes      int64
}

// TallyByEvent groups votes by (entry, place) with summed final points. The
// scan reads every vote row of the event, which is what makes recompute cost
// grow with accumulated votes.
func (r *VoteRepository) TallyByEvent(ctx context.Context, eventID uint) ([]domain.PlaceTally, error) {
	var rows []tallyRow
	err := r.db.WithContext(ctx).
		Model(&domain.Vote{}).
		Select("entry_id, division_id, place, SUM(final_points) AS points, COUNT(*) AS votes").
		Where("event_id = ?", eventID).
		Group("entry_id, division_id, place").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("gorm votes: tally event %d: %w", eventID, err)
	}
	return toTallies(rows), nil
}

func (r *VoteRepository) TallyByDivision(ctx context.Context, eventID, divisionID uint) ([]domain.PlaceTally, error) {
	var rows []tallyRow
	err := r.db.WithContext(ctx).
		Model(&domain.Vote{}).
		Select("entry_id, division_id, place, SUM(final_points) AS points, COUNT(*) AS votes").
		Where("event_id = ? AND division_id = ?", eventID, divisionID).
		Group("entry_id, division_id, place").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("gorm votes: tally division %d: %w", divisionID, err)
	}
	return toTallies(rows), nil
}

func toTallies(rows []tallyRow) []domain.PlaceTally {
	tallies := make([]domain.PlaceTally, len(rows))
	for i, row := range rows {
		tallies[i] = domain.PlaceTally{
			EntryID:    row.EntryID,
			DivisionID: row.DivisionID,
			Place:      row.Place,
			Points:     row.Points,
			Count:      row.Votes,
		}
	}
	return tallies
}

var _ domain.VoteRepository = (*VoteRepository)(nil)
