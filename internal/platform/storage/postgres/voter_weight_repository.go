package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

type VoterWeightRepository struct {
	db *gorm.DB
}

func NewVoterWeightRepository(db *gorm.DB) *VoterWeightRepository {
	return &VoterWeightRepository{db: db}
}

func (r *VoterWeightRepository) Set(ctx context.Context, w domain.VoterWeight) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "event_id"},
				{Name: "user_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"multiplier"}),
		}).
		Create(&w).Error
	if err != nil {
		return fmt.Errorf("gorm voter weights: set: %w", err)
	}
	return nil
}

// Multiplier defaults to 1 when the voter has no configured weight.
func (r *VoterWeightRepository) Multiplier(ctx context.Context, eventID uint, userID string) (decimal.Decimal, error) {
	var weight domain.VoterWeight
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&weight).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Decimal{}, fmt.Errorf("gorm voter weights: find %s: %w", userID, err)
	}
	return weight.Multiplier, nil
}

var _ domain.VoterWeightRepository = (*VoterWeightRepository)(nil)
