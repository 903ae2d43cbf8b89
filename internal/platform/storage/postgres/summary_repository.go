package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

type SummaryRepository struct {
	db *gorm.DB
}

func NewSummaryRepository(db *gorm.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// ReplaceForEvent deletes the event's summary rows and inserts the fresh set.
// Delete-then-insert (rather than patching) also clears entries that lost all
// their votes since the last rebuild.
func (r *SummaryRepository) ReplaceForEvent(ctx context.Context, eventID uint, summaries []domain.VoteSummary) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("event_id = ?", eventID).Delete(&domain.VoteSummary{}).Error; err != nil {
		return fmt.Errorf("gorm summaries: clear event %d: %w", eventID, err)
	}
	if len(summaries) == 0 {
		return nil
	}
	// Fresh inserts; IDs from a previous rebuild must not leak through.
	for i := range summaries {
		summaries[i].ID = 0
	}
	if err := db.Create(&summaries).Error; err != nil {
		return fmt.Errorf("gorm summaries: insert event %d: %w", eventID, err)
	}
	return nil
}

func (r *SummaryRepository) ListByEvent(ctx context.Context, eventID uint) ([]domain.VoteSummary, error) {
	var summaries []domain.VoteSummary
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("ranking ASC").
		Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("gorm summaries: list event %d: %w", eventID, err)
	}
	return summaries, nil
}

func (r *SummaryRepository) ListByDivision(ctx context.Context, eventID, divisionID uint) ([]domain.VoteSummary, error) {
	var summaries []domain.VoteSummary
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND division_id = ?", eventID, divisionID).
		Order("ranking ASC").
		Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("gorm summaries: list division %d: %w", divisionID, err)
	}
	return summaries, nil
}

var _ domain.SummaryRepository = (*SummaryRepository)(nil)
