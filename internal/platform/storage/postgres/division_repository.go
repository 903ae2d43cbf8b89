package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

type DivisionRepository struct {
	db *gorm.DB
}

func NewDivisionRepository(db *gorm.DB) *DivisionRepository {
	return &DivisionRepository{db: db}
}

func (r *DivisionRepository) FindByCode(ctx context.Context, eventID uint, code string) (domain.Division, error) {
	var division domain.Division
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND code = ?", eventID, code).
		First(&division).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Division{}, domain.ErrNotFound
		}
		return domain.Division{}, fmt.Errorf("gorm divisions: find code %q: %w", code, err)
	}
	return division, nil
}

func (r *DivisionRepository) FindByID(ctx context.Context, eventID, id uint) (domain.Division, error) {
	var division domain.Division
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND id = ?", eventID, id).
		First(&division).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Division{}, domain.ErrNotFound
		}
		return domain.Division{}, fmt.Errorf("gorm divisions: find %d: %w", id, err)
	}
	return division, nil
}

func (r *DivisionRepository) ListByEvent(ctx context.Context, eventID uint) ([]domain.Division, error) {
	var divisions []domain.Division
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("code ASC").
		Find(&divisions).Error
	if err != nil {
		return nil, fmt.Errorf("gorm divisions: list event %d: %w", eventID, err)
	}
	return divisions, nil
}

var _ domain.DivisionRepository = (*DivisionRepository)(nil)
