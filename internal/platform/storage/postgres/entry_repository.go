package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Create(ctx context.Context, e *domain.Entry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("gorm entries: create: %w", err)
	}
	return nil
}

func (r *EntryRepository) FindByID(ctx context.Context, eventID, id uint) (domain.Entry, error) {
	var entry domain.Entry
	err := r.db.WithContext(ctx).
		Preload("Division").
		Preload("Participant").
		Where("event_id = ? AND id = ?", eventID, id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Entry{}, domain.ErrNotFound
		}
		return domain.Entry{}, fmt.Errorf("gorm entries: find %d: %w", id, err)
	}
	return entry, nil
}

func (r *EntryRepository) FindByNumber(ctx context.Context, eventID uint, number int) (domain.Entry, error) {
	var entry domain.Entry
	err := r.db.WithContext(ctx).
		Preload("Division").
		Preload("Participant").
		Where("event_id = ? AND entry_number = ?", eventID, number).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Entry{}, domain.ErrNotFound
		}
		return domain.Entry{}, fmt.Errorf("gorm entries: find number %d: %w", number, err)
	}
	return entry, nil
}

func (r *EntryRepository) FindByNumberAndType(ctx context.Context, eventID uint, number int, divisionType string) (domain.Entry, error) {
	var entry domain.Entry
	err := r.db.WithContext(ctx).
		Preload("Division").
		Preload("Participant").
		Joins("JOIN divisions ON divisions.id = entries.division_id").
		Where("entries.event_id = ? AND entries.entry_number = ? AND divisions.type = ?", eventID, number, divisionType).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Entry{}, domain.ErrNotFound
		}
		return domain.Entry{}, fmt.Errorf("gorm entries: find number %d type %q: %w", number, divisionType, err)
	}
	return entry, nil
}

func (r *EntryRepository) ListByDivision(ctx context.Context, divisionID uint) ([]domain.Entry, error) {
	var entries []domain.Entry
	err := r.db.WithContext(ctx).
		Preload("Division").
		Preload("Participant").
		Where("division_id = ?", divisionID).
		Order("entry_number ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("gorm entries: list division %d: %w", divisionID, err)
	}
	return entries, nil
}

// ListByEvent is the batch fetch used by the aggregator and result folds;
// division and participant come along so display joins never go N+1.
func (r *EntryRepository) ListByEvent(ctx context.Context, eventID uint) ([]domain.Entry, error) {
	var entries []domain.Entry
	err := r.db.WithContext(ctx).
		Preload("Division").
		Preload("Participant").
		Where("event_id = ?", eventID).
		Order("entry_number ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("gorm entries: list event %d: %w", eventID, err)
	}
	return entries, nil
}

var _ domain.EntryRepository = (*EntryRepository)(nil)
