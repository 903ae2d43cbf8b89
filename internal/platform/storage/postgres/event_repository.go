package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

// EventRepository maps the event aggregate (voting type, place configs,
// division typing, divisions, participants) onto GORM tables.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("gorm events: create: %w", err)
	}
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	var event domain.Event
	err := r.db.WithContext(ctx).
		Preload("VotingType").
		Preload("VotingType.Places").
		Preload("DivisionTypes").
		First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Event{}, domain.ErrNotFound
		}
		return domain.Event{}, fmt.Errorf("gorm events: find %d: %w", id, err)
	}
	return event, nil
}

func (r *EventRepository) ListActive(ctx context.Context) ([]domain.Event, error) {
	var events []domain.Event
	err := r.db.WithContext(ctx).
		Preload("VotingType").
		Preload("VotingType.Places").
		Preload("DivisionTypes").
		Where("active = ?", true).
		Order("voting_closes_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("gorm events: list active: %w", err)
	}
	return events, nil
}

var _ domain.EventRepository = (*EventRepository)(nil)
