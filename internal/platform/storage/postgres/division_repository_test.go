package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

func TestDivisionRepository_FindByCode(t *testing.T) {
	db := setupDB(t)
	repo := NewDivisionRepository(db)
	event := seedEvent(t, db)
	ctx := context.Background()

	division, err := repo.FindByCode(ctx, event.ID, "P2")
	require.NoError(t, err)
	assert.Equal(t, "Professional", division.Type)

	_, err = repo.FindByCode(ctx, event.ID, "X9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDivisionRepository_FindByCode_ScopedToEvent(t *testing.T) {
	db := setupDB(t)
	repo := NewDivisionRepository(db)
	event := seedEvent(t, db)

	_, err := repo.FindByCode(context.Background(), event.ID+1, "P1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDivisionRepository_ListByEvent_OrdersByCode(t *testing.T) {
	db := setupDB(t)
	repo := NewDivisionRepository(db)
	event := seedEvent(t, db)

	divisions, err := repo.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, divisions, 2)
	assert.Equal(t, "P1", divisions[0].Code)
	assert.Equal(t, "P2", divisions[1].Code)
}
