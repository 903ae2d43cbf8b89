package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

func TestEntryRepository_FindByNumber_LoadsDivisionAndParticipant(t *testing.T) {
	db := setupDB(t)
	repo := NewEntryRepository(db)
	event := seedEvent(t, db)

	entry, err := repo.FindByNumber(context.Background(), event.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, "First Act", entry.Name)
	require.NotNil(t, entry.Division)
	assert.Equal(t, "P1", entry.Division.Code)
	require.NotNil(t, entry.Participant)
	assert.Equal(t, "Alice", entry.Participant.Name)
}

func TestEntryRepository_FindByNumber_Missing_ReturnsNotFound(t *testing.T) {
	db := setupDB(t)
	repo := NewEntryRepository(db)
	event := seedEvent(t, db)

	_, err := repo.FindByNumber(context.Background(), event.ID, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntryRepository_FindByNumberAndType_ScopesToDivisionType(t *testing.T) {
	db := setupDB(t)
	repo := NewEntryRepository(db)
	event := seedEvent(t, db)
	ctx := context.Background()

	entry, err := repo.FindByNumberAndType(ctx, event.ID, 2, "Professional")
	require.NoError(t, err)
	assert.Equal(t, "Second Act", entry.Name)

	_, err = repo.FindByNumberAndType(ctx, event.ID, 2, "Amateur")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntryRepository_ListByEvent_OrdersByEntryNumber(t *testing.T) {
	db := setupDB(t)
	repo := NewEntryRepository(db)
	event := seedEvent(t, db)

	entries, err := repo.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].EntryNumber, entries[1].EntryNumber, entries[2].EntryNumber})
}

func TestEntryRepository_ListByDivision(t *testing.T) {
	db := setupDB(t)
	repo := NewEntryRepository(db)
	event := seedEvent(t, db)

	entries, err := repo.ListByDivision(context.Background(), *event.Entries[1].DivisionID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Second Act", entries[0].Name)
	assert.Equal(t, "Third Act", entries[1].Name)
}
