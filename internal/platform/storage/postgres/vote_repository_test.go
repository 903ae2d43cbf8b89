package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

func TestVoteRepository_Upsert_SameKeyTwice_KeepsOneRow(t *testing.T) {
	db := setupDB(t)
	repo := NewVoteRepository(db)
	event := seedEvent(t, db)
	ctx := context.Background()

	first := newVote(event, event.Entries[0], "user-1", 1, 3)
	require.NoError(t, repo.Upsert(ctx, first))

	// Retry of the same logical vote, new ID, new points.
	second := newVote(event, event.Entries[0], "user-1", 1, 5)
	require.NoError(t, repo.Upsert(ctx, second))

	count, err := repo.CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var stored domain.Vote
	require.NoError(t, db.First(&stored, "event_id = ? AND user_id = ?", event.ID, "user-1").Error)
	assert.True(t, stored.FinalPoints.Equal(decimal.NewFromInt(5)), "last write wins: got %s", stored.FinalPoints)
	// The original row survives; only its values change.
	assert.Equal(t, first.ID, stored.ID)
}

func TestVoteRepository_Upsert_DifferentPlaces_AreSeparateRows(t *testing.T) {
	db := setupDB(t)
	repo := NewVoteRepository(db)
	event := seedEvent(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, newVote(event, event.Entries[0], "user-1", 1, 3)))
	require.NoError(t, repo.Upsert(ctx, newVote(event, event.Entries[1], "user-1", 2, 2)))

	count, err := repo.CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestVoteRepository_HasVoted(t *testing.T) {
	db := setupDB(t)
	repo := NewVoteRepository(db)
	event := seedEvent(t, db)
	ctx := context.Background()

	voted, err := repo.HasVoted(ctx, event.ID, "user-1", nil)
	require.NoError(t, err)
	assert.False(t, voted)

	require.NoError(t, repo.Upsert(ctx, newVote(event, event.Entries[0], "user-1", 1, 3)))

	voted, err = repo.HasVoted(ctx, event.ID, "user-1", nil)
	require.NoError(t, err)
	assert.True(t, voted)
}

func TestVoteRepository_HasVoted_FiltersByDivision(t *testing.T) {
	db := setupDB(t)
	repo := NewVoteRepository(db)
	event := seedEvent(t, db)
	ctx := context.Background()

	// Entry 1 lives in the first division only.
	require.NoError(t, repo.Upsert(ctx, newVote(event, event.Entries[0], "user-1", 1, 3)))

	voted, err := repo.HasVoted(ctx, event.ID, "user-1", event.Entries[0].DivisionID)
	require.NoError(t, err)
	assert.True(t, voted)

	voted, err = repo.HasVoted(ctx, event.ID, "user-1", event.Entries[1].DivisionID)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestVoteRepository_TallyByEvent_GroupsByEntryAndPlace(t *testing.T) {
	db := setupDB(t)
	repo := NewVoteRepository(db)
	event := seedEvent(t, db)
	ctx := context.Background()

	// Two voters put entry 1 in first place, one puts entry 2 in second.
	require.NoError(t, repo.Upsert(ctx, newVote(event, event.Entries[0], "user-1", 1, 3)))
	require.NoError(t, repo.Upsert(ctx, newVote(event, event.Entries[0], "user-2", 1, 3)))
	require.NoError(t, repo.Upsert(ctx, newVote(event, event.Entries[1], "user-1", 2, 2)))

	tallies, err := repo.TallyByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, tallies, 2)

	byEntry := make(map[uint]domain.PlaceTally, len(tallies))
	for _, tally := range tallies {
		byEntry[tally.EntryID] = tally
	}

	first := byEntry[event.Entries[0].ID]
	assert.Equal(t, 1, first.Place)
	assert.Equal(t, int64(2), first.Count)
	assert.True(t, first.Points.Equal(decimal.NewFromInt(6)), "got %s", first.Points)

	second := byEntry[event.Entries[1].ID]
	assert.Equal(t, 2, second.Place)
	assert.Equal(t, int64(1), second.Count)
	assert.True(t, second.Points.Equal(decimal.NewFromInt(2)), "got %s", second.Points)
}

func TestVoteRepository_TallyByDivision_ExcludesOtherDivisions(t *testing.T) {
	db := setupDB(t)
	repo := NewVoteRepository(db)
	event := seedEvent(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, newVote(event, event.Entries[0], "user-1", 1, 3)))
	require.NoError(t, repo.Upsert(ctx, newVote(event, event.Entries[1], "user-1", 2, 2)))

	tallies, err := repo.TallyByDivision(ctx, event.ID, *event.Entries[1].DivisionID)
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	assert.Equal(t, event.Entries[1].ID, tallies[0].EntryID)
}
