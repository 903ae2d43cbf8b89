package results

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/ids"
	postgresstorage "github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/storage/postgres"
)

func setupStore(t *testing.T) domain.Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&domain.Event{},
		&domain.VotingType{},
		&domain.PlaceConfig{},
		&domain.DivisionType{},
		&domain.Division{},
		&domain.Participant{},
		&domain.Entry{},
		&domain.Vote{},
		&domain.VoteSummary{},
		&domain.VoterWeight{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return postgresstorage.NewStore(db)
}

func seedEvent(t *testing.T, store domain.Store) domain.Event {
	ctx := context.Background()
	now := time.Now()
	event := domain.Event{
		Name:           "Autumn Cup",
		VotingOpensAt:  now.Add(-1 * time.Hour),
		VotingClosesAt: now.Add(24 * time.Hour),
		Active:         true,
		Divisions: []domain.Division{
			{Code: "A1", Type: "Amateur"},
			{Code: "A2", Type: "Amateur"},
		},
	}
	require.NoError(t, store.Events().Create(ctx, &event))

	entries := []domain.Entry{
		{EventID: event.ID, DivisionID: &event.Divisions[0].ID, Name: "Entry One", EntryNumber: 1},
		{EventID: event.ID, DivisionID: &event.Divisions[1].ID, Name: "Entry Two", EntryNumber: 2},
		{EventID: event.ID, DivisionID: &event.Divisions[1].ID, Name: "Entry Three", EntryNumber: 3},
	}
	for i := range entries {
		require.NoError(t, store.Entries().Create(ctx, &entries[i]))
	}
	event.Entries = entries
	return event
}

func castVote(t *testing.T, store domain.Store, event domain.Event, entry domain.Entry, userID string, place int, points int64) {
	base := decimal.NewFromInt(points)
	err := store.Votes().Upsert(context.Background(), domain.Vote{
		ID:               domain.VoteID(ids.NewULID()),
		EventID:          event.ID,
		UserID:           userID,
		EntryID:          entry.ID,
		DivisionID:       entry.DivisionID,
		Place:            place,
		BasePoints:       base,
		WeightMultiplier: decimal.NewFromInt(1),
		FinalPoints:      base,
	})
	require.NoError(t, err)
}

func TestAggregator_Recompute_RanksWithinEachDivision(t *testing.T) {
	store := setupStore(t)
	event := seedEvent(t, store)
	ctx := context.Background()

	// Division A2: entry 3 wins on points, entry 2 trails.
	castVote(t, store, event, event.Entries[2], "user-1", 1, 5)
	castVote(t, store, event, event.Entries[1], "user-1", 2, 3)
	// Division A1: entry 1 alone.
	castVote(t, store, event, event.Entries[0], "user-2", 1, 5)

	require.NoError(t, NewAggregator().Recompute(ctx, store, event.ID))

	a2, err := store.Summaries().ListByDivision(ctx, event.ID, *event.Entries[1].DivisionID)
	require.NoError(t, err)
	require.Len(t, a2, 2)
	assert.Equal(t, event.Entries[2].ID, a2[0].EntryID)
	assert.Equal(t, 1, a2[0].Ranking)
	assert.Equal(t, event.Entries[1].ID, a2[1].EntryID)
	assert.Equal(t, 2, a2[1].Ranking)

	a1, err := store.Summaries().ListByDivision(ctx, event.ID, *event.Entries[0].DivisionID)
	require.NoError(t, err)
	require.Len(t, a1, 1)
	assert.Equal(t, 1, a1[0].Ranking)
}

func TestAggregator_Recompute_TiesGetDistinctRanksByEntryNumber(t *testing.T) {
	store := setupStore(t)
	event := seedEvent(t, store)
	ctx := context.Background()

	castVote(t, store, event, event.Entries[1], "user-1", 1, 7)
	castVote(t, store, event, event.Entries[2], "user-2", 1, 7)

	require.NoError(t, NewAggregator().Recompute(ctx, store, event.ID))

	summaries, err := store.Summaries().ListByDivision(ctx, event.ID, *event.Entries[1].DivisionID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, event.Entries[1].ID, summaries[0].EntryID)
	assert.Equal(t, 1, summaries[0].Ranking)
	assert.Equal(t, event.Entries[2].ID, summaries[1].EntryID)
	assert.Equal(t, 2, summaries[1].Ranking)
}

func TestAggregator_Recompute_CountsPodiumPlaces(t *testing.T) {
	store := setupStore(t)
	event := seedEvent(t, store)
	ctx := context.Background()

	castVote(t, store, event, event.Entries[1], "user-1", 1, 3)
	castVote(t, store, event, event.Entries[1], "user-2", 2, 2)
	castVote(t, store, event, event.Entries[1], "user-3", 3, 1)

	require.NoError(t, NewAggregator().Recompute(ctx, store, event.ID))

	summaries, err := store.Summaries().ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(1), summaries[0].FirstPlaceCount)
	assert.Equal(t, int64(1), summaries[0].SecondPlaceCount)
	assert.Equal(t, int64(1), summaries[0].ThirdPlaceCount)
	assert.Equal(t, int64(3), summaries[0].VoteCount)
	assert.True(t, summaries[0].TotalPoints.Equal(decimal.NewFromInt(6)))
}

func TestAggregator_Recompute_IsIdempotent(t *testing.T) {
	store := setupStore(t)
	event := seedEvent(t, store)
	ctx := context.Background()

	castVote(t, store, event, event.Entries[0], "user-1", 1, 5)

	agg := NewAggregator()
	require.NoError(t, agg.Recompute(ctx, store, event.ID))
	require.NoError(t, agg.Recompute(ctx, store, event.ID))

	summaries, err := store.Summaries().ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
}

func TestFold_JoinsEntryMetadata(t *testing.T) {
	division := domain.Division{ID: 10, Code: "A1", Type: "Amateur"}
	participant := domain.Participant{ID: 20, Name: "Alice"}
	divisionID := division.ID

	entries := []domain.Entry{
		{ID: 1, Name: "Entry One", EntryNumber: 1, DivisionID: &divisionID, Division: &division, Participant: &participant},
	}
	tallies := []domain.PlaceTally{
		{EntryID: 1, DivisionID: &divisionID, Place: 1, Points: decimal.NewFromInt(6), Count: 2},
		{EntryID: 1, DivisionID: &divisionID, Place: 2, Points: decimal.NewFromInt(2), Count: 1},
	}

	out := Fold(tallies, entries)
	require.Len(t, out, 1)

	assert.Equal(t, "Entry One", out[0].EntryName)
	assert.Equal(t, "Amateur", out[0].DivisionName)
	assert.Equal(t, "Alice", out[0].ParticipantName)
	assert.True(t, out[0].TotalPoints.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, int64(3), out[0].VoteCount)
	assert.Equal(t, int64(2), out[0].PlaceCounts[1])
	assert.Equal(t, int64(1), out[0].PlaceCounts[2])
}

func TestFold_OrdersByPointsThenEntryNumber(t *testing.T) {
	entries := []domain.Entry{
		{ID: 1, Name: "One", EntryNumber: 1},
		{ID: 2, Name: "Two", EntryNumber: 2},
		{ID: 3, Name: "Three", EntryNumber: 3},
	}
	tallies := []domain.PlaceTally{
		{EntryID: 3, Place: 0, Points: decimal.NewFromInt(7), Count: 1},
		{EntryID: 1, Place: 0, Points: decimal.NewFromInt(10), Count: 1},
		{EntryID: 2, Place: 0, Points: decimal.NewFromInt(7), Count: 1},
	}

	out := Fold(tallies, entries)
	require.Len(t, out, 3)
	assert.Equal(t, uint(1), out[0].EntryID)
	assert.Equal(t, uint(2), out[1].EntryID)
	assert.Equal(t, uint(3), out[2].EntryID)
	// Place 0 rows carry no podium breakdown.
	assert.Empty(t, out[0].PlaceCounts)
}
