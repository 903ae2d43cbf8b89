package voting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

func setupResolver(t *testing.T) (*Resolver, domain.Event) {
	svc, store := setupService(t, nil)
	event := createEvent(t, svc, baseSetup())
	return NewResolver(store.Divisions(), store.Entries()), event
}

func TestResolver_DivisionCodeWithSingleEntry_MatchesDirectly(t *testing.T) {
	resolver, event := setupResolver(t)

	// "P" + "1" forms division code P1, which holds exactly one entry.
	entry, err := resolver.Resolve(context.Background(), event, "P", "1")
	require.NoError(t, err)
	assert.Equal(t, "First Act", entry.Name)
}

func TestResolver_AmbiguousDivisionCode_FallsThroughToEntryNumber(t *testing.T) {
	resolver, event := setupResolver(t)

	// "P" + "2" also forms a valid division code (P2), but that division has
	// two entries, so the input must resolve as entry number 2 instead.
	entry, err := resolver.Resolve(context.Background(), event, "P", "2")
	require.NoError(t, err)
	assert.Equal(t, "Second Act", entry.Name)
	assert.Equal(t, 2, entry.EntryNumber)
}

func TestResolver_TypeCodeIsCaseInsensitive(t *testing.T) {
	resolver, event := setupResolver(t)

	entry, err := resolver.Resolve(context.Background(), event, "p", "3")
	require.NoError(t, err)
	assert.Equal(t, "Third Act", entry.Name)
}

func TestResolver_UnknownTypeCode_FallsBackToPlainNumber(t *testing.T) {
	resolver, event := setupResolver(t)

	entry, err := resolver.Resolve(context.Background(), event, "Z", "3")
	require.NoError(t, err)
	assert.Equal(t, "Third Act", entry.Name)
}

func TestResolver_EventWithoutDivisionTyping_ResolvesByNumber(t *testing.T) {
	resolver, event := setupResolver(t)
	event.DivisionTypes = nil

	entry, err := resolver.Resolve(context.Background(), event, "", "2")
	require.NoError(t, err)
	assert.Equal(t, "Second Act", entry.Name)
}

func TestResolver_InputIsTrimmed(t *testing.T) {
	resolver, event := setupResolver(t)

	entry, err := resolver.Resolve(context.Background(), event, "P", "  3  ")
	require.NoError(t, err)
	assert.Equal(t, "Third Act", entry.Name)
}

func TestResolver_EmptyInput_ReturnsNotFound(t *testing.T) {
	resolver, event := setupResolver(t)

	_, err := resolver.Resolve(context.Background(), event, "P", "   ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolver_NonNumericInput_ReturnsNotFound(t *testing.T) {
	resolver, event := setupResolver(t)

	_, err := resolver.Resolve(context.Background(), event, "P", "banana")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolver_UnknownNumber_ReturnsNotFound(t *testing.T) {
	resolver, event := setupResolver(t)

	_, err := resolver.Resolve(context.Background(), event, "P", "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
