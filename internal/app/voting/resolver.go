package voting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

// Resolver maps a voter's free-text ballot input (division-type code plus a
// typed identifier) to a canonical entry. Three strategies run in order and
// the first match wins; the ordering is a compatibility layer with ballots
// printed before events carried division typing.
type Resolver struct {
	divisions domain.DivisionRepository
	entries   domain.EntryRepository
}

func NewResolver(divisions domain.DivisionRepository, entries domain.EntryRepository) *Resolver {
	return &Resolver{divisions: divisions, entries: entries}
}

// Resolve returns the entry for (typeCode, input) within the event, or an
// error wrapping domain.ErrNotFound when no strategy matches.
//
// Strategy 1: legacy direct-code match. "P" + "1" -> division code "P1". The
// match only holds when that division contains exactly one entry; with more
// the code is ambiguous and resolution falls through so the caller has to
// disambiguate by entry number.
//
// Strategy 2: typed entry-number match via the event's division-type template
// (code -> type name, then entry number within divisions of that type).
//
// Strategy 3: unscoped entry-number match, for events without division typing.
func (r *Resolver) Resolve(ctx context.Context, event domain.Event, typeCode, input string) (domain.Entry, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return domain.Entry{}, fmt.Errorf("resolver: empty input: %w", domain.ErrNotFound)
	}

	if entry, ok, err := r.resolveByDivisionCode(ctx, event.ID, typeCode+input); err != nil {
		return domain.Entry{}, err
	} else if ok {
		return entry, nil
	}

	number, err := strconv.Atoi(input)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("resolver: input %q is not numeric: %w", input, domain.ErrNotFound)
	}

	if typeName, ok := divisionTypeName(event, typeCode); ok {
		entry, err := r.entries.FindByNumberAndType(ctx, event.ID, number, typeName)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Entry{}, err
		}
	}

	entry, err := r.entries.FindByNumber(ctx, event.ID, number)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Entry{}, fmt.Errorf("resolver: no entry for input %q: %w", input, domain.ErrNotFound)
		}
		return domain.Entry{}, err
	}
	return entry, nil
}

func (r *Resolver) resolveByDivisionCode(ctx context.Context, eventID uint, code string) (domain.Entry, bool, error) {
	division, err := r.divisions.FindByCode(ctx, eventID, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Entry{}, false, nil
		}
		return domain.Entry{}, false, err
	}

	entries, err := r.entries.ListByDivision(ctx, division.ID)
	if err != nil {
		return domain.Entry{}, false, err
	}
	// Exactly one entry keeps the legacy code unambiguous.
	if len(entries) != 1 {
		return domain.Entry{}, false, nil
	}
	return entries[0], true, nil
}

func divisionTypeName(event domain.Event, code string) (string, bool) {
	for _, dt := range event.DivisionTypes {
		if strings.EqualFold(dt.Code, code) {
			return dt.Name, true
		}
	}
	return "", false
}
