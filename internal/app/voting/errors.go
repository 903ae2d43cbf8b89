package voting

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEventNotFound           = errors.New("event not found")
	ErrEntryNotFound           = errors.New("entry not found")
	ErrDivisionNotFound        = errors.New("division not found")
	ErrVotingClosed            = errors.New("voting window is not open")
	ErrAlreadyVoted            = errors.New("voter already has a ballot for this event")
	ErrDuplicateSelection      = errors.New("duplicate selection")
	ErrInvalidEntrySelection   = errors.New("invalid entry selection")
	ErrInvalidRating           = errors.New("rating out of bounds")
	ErrTooManySelections       = errors.New("too many selections")
	ErrInvalidVotingTypeConfig = errors.New("invalid voting type configuration")
	ErrInvalidEventSetup       = errors.New("invalid event setup")
)

// DuplicateSelectionError points at the division type whose ballot picked the
// same raw input at two places.
type DuplicateSelectionError struct {
	TypeCode string
	Place    int
	Input    string
}

func (e *DuplicateSelectionError) Error() string {
	return fmt.Sprintf("duplicate selection %q at place %d of type %q", e.Input, e.Place, e.TypeCode)
}

func (e *DuplicateSelectionError) Unwrap() error { return ErrDuplicateSelection }

// InvalidSelection is one ballot input the entry resolver could not match.
type InvalidSelection struct {
	TypeCode string `json:"type_code"`
	Place    int    `json:"place"`
	Input    string `json:"input"`
}

// SelectionValidationError batches every unresolvable input of a ballot so the
// voter can fix the whole thing in one round trip.
type SelectionValidationError struct {
	Invalid []InvalidSelection
}

func (e *SelectionValidationError) Error() string {
	inputs := make([]string, len(e.Invalid))
	for i, sel := range e.Invalid {
		inputs[i] = fmt.Sprintf("%s place %d: %q", sel.TypeCode, sel.Place, sel.Input)
	}
	return "invalid entry selections: " + strings.Join(inputs, "; ")
}

func (e *SelectionValidationError) Unwrap() error { return ErrInvalidEntrySelection }
