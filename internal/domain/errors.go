package domain

import "errors"

var (
	// ErrNotFound is the storage-level miss shared by every repository.
	ErrNotFound = errors.New("not found")

	// ErrUnknownVotingCategory marks a voting type whose stored category has
	// no scheme handler. Configuration defect, not voter input.
	ErrUnknownVotingCategory = errors.New("unknown voting category")
)
