package relations

import "errors"

var (
	// ErrConstructionViolation is returned when relation building breaks an
	// internal invariant, such as an exclusion without members. It never
	// occurs on valid input.
	ErrConstructionViolation = errors.New("gorus: relation construction violation")

	// ErrInvalidEntity is returned for entity spans that do not fit the text.
	ErrInvalidEntity = errors.New("gorus: invalid entity")
)
