package dbbadger

import "errors"

var (
	// ErrTooManyConflicts is returned when a transaction keeps conflicting
	// with concurrent ones after all retries.
	ErrTooManyConflicts = errors.New("too many transaction conflicts")
	// ErrInvalidStoredAccount ...
	ErrInvalidStoredAccount = errors.New("stored account is corrupted")
)
