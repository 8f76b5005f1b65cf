package domain

import "errors"

var (
	// ErrNotFound is returned when a row does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness or reference constraint.
	ErrConflict = errors.New("conflict")
)
