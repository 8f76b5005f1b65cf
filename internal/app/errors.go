package app

import (
	"errors"

	"nourish/internal/domain"
)

var (
	// ErrInvalidCredentials is returned when login credentials are wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned when a token names a user that no longer exists.
	ErrUserNotFound = &NotFoundError{Resource: "User"}
	// ErrExternalUnavailable is returned when the external food database cannot be reached.
	ErrExternalUnavailable = errors.New("external food database unavailable")
	// ErrExternalNotConfigured is returned when no external food database is configured.
	ErrExternalNotConfigured = errors.New("external lookup not configured")
	// ErrInvalidImage is returned for uploads that are not an accepted image.
	ErrInvalidImage = errors.New("invalid image")
)

// NotFoundError reports a missing resource, or one owned by another user.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func (e *NotFoundError) Unwrap() error { return domain.ErrNotFound }

// ConflictError reports a write rejected by a uniqueness or reference rule.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return domain.ErrConflict }

// notFound replaces a repository ErrNotFound with a NotFoundError for resource.
func notFound(err error, resource string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &NotFoundError{Resource: resource}
	}
	return err
}
