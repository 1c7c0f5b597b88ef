package store

import "errors"

// Common errors returned by the store package.
var (
	// ErrNotLoggedIn is returned by LoadAuth when no login is stored.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrInvalidAuth is returned when saving an auth state without a token.
	ErrInvalidAuth = errors.New("auth state has no token")

	// ErrInvalidRecord is returned for a nil capture record or one without a tenant.
	ErrInvalidRecord = errors.New("invalid capture record")

	// ErrInvalidID is returned when a capture id is not a UUID.
	ErrInvalidID = errors.New("invalid capture id")

	// ErrCaptureNotFound is returned when a capture id does not exist.
	ErrCaptureNotFound = errors.New("capture not found")
)
