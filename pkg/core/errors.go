// pkg/core/errors.go
package core

import "errors"

var (
	// ErrInvalidGeometry is returned when a shape has too few points or malformed coordinates.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrNotFound is returned for operations on an unknown shape id.
	ErrNotFound = errors.New("shape not found")

	// ErrDuplicateID is returned when a shape id is already present in the store.
	ErrDuplicateID = errors.New("duplicate shape id")

	// ErrPersistence is returned when reading or writing the persisted store fails.
	ErrPersistence = errors.New("persistence failure")

	// ErrFeedUnavailable is returned when a feed fetch fails or returns a non-OK status.
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrPermissionDenied is returned when the host refuses geolocation or fullscreen.
	ErrPermissionDenied = errors.New("permission denied")
)
