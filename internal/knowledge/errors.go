package knowledge

import "errors"

// Sentinel errors for knowledge operations.
// These are part of the Store's public API and should be checked with errors.Is().
var (
	// ErrEntryNotFound indicates the requested entry does not exist.
	ErrEntryNotFound = errors.New("knowledge entry not found")

	// ErrAssistantNotFound indicates the referenced assistant does not exist.
	ErrAssistantNotFound = errors.New("assistant not found")

	// ErrEmptyFilter indicates a bulk update was requested with no filter fields set.
	ErrEmptyFilter = errors.New("at least one filter field is required")

	// ErrEmptyUpdate indicates a bulk update was requested with no update fields set.
	ErrEmptyUpdate = errors.New("at least one update field is required")
)
