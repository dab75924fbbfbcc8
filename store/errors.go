package store

import "errors"

// Error Handling Guidelines:
// - Stores: wrap the sentinels below with fmt.Errorf("context: %w", err)
// - Handlers: map them with apperrors.FromStoreError

// Predefined errors for the record store layer.
var (
	// ErrValidation indicates the record was rejected before any write took place.
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited indicates an identical record was written within the suppression window.
	ErrRateLimited = errors.New("duplicate submission")

	// ErrCorruptStore indicates the record file exists but is not a valid JSON array.
	ErrCorruptStore = errors.New("record store is corrupt")

	// ErrStoreIO indicates the record file could not be read or written.
	ErrStoreIO = errors.New("record store i/o failure")
)
