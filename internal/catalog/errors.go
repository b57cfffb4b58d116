package catalog

import "errors"

// Sentinel errors for expected conditions.
var (
	// ErrNotFound means an operation referenced an item or vendor ID absent
	// from the catalog. The operation did not change anything.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means the input was rejected before any mutation
	// (blank name, non-finite or negative price, bad filter).
	ErrInvalidInput = errors.New("invalid input")

	// ErrPersistenceUnavailable means the persister could not be used and
	// the store continues in memory-only mode.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
