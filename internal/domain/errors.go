package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrLockHeld      = errors.New("lock already held")

	// ErrMetadataInvalid means metadata was read but failed validation
	// (symbol or name over the length bound). The event is discarded.
	ErrMetadataInvalid = errors.New("token metadata invalid")

	// ErrMetadataUnavailable means the read infrastructure failed before
	// any per-field fallback could apply. The event is discarded.
	ErrMetadataUnavailable = errors.New("token metadata unavailable")

	// ErrChainUnavailable is fatal to the current scan cycle; the cursor is
	// not advanced and the same range is retried next cycle.
	ErrChainUnavailable = errors.New("chain read unavailable")

	// ErrStoreUnavailable means the persistent store cannot be reached.
	ErrStoreUnavailable = errors.New("token store unavailable")
)
