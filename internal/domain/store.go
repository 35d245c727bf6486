package domain

import (
	"context"
	"time"
)

// TokenStore persists token records. Uniqueness on the normalized address is
// enforced by the store itself; Upsert must treat a conflicting insert as an
// update that preserves the original DetectedAt.
type TokenStore interface {
	// Upsert inserts rec, or updates the existing row with the same
	// normalized address. The stored record is returned; on an update its
	// DetectedAt is the original first-seen timestamp, not rec's.
	Upsert(ctx context.Context, rec TokenRecord) (TokenRecord, error)

	// Exists reports whether a record for the address (case-insensitive)
	// is currently visible within the freshness horizon.
	Exists(ctx context.Context, address string, freshness time.Duration) (bool, error)

	// QueryTop returns up to limit records within the freshness horizon,
	// ordered by score descending then detection time descending.
	QueryTop(ctx context.Context, limit int, freshness time.Duration) ([]TokenRecord, error)

	// AgeAllWithin recomputes AgeMinutes from DetectedAt for every record
	// inside the freshness horizon and returns the number of rows touched.
	AgeAllWithin(ctx context.Context, freshness time.Duration) (int64, error)

	// ListOlderThan returns records whose DetectedAt is beyond the expiry
	// horizon, for archival before deletion.
	ListOlderThan(ctx context.Context, expiry time.Duration) ([]TokenRecord, error)

	// ExpireOlderThan deletes records whose DetectedAt is beyond the expiry
	// horizon and returns the number of rows deleted.
	ExpireOlderThan(ctx context.Context, expiry time.Duration) (int64, error)
}

// CursorStore persists the last fully-scanned block height so the scan
// cursor survives process restarts.
type CursorStore interface {
	// Cursor returns the stored block height. ok is false when no cursor
	// has been recorded yet.
	Cursor(ctx context.Context) (block uint64, ok bool, err error)

	// SetCursor records the last fully-scanned block height.
	SetCursor(ctx context.Context, block uint64) error
}
