package domain

import (
	"context"
	"time"
)

// SummaryCache holds the latest scan summary so the API can serve a cached
// response when the chain or the store is unavailable.
type SummaryCache interface {
	SetSummary(ctx context.Context, s ScanSummary) error
	GetSummary(ctx context.Context) (ScanSummary, error)
}

// LockManager provides distributed locks so at most one scan cycle is in
// flight across process instances.
type LockManager interface {
	// Acquire obtains the lock for key with the given TTL and returns an
	// unlock function. It returns ErrLockHeld when another holder owns it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RateLimiter bounds how often a keyed action may run inside a sliding
// window. The HTTP layer uses it to throttle manual scan triggers.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus is a lightweight pub/sub fabric used to push pipeline events
// (new tokens, scan summaries) to downstream consumers such as the
// WebSocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
