package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

// summaryKey is the Redis key holding the latest scan summary as JSON.
const summaryKey = "scan:summary"

// summaryTTL bounds how long a stale summary may be served after the last
// successful cycle.
const summaryTTL = 30 * time.Minute

// SummaryCache implements domain.SummaryCache using a single JSON value.
// The API layer falls back to it when a cycle fails against the chain or
// the store.
type SummaryCache struct {
	rdb *redis.Client
}

// NewSummaryCache creates a SummaryCache backed by the given Client.
func NewSummaryCache(c *Client) *SummaryCache {
	return &SummaryCache{rdb: c.Underlying()}
}

// SetSummary stores the scan summary, replacing any previous one.
func (sc *SummaryCache) SetSummary(ctx context.Context, s domain.ScanSummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("redis: marshal summary: %w", err)
	}
	if err := sc.rdb.Set(ctx, summaryKey, data, summaryTTL).Err(); err != nil {
		return fmt.Errorf("redis: set summary: %w", err)
	}
	return nil
}

// GetSummary retrieves the latest scan summary. It returns
// domain.ErrNotFound when no summary has been cached or it has expired.
func (sc *SummaryCache) GetSummary(ctx context.Context) (domain.ScanSummary, error) {
	data, err := sc.rdb.Get(ctx, summaryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ScanSummary{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ScanSummary{}, fmt.Errorf("redis: get summary: %w", err)
	}

	var s domain.ScanSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.ScanSummary{}, fmt.Errorf("redis: unmarshal summary: %w", err)
	}
	return s, nil
}

// Compile-time interface check.
var _ domain.SummaryCache = (*SummaryCache)(nil)
