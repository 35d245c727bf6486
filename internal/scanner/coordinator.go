package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/poolscout/internal/domain"
	"github.com/alanyoungcy/poolscout/internal/notify"
)

// scanLockKey guards the scan cycle across process instances.
const scanLockKey = "scan:cycle"

// CycleError is returned when both the chain and the store are unavailable:
// there is no data source left to build even a degraded response from.
type CycleError struct {
	ScanErr  error
	StoreErr error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("scan cycle failed: scan: %v; store: %v", e.ScanErr, e.StoreErr)
}

// CoordinatorConfig holds the scan cycle parameters.
type CoordinatorConfig struct {
	LookbackBlocks   uint64
	FreshnessHorizon time.Duration
	ExpiryHorizon    time.Duration
	TopLimit         int
	LockTTL          time.Duration
}

// Coordinator owns the scan cursor and drives one scan cycle at a time:
// maintenance (age + expire), range selection, event fetch, per-event
// processing, cursor advance, and summary reporting.
type Coordinator struct {
	cfg       CoordinatorConfig
	chain     domain.ChainReader
	store     domain.TokenStore
	cursors   domain.CursorStore
	processor *Processor
	cache     domain.SummaryCache // optional
	locks     domain.LockManager  // optional
	archiver  domain.Archiver     // optional
	notifier  *notify.Notifier    // optional
	logger    *slog.Logger
	now       func() time.Time
}

// WithNotifier attaches an operator alert channel for total cycle failures.
func (c *Coordinator) WithNotifier(n *notify.Notifier) *Coordinator {
	c.notifier = n
	return c
}

// NewCoordinator creates a Coordinator. cache, locks, and archiver may be
// nil; the corresponding steps are then skipped.
func NewCoordinator(
	cfg CoordinatorConfig,
	chain domain.ChainReader,
	store domain.TokenStore,
	cursors domain.CursorStore,
	processor *Processor,
	cache domain.SummaryCache,
	locks domain.LockManager,
	archiver domain.Archiver,
	logger *slog.Logger,
) *Coordinator {
	if cfg.TopLimit <= 0 {
		cfg.TopLimit = 50
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &Coordinator{
		cfg:       cfg,
		chain:     chain,
		store:     store,
		cursors:   cursors,
		processor: processor,
		cache:     cache,
		locks:     locks,
		archiver:  archiver,
		logger:    logger.With(slog.String("component", "scan_coordinator")),
		now:       time.Now,
	}
}

// RunCycle executes one scan cycle and returns its summary.
//
// Error contract: a nil error means a full cycle. A non-nil error with a
// populated summary means a degraded response (chain unreachable, tokens
// served from the store or cache; the cursor was not advanced, so the same
// range is retried next cycle). A *CycleError means total failure.
func (c *Coordinator) RunCycle(ctx context.Context) (domain.ScanSummary, error) {
	summary := domain.ScanSummary{
		CycleID:    uuid.NewString(),
		LastUpdate: c.now().UTC(),
	}

	if c.locks != nil {
		unlock, err := c.locks.Acquire(ctx, scanLockKey, c.cfg.LockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				// Another instance is mid-cycle; serve current data
				// without scanning.
				return c.degraded(ctx, summary, fmt.Errorf("scan already in flight: %w", err))
			}
			c.logger.Warn("scan lock unavailable, proceeding unlocked",
				slog.String("error", err.Error()),
			)
		} else {
			defer unlock()
		}
	}

	c.maintain(ctx)

	head, err := c.chain.HeadBlock(ctx)
	if err != nil {
		return c.degraded(ctx, summary, fmt.Errorf("%w: %v", domain.ErrChainUnavailable, err))
	}

	from, to, empty := c.selectRange(ctx, head)
	summary.BlocksScanned = fmt.Sprintf("%d-%d", from, to)
	if empty {
		return c.finish(ctx, summary)
	}

	events, err := c.chain.PoolCreatedEvents(ctx, from, to)
	if err != nil {
		return c.degraded(ctx, summary, fmt.Errorf("%w: %v", domain.ErrChainUnavailable, err))
	}
	summary.TotalEvents = len(events)

	for _, ev := range events {
		if c.processor.Process(ctx, ev) {
			summary.NewTokensFound++
		}
	}

	// Advance the cursor only now that fetch and processing completed
	// without an infrastructure failure. A persist error is logged and the
	// same range is simply rescanned next cycle; the upsert path makes the
	// rescan idempotent.
	if err := c.cursors.SetCursor(ctx, to); err != nil {
		c.logger.Warn("cursor persist failed, range will be rescanned",
			slog.Uint64("block", to),
			slog.String("error", err.Error()),
		)
	}

	c.logger.Info("scan cycle complete",
		slog.String("cycle_id", summary.CycleID),
		slog.String("blocks", summary.BlocksScanned),
		slog.Int("events", summary.TotalEvents),
		slog.Int("new_tokens", summary.NewTokensFound),
	)

	return c.finish(ctx, summary)
}

// maintain ages visible records, archives expired ones, and deletes them.
// Maintenance failures are logged but never abort the cycle.
func (c *Coordinator) maintain(ctx context.Context) {
	if aged, err := c.store.AgeAllWithin(ctx, c.cfg.FreshnessHorizon); err != nil {
		c.logger.Warn("age update failed", slog.String("error", err.Error()))
	} else if aged > 0 {
		c.logger.Debug("aged records", slog.Int64("count", aged))
	}

	if c.archiver != nil {
		if n, err := c.archiver.ArchiveExpired(ctx); err != nil {
			c.logger.Warn("archive failed, expiry proceeds anyway",
				slog.String("error", err.Error()),
			)
		} else if n > 0 {
			c.logger.Info("archived expired records", slog.Int("count", n))
		}
	}

	if expired, err := c.store.ExpireOlderThan(ctx, c.cfg.ExpiryHorizon); err != nil {
		c.logger.Warn("expiry failed", slog.String("error", err.Error()))
	} else if expired > 0 {
		c.logger.Info("expired records", slog.Int64("count", expired))
	}
}

// selectRange computes the block range for this cycle. With no cursor the
// last LookbackBlocks ending at head are scanned; otherwise cursor+1..head.
// empty is true when the head has not moved past the cursor.
func (c *Coordinator) selectRange(ctx context.Context, head uint64) (from, to uint64, empty bool) {
	cursor, ok, err := c.cursors.Cursor(ctx)
	if err != nil {
		c.logger.Warn("cursor read failed, falling back to lookback window",
			slog.String("error", err.Error()),
		)
		ok = false
	}

	if !ok {
		if head >= c.cfg.LookbackBlocks {
			return head - c.cfg.LookbackBlocks + 1, head, false
		}
		return 0, head, false
	}

	if head <= cursor {
		return head, head, true
	}
	return cursor + 1, head, false
}

// finish attaches the top-N query result to the summary and caches it.
func (c *Coordinator) finish(ctx context.Context, summary domain.ScanSummary) (domain.ScanSummary, error) {
	tokens, err := c.store.QueryTop(ctx, c.cfg.TopLimit, c.cfg.FreshnessHorizon)
	if err != nil {
		// The chain read succeeded but the store is gone: no data source
		// remains for this response.
		return domain.ScanSummary{}, &CycleError{
			ScanErr:  nil,
			StoreErr: fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err),
		}
	}
	summary.Tokens = tokens

	if c.cache != nil {
		if err := c.cache.SetSummary(ctx, summary); err != nil {
			c.logger.Warn("summary cache write failed", slog.String("error", err.Error()))
		}
	}
	return summary, nil
}

// degraded builds a best-effort response when the scan itself failed: the
// top-N query from the store, or the cached summary, or a total failure
// when neither source is reachable.
func (c *Coordinator) degraded(ctx context.Context, summary domain.ScanSummary, scanErr error) (domain.ScanSummary, error) {
	tokens, dbErr := c.store.QueryTop(ctx, c.cfg.TopLimit, c.cfg.FreshnessHorizon)
	if dbErr == nil {
		summary.Tokens = tokens
		c.logger.Warn("serving degraded response from store",
			slog.String("error", scanErr.Error()),
		)
		return summary, scanErr
	}

	if c.cache != nil {
		if cached, cacheErr := c.cache.GetSummary(ctx); cacheErr == nil {
			c.logger.Warn("serving degraded response from cache",
				slog.String("error", scanErr.Error()),
			)
			return cached, scanErr
		}
	}

	return domain.ScanSummary{}, &CycleError{
		ScanErr:  scanErr,
		StoreErr: fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, dbErr),
	}
}

// RunLoop runs scan cycles on the given interval until the context is
// cancelled. trigger, when non-nil, forces an immediate extra cycle.
func (c *Coordinator) RunLoop(ctx context.Context, interval time.Duration, trigger <-chan struct{}) error {
	runOnce := func() {
		if _, err := c.RunCycle(ctx); err != nil {
			c.logger.Error("scan cycle failed", slog.String("error", err.Error()))

			var cycleErr *CycleError
			if errors.As(err, &cycleErr) && c.notifier != nil {
				if nerr := c.notifier.Notify(ctx, notify.EventScanFailed,
					"Scan cycle failed", cycleErr.Error()); nerr != nil {
					c.logger.Warn("failure alert not delivered", slog.String("error", nerr.Error()))
				}
			}
		}
	}

	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("scan loop stopped")
			return ctx.Err()
		case <-ticker.C:
			runOnce()
		case <-trigger:
			runOnce()
		}
	}
}
