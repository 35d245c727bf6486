package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/poolscout/internal/domain"
	"github.com/alanyoungcy/poolscout/internal/store/memory"
)

type fakeChain struct {
	fakeReader

	head    uint64
	headErr error

	events    []domain.PoolCreatedEvent
	eventsErr error

	// recorded arguments of the last PoolCreatedEvents call.
	calledFrom, calledTo uint64
	eventCalls           int
}

func (f *fakeChain) HeadBlock(context.Context) (uint64, error) {
	return f.head, f.headErr
}

func (f *fakeChain) PoolCreatedEvents(_ context.Context, from, to uint64) ([]domain.PoolCreatedEvent, error) {
	f.eventCalls++
	f.calledFrom, f.calledTo = from, to
	return f.events, f.eventsErr
}

type brokenStore struct{}

func (brokenStore) Upsert(context.Context, domain.TokenRecord) (domain.TokenRecord, error) {
	return domain.TokenRecord{}, domain.ErrStoreUnavailable
}
func (brokenStore) Exists(context.Context, string, time.Duration) (bool, error) {
	return false, domain.ErrStoreUnavailable
}
func (brokenStore) QueryTop(context.Context, int, time.Duration) ([]domain.TokenRecord, error) {
	return nil, domain.ErrStoreUnavailable
}
func (brokenStore) AgeAllWithin(context.Context, time.Duration) (int64, error) {
	return 0, domain.ErrStoreUnavailable
}
func (brokenStore) ListOlderThan(context.Context, time.Duration) ([]domain.TokenRecord, error) {
	return nil, domain.ErrStoreUnavailable
}
func (brokenStore) ExpireOlderThan(context.Context, time.Duration) (int64, error) {
	return 0, domain.ErrStoreUnavailable
}

type fakeArchiver struct {
	archived int
	err      error
	calls    int
}

func (f *fakeArchiver) ArchiveExpired(context.Context) (int, error) {
	f.calls++
	return f.archived, f.err
}

type heldLocks struct{}

func (heldLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, domain.ErrLockHeld
}

func newTestCoordinator(chain domain.ChainReader, store domain.TokenStore, cursors domain.CursorStore, opts ...func(*Coordinator)) *Coordinator {
	proc := newTestProcessor(store, &fakeReader{name: "Dragon Coin", symbol: "DRGN"}, &fakeMarket{
		snap: domain.MarketSnapshot{LiquidityUSD: 6_000},
	})
	c := NewCoordinator(
		CoordinatorConfig{
			LookbackBlocks:   50,
			FreshnessHorizon: 2 * time.Hour,
			ExpiryHorizon:    4 * time.Hour,
			TopLimit:         50,
			LockTTL:          30 * time.Second,
		},
		chain, store, cursors, proc, nil, nil, nil, testLogger(),
	)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func TestCoordinator_FirstCycleUsesLookbackWindow(t *testing.T) {
	chain := &fakeChain{head: 150}
	cursors := memory.NewCursorStore()
	c := newTestCoordinator(chain, memory.NewTokenStore(), cursors)

	summary, err := c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "101-150", summary.BlocksScanned)
	assert.Equal(t, uint64(101), chain.calledFrom)
	assert.Equal(t, uint64(150), chain.calledTo)

	block, ok, err := cursors.Cursor(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(150), block)
}

func TestCoordinator_ResumesFromCursor(t *testing.T) {
	chain := &fakeChain{
		head: 150,
		events: []domain.PoolCreatedEvent{
			wethPairEvent("0x7777777777777777777777777777777777777777"),
		},
	}
	cursors := memory.NewCursorStore()
	require.NoError(t, cursors.SetCursor(context.Background(), 100))

	c := newTestCoordinator(chain, memory.NewTokenStore(), cursors)
	summary, err := c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(101), chain.calledFrom)
	assert.Equal(t, uint64(150), chain.calledTo)
	assert.Equal(t, 1, summary.TotalEvents)
	assert.Equal(t, 1, summary.NewTokensFound)
	assert.Len(t, summary.Tokens, 1)

	block, _, err := cursors.Cursor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(150), block)
}

func TestCoordinator_HeadNotMovedSkipsFetch(t *testing.T) {
	chain := &fakeChain{head: 150}
	cursors := memory.NewCursorStore()
	require.NoError(t, cursors.SetCursor(context.Background(), 150))

	c := newTestCoordinator(chain, memory.NewTokenStore(), cursors)
	summary, err := c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Zero(t, chain.eventCalls, "no events fetched for an empty range")
	assert.Equal(t, 0, summary.TotalEvents)

	block, _, err := cursors.Cursor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(150), block, "cursor unchanged")
}

func TestCoordinator_ChainDownServesDegraded(t *testing.T) {
	chain := &fakeChain{headErr: errors.New("rpc timeout")}
	store := memory.NewTokenStore()
	_, err := store.Upsert(context.Background(), domain.TokenRecord{
		Address:    "0x8888888888888888888888888888888888888888",
		Symbol:     "DRGN",
		Score:      18,
		DetectedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	cursors := memory.NewCursorStore()
	require.NoError(t, cursors.SetCursor(context.Background(), 100))

	c := newTestCoordinator(chain, store, cursors)
	summary, err := c.RunCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChainUnavailable)
	assert.Len(t, summary.Tokens, 1, "degraded summary still carries stored tokens")

	block, _, err := cursors.Cursor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), block, "cursor not advanced on a failed scan")
}

func TestCoordinator_ChainAndStoreDownIsCycleError(t *testing.T) {
	chain := &fakeChain{headErr: errors.New("rpc timeout")}
	c := newTestCoordinator(chain, brokenStore{}, memory.NewCursorStore())

	summary, err := c.RunCycle(context.Background())
	require.Error(t, err)

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.ErrorIs(t, cycleErr.ScanErr, domain.ErrChainUnavailable)
	assert.ErrorIs(t, cycleErr.StoreErr, domain.ErrStoreUnavailable)
	assert.Empty(t, summary.Tokens)
}

func TestCoordinator_LockHeldServesDegraded(t *testing.T) {
	chain := &fakeChain{head: 150}
	c := newTestCoordinator(chain, memory.NewTokenStore(), memory.NewCursorStore(),
		func(c *Coordinator) { c.locks = heldLocks{} })

	_, err := c.RunCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLockHeld)
	assert.Zero(t, chain.eventCalls, "a held lock means no scan")
}

func TestCoordinator_MaintenanceAgesAndExpires(t *testing.T) {
	store := memory.NewTokenStore()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }

	seed := func(addr string, age time.Duration) {
		_, err := store.Upsert(context.Background(), domain.TokenRecord{
			Address:    addr,
			Symbol:     "DRGN",
			DetectedAt: now.Add(-age),
		})
		require.NoError(t, err)
	}
	seed("0x9999999999999999999999999999999999999999", 90*time.Minute) // fresh
	seed("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 5*time.Hour)    // expired

	archiver := &fakeArchiver{archived: 1}
	c := newTestCoordinator(&fakeChain{head: 150}, store, memory.NewCursorStore(),
		func(c *Coordinator) { c.archiver = archiver })

	_, err := c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, archiver.calls)
	assert.Equal(t, 1, store.Len(), "expired record deleted")

	rec, ok := store.Get("0x9999999999999999999999999999999999999999")
	require.True(t, ok)
	assert.Equal(t, 90, rec.AgeMinutes)
}

func TestCoordinator_ArchiveFailureDoesNotBlockExpiry(t *testing.T) {
	store := memory.NewTokenStore()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }

	_, err := store.Upsert(context.Background(), domain.TokenRecord{
		Address:    "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		DetectedAt: now.Add(-6 * time.Hour),
	})
	require.NoError(t, err)

	archiver := &fakeArchiver{err: errors.New("bucket gone")}
	c := newTestCoordinator(&fakeChain{head: 150}, store, memory.NewCursorStore(),
		func(c *Coordinator) { c.archiver = archiver })

	_, err = c.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len(), "expiry ran despite the archive failure")
}
