package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newFixedStore() *TokenStore {
	s := NewTokenStore()
	s.Now = func() time.Time { return fixedNow }
	return s
}

func seed(t *testing.T, s *TokenStore, addr string, score int, age time.Duration) {
	t.Helper()
	_, err := s.Upsert(context.Background(), domain.TokenRecord{
		Address:    addr,
		Symbol:     "TST",
		Score:      score,
		DetectedAt: fixedNow.Add(-age),
	})
	require.NoError(t, err)
}

func TestTokenStore_UpsertPreservesDetectedAt(t *testing.T) {
	s := newFixedStore()
	ctx := context.Background()

	first := fixedNow.Add(-30 * time.Minute)
	_, err := s.Upsert(ctx, domain.TokenRecord{
		Address:    "0xAbC0000000000000000000000000000000000001",
		Symbol:     "TST",
		Score:      10,
		DetectedAt: first,
	})
	require.NoError(t, err)

	// Same token rediscovered later, in different address case.
	stored, err := s.Upsert(ctx, domain.TokenRecord{
		Address:    "0xabc0000000000000000000000000000000000001",
		Symbol:     "TST",
		Score:      22,
		DetectedAt: fixedNow,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, first, stored.DetectedAt, "first-seen timestamp survives updates")
	assert.Equal(t, 22, stored.Score, "everything else is overwritten")
	assert.Equal(t, "0xabc0000000000000000000000000000000000001", stored.Address)
}

func TestTokenStore_UpsertRecomputesAgeOnUpdate(t *testing.T) {
	s := newFixedStore()
	ctx := context.Background()

	seed(t, s, "0x0000000000000000000000000000000000000001", 10, 90*time.Minute)

	// A rescan of the same pool submits age 0; the stored age must stay
	// derived from the kept detected_at rather than reset.
	stored, err := s.Upsert(ctx, domain.TokenRecord{
		Address:    "0x0000000000000000000000000000000000000001",
		Symbol:     "TST",
		Score:      5,
		AgeMinutes: 0,
		DetectedAt: fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, 90, stored.AgeMinutes)
}

func TestTokenStore_ExistsHonorsFreshness(t *testing.T) {
	s := newFixedStore()
	seed(t, s, "0x0000000000000000000000000000000000000001", 10, 90*time.Minute)

	fresh, err := s.Exists(context.Background(), "0x0000000000000000000000000000000000000001", 2*time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	stale, err := s.Exists(context.Background(), "0x0000000000000000000000000000000000000001", time.Hour)
	require.NoError(t, err)
	assert.False(t, stale, "outside the horizon the record is invisible")

	missing, err := s.Exists(context.Background(), "0x00000000000000000000000000000000000000ff", 2*time.Hour)
	require.NoError(t, err)
	assert.False(t, missing)
}

func TestTokenStore_QueryTopOrdering(t *testing.T) {
	s := newFixedStore()
	seed(t, s, "0x0000000000000000000000000000000000000001", 12, 60*time.Minute)
	seed(t, s, "0x0000000000000000000000000000000000000002", 26, 30*time.Minute)
	seed(t, s, "0x0000000000000000000000000000000000000003", 26, 10*time.Minute)
	seed(t, s, "0x0000000000000000000000000000000000000004", 30, 3*time.Hour) // stale

	got, err := s.QueryTop(context.Background(), 10, 2*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 3, "stale record excluded")

	// Score descending, newest first on ties.
	assert.Equal(t, "0x0000000000000000000000000000000000000003", got[0].Address)
	assert.Equal(t, "0x0000000000000000000000000000000000000002", got[1].Address)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", got[2].Address)

	limited, err := s.QueryTop(context.Background(), 2, 2*time.Hour)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestTokenStore_AgeAllWithin(t *testing.T) {
	s := newFixedStore()
	seed(t, s, "0x0000000000000000000000000000000000000001", 10, 90*time.Minute)
	seed(t, s, "0x0000000000000000000000000000000000000002", 10, 3*time.Hour)

	n, err := s.AgeAllWithin(context.Background(), 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only visible records are re-aged")

	rec, ok := s.Get("0x0000000000000000000000000000000000000001")
	require.True(t, ok)
	assert.Equal(t, 90, rec.AgeMinutes)

	stale, ok := s.Get("0x0000000000000000000000000000000000000002")
	require.True(t, ok)
	assert.Equal(t, 0, stale.AgeMinutes, "stale record untouched")
}

func TestTokenStore_Expiry(t *testing.T) {
	s := newFixedStore()
	seed(t, s, "0x0000000000000000000000000000000000000001", 10, time.Hour)
	seed(t, s, "0x0000000000000000000000000000000000000002", 10, 5*time.Hour)
	seed(t, s, "0x0000000000000000000000000000000000000003", 10, 6*time.Hour)

	old, err := s.ListOlderThan(context.Background(), 4*time.Hour)
	require.NoError(t, err)
	require.Len(t, old, 2)
	assert.Equal(t, "0x0000000000000000000000000000000000000003", old[0].Address, "oldest first")

	n, err := s.ExpireOlderThan(context.Background(), 4*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 1, s.Len())

	_, ok := s.Get("0x0000000000000000000000000000000000000001")
	assert.True(t, ok, "fresh record survives")
}

func TestCursorStore(t *testing.T) {
	s := NewCursorStore()
	ctx := context.Background()

	_, ok, err := s.Cursor(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "no cursor until one is set")

	require.NoError(t, s.SetCursor(ctx, 1234))

	block, ok, err := s.Cursor(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1234), block)
}
