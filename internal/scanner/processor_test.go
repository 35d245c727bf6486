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

const (
	testWETH = "0x4200000000000000000000000000000000000006"
	testUSDC = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
)

type fakeMarket struct {
	snap domain.MarketSnapshot
	err  error
}

func (f *fakeMarket) Snapshot(context.Context, string) (domain.MarketSnapshot, error) {
	return f.snap, f.err
}

func newTestProcessor(store domain.TokenStore, reader domain.MetadataReader, market domain.MarketDataSource) *Processor {
	return NewProcessor(
		ProcessorConfig{
			ReferenceBase:    testWETH,
			ReferenceQuote:   testUSDC,
			FreshnessHorizon: 2 * time.Hour,
			SpikingThreshold: 25,
		},
		store,
		NewMetadataResolver(reader, testLogger()),
		market,
		nil,
		nil,
		testLogger(),
	)
}

func wethPairEvent(token string) domain.PoolCreatedEvent {
	return domain.PoolCreatedEvent{
		PoolID:      "0xpool01",
		Currency0:   testWETH,
		Currency1:   token,
		FeeTier:     3000,
		BlockNumber: 1000,
	}
}

func TestProcessor_NewTokenRecorded(t *testing.T) {
	store := memory.NewTokenStore()
	market := &fakeMarket{snap: domain.MarketSnapshot{
		LiquidityUSD:   15_000,
		Price:          0.0042,
		PriceChangePct: 60,
		MarketCap:      150_000,
		Volume24h:      30_000,
	}}
	p := newTestProcessor(store, &fakeReader{name: "Dragon Coin", symbol: "DRGN", decimals: 18}, market)

	token := "0x1111111111111111111111111111111111111111"
	ok := p.Process(context.Background(), wethPairEvent(token))
	require.True(t, ok)

	rec, found := store.Get(token)
	require.True(t, found)
	assert.Equal(t, "DRGN", rec.Symbol)
	assert.Equal(t, "Dragon Coin", rec.Name)
	assert.Equal(t, "0xpool01", rec.PoolID)
	assert.Equal(t, domain.TokenTypeBaseApp, rec.TokenType)
	// Age 0 (10) + liquidity 15k (8) + momentum 60% (8).
	assert.Equal(t, 26, rec.Score)
	assert.True(t, rec.IsSpiking)
	assert.Equal(t, 0, rec.AgeMinutes)
	assert.False(t, rec.DetectedAt.IsZero())
}

func TestProcessor_IgnoresIrrelevantPools(t *testing.T) {
	store := memory.NewTokenStore()
	p := newTestProcessor(store, &fakeReader{name: "X", symbol: "X"}, &fakeMarket{})

	// Neither leg is a reference asset.
	ev := domain.PoolCreatedEvent{
		PoolID:    "0xpool02",
		Currency0: "0x2222222222222222222222222222222222222222",
		Currency1: "0x3333333333333333333333333333333333333333",
		FeeTier:   500,
	}
	assert.False(t, p.Process(context.Background(), ev))

	// Both legs are reference assets (WETH/USDC pool itself).
	ev = domain.PoolCreatedEvent{
		PoolID:    "0xpool03",
		Currency0: testWETH,
		Currency1: testUSDC,
		FeeTier:   500,
	}
	assert.False(t, p.Process(context.Background(), ev))

	assert.Equal(t, 0, store.Len())
}

func TestProcessor_DedupIsCaseInsensitive(t *testing.T) {
	store := memory.NewTokenStore()
	market := &fakeMarket{snap: domain.MarketSnapshot{LiquidityUSD: 6_000}}
	p := newTestProcessor(store, &fakeReader{name: "Dragon Coin", symbol: "DRGN"}, market)

	mixed := "0xAbCdEf1234567890aBcDeF1234567890ABCDEF12"
	require.True(t, p.Process(context.Background(), wethPairEvent(mixed)))

	lower := domain.NormalizeAddress(mixed)
	assert.False(t, p.Process(context.Background(), wethPairEvent(lower)))
	assert.Equal(t, 1, store.Len())
}

func TestProcessor_InvalidMetadataDiscarded(t *testing.T) {
	store := memory.NewTokenStore()
	reader := &fakeReader{name: "Spam", symbol: "WAYTOOLONGSYMBOLFORANERC20"}
	p := newTestProcessor(store, reader, &fakeMarket{})

	ok := p.Process(context.Background(), wethPairEvent("0x4444444444444444444444444444444444444444"))
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestProcessor_MarketFailureDiscarded(t *testing.T) {
	store := memory.NewTokenStore()
	market := &fakeMarket{err: errors.New("feed down")}
	p := newTestProcessor(store, &fakeReader{name: "Dragon Coin", symbol: "DRGN"}, market)

	ok := p.Process(context.Background(), wethPairEvent("0x5555555555555555555555555555555555555555"))
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestProcessor_StaleRecordNotReannounced(t *testing.T) {
	store := memory.NewTokenStore()
	market := &fakeMarket{snap: domain.MarketSnapshot{LiquidityUSD: 6_000}}
	p := newTestProcessor(store, &fakeReader{name: "Dragon Coin", symbol: "DRGN"}, market)

	token := "0x6666666666666666666666666666666666666666"

	// Seed a record older than the freshness horizon. The dedup check no
	// longer sees it, but the store still holds the row and keeps its
	// original detection time on conflict.
	_, err := store.Upsert(context.Background(), domain.TokenRecord{
		Address:    token,
		Symbol:     "DRGN",
		DetectedAt: time.Now().UTC().Add(-3 * time.Hour),
	})
	require.NoError(t, err)

	ok := p.Process(context.Background(), wethPairEvent(token))
	assert.False(t, ok, "an updated pre-existing row is not a discovery")
	assert.Equal(t, 1, store.Len())
}
