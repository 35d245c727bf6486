package domain

import "context"

// MarketSnapshot carries the market metrics used to score a freshly
// discovered token. All quantities are non-negative.
type MarketSnapshot struct {
	LiquidityUSD   float64
	Price          float64
	PriceChangePct float64
	MarketCap      float64
	Volume24h      float64
}

// MarketDataSource supplies market metrics for a token address. The scanning
// pipeline treats this as an injected collaborator so the pipeline itself
// stays deterministic and testable.
type MarketDataSource interface {
	Snapshot(ctx context.Context, tokenAddress string) (MarketSnapshot, error)
}
