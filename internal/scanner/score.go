// Package scanner implements the incremental chain-scanning and scoring
// pipeline: score computation, token classification, metadata resolution,
// per-event processing, and the scan cycle coordinator.
package scanner

import "github.com/alanyoungcy/poolscout/internal/domain"

// ScoreInput carries the three independent signals the score is built from.
type ScoreInput struct {
	AgeMinutes     int
	LiquidityUSD   float64
	PriceChangePct float64
}

// Score maps age, liquidity, and price momentum to an opportunity score in
// [0, 30]. Each sub-score is capped at 10; the total is clamped defensively
// even though the caps already bound it.
func Score(in ScoreInput) int {
	total := ageScore(in.AgeMinutes) + liquidityScore(in.LiquidityUSD) + momentumScore(in.PriceChangePct)
	if total > domain.MaxScore {
		total = domain.MaxScore
	}
	if total < 0 {
		total = 0
	}
	return total
}

// ageScore rewards recency: the newer the pool, the higher the score.
func ageScore(ageMinutes int) int {
	switch {
	case ageMinutes < 5:
		return 10
	case ageMinutes < 15:
		return 8
	case ageMinutes < 30:
		return 5
	default:
		return 0
	}
}

func liquidityScore(liquidityUSD float64) int {
	switch {
	case liquidityUSD > 20_000:
		return 10
	case liquidityUSD > 10_000:
		return 8
	case liquidityUSD > 5_000:
		return 6
	case liquidityUSD > 2_000:
		return 3
	default:
		return 0
	}
}

func momentumScore(priceChangePct float64) int {
	switch {
	case priceChangePct > 100:
		return 10
	case priceChangePct > 50:
		return 8
	case priceChangePct > 25:
		return 6
	case priceChangePct > 10:
		return 3
	default:
		return 0
	}
}
