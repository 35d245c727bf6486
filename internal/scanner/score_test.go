package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

func TestScore_Bounds(t *testing.T) {
	best := Score(ScoreInput{AgeMinutes: 0, LiquidityUSD: 1_000_000, PriceChangePct: 500})
	assert.Equal(t, domain.MaxScore, best)

	worst := Score(ScoreInput{AgeMinutes: 600, LiquidityUSD: 0, PriceChangePct: -50})
	assert.Equal(t, 0, worst)
}

func TestScore_AgeBuckets(t *testing.T) {
	cases := []struct {
		age  int
		want int
	}{
		{0, 10},
		{4, 10},
		{5, 8},
		{14, 8},
		{15, 5},
		{29, 5},
		{30, 0},
		{120, 0},
	}
	for _, tc := range cases {
		got := Score(ScoreInput{AgeMinutes: tc.age})
		assert.Equal(t, tc.want, got, "age %d", tc.age)
	}
}

func TestScore_LiquidityBuckets(t *testing.T) {
	cases := []struct {
		liquidity float64
		want      int
	}{
		{25_000, 10},
		{20_000, 8}, // boundary is exclusive
		{12_000, 8},
		{10_000, 6},
		{6_000, 6},
		{5_000, 3},
		{2_500, 3},
		{2_000, 0},
		{0, 0},
	}
	for _, tc := range cases {
		got := Score(ScoreInput{AgeMinutes: 60, LiquidityUSD: tc.liquidity})
		assert.Equal(t, tc.want, got, "liquidity %.0f", tc.liquidity)
	}
}

func TestScore_MomentumBuckets(t *testing.T) {
	cases := []struct {
		momentum float64
		want     int
	}{
		{150, 10},
		{100, 8},
		{60, 8},
		{50, 6},
		{30, 6},
		{25, 3},
		{15, 3},
		{10, 0},
		{-20, 0},
	}
	for _, tc := range cases {
		got := Score(ScoreInput{AgeMinutes: 60, PriceChangePct: tc.momentum})
		assert.Equal(t, tc.want, got, "momentum %.0f", tc.momentum)
	}
}

func TestScore_Additive(t *testing.T) {
	// A fresh pool with mid-tier liquidity and strong momentum.
	got := Score(ScoreInput{AgeMinutes: 2, LiquidityUSD: 15_000, PriceChangePct: 60})
	assert.Equal(t, 26, got)

	// Same pool seen again half an hour later with faded momentum.
	later := Score(ScoreInput{AgeMinutes: 32, LiquidityUSD: 15_000, PriceChangePct: 20})
	assert.Equal(t, 11, later)
	assert.Less(t, later, got)
}
