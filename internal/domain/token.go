// Package domain defines the core types, store interfaces, and sentinel
// errors shared across the poolscout pipeline.
package domain

import (
	"strings"
	"time"
)

// TokenType classifies a token by how its pool was configured at creation.
type TokenType string

const (
	TokenTypeStandard TokenType = "STANDARD"
	TokenTypeHooked   TokenType = "HOOKED"
	TokenTypeBaseApp  TokenType = "BASE_APP"
	TokenTypeZora     TokenType = "ZORA"
	TokenTypeUnknown  TokenType = "UNKNOWN"
)

const (
	// MaxSymbolLen is the longest symbol accepted at metadata resolution.
	MaxSymbolLen = 20
	// MaxNameLen is the longest name accepted at metadata resolution.
	MaxNameLen = 100
	// MaxScore is the upper bound of the opportunity score.
	MaxScore = 30
)

// TokenRecord is the unit of persisted state: one live record per
// normalized (lower-cased) address.
type TokenRecord struct {
	Address        string    `json:"address"`
	Symbol         string    `json:"symbol"`
	Name           string    `json:"name"`
	PoolID         string    `json:"poolId"`
	Score          int       `json:"score"`
	LiquidityUSD   float64   `json:"liquidityUsd"`
	Price          float64   `json:"price"`
	PriceChangePct float64   `json:"priceChangePercent"`
	MarketCap      float64   `json:"marketCap"`
	Volume24h      float64   `json:"volume24h"`
	AgeMinutes     int       `json:"ageMinutes"`
	IsSpiking      bool      `json:"isSpiking"`
	TokenType      TokenType `json:"tokenType"`
	DetectedAt     time.Time `json:"detectedAt"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// NormalizeAddress canonicalizes a chain address for comparisons and storage.
// Addresses are compared case-insensitively everywhere; the lower-cased form
// is the storage key.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// SameAddress reports whether two addresses refer to the same account,
// ignoring case and surrounding whitespace.
func SameAddress(a, b string) bool {
	return NormalizeAddress(a) == NormalizeAddress(b)
}
