package domain

import "time"

// ScanSummary is the result of one scan cycle, served to API consumers and
// cached for degraded responses.
type ScanSummary struct {
	CycleID        string        `json:"cycleId"`
	Tokens         []TokenRecord `json:"tokens"`
	LastUpdate     time.Time     `json:"lastUpdate"`
	BlocksScanned  string        `json:"blocksScanned"`
	NewTokensFound int           `json:"newTokensFound"`
	TotalEvents    int           `json:"totalEvents"`
}
