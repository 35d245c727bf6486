package scanner

import "github.com/alanyoungcy/poolscout/internal/domain"

// Fee tiers with a known platform association. Fee rules take precedence
// over the hook-payload rule.
const (
	feeTierBaseApp = 3000
	feeTierZora    = 10000
)

// Classify maps a pool's fee tier and hook payload to a token category.
// First match wins: fee 3000 pools are Base app launches, fee 10000 pools
// are Zora creator coins, any other pool with hook data is HOOKED, and the
// rest are STANDARD.
func Classify(feeTier int, hookPayload []byte) domain.TokenType {
	switch {
	case feeTier == feeTierBaseApp:
		return domain.TokenTypeBaseApp
	case feeTier == feeTierZora:
		return domain.TokenTypeZora
	case len(hookPayload) > 0:
		return domain.TokenTypeHooked
	default:
		return domain.TokenTypeStandard
	}
}
