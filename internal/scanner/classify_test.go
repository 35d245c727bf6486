package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		feeTier     int
		hookPayload []byte
		want        domain.TokenType
	}{
		{"base app fee tier", 3000, nil, domain.TokenTypeBaseApp},
		{"zora fee tier", 10000, nil, domain.TokenTypeZora},
		{"hooked pool", 500, []byte{0x01}, domain.TokenTypeHooked},
		{"plain pool", 500, nil, domain.TokenTypeStandard},
		{"zero fee", 0, nil, domain.TokenTypeStandard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.feeTier, tc.hookPayload))
		})
	}
}

func TestClassify_FeeRuleBeatsHookRule(t *testing.T) {
	// A hooked pool on a platform fee tier classifies by the fee tier.
	assert.Equal(t, domain.TokenTypeBaseApp, Classify(3000, []byte{0xde, 0xad}))
	assert.Equal(t, domain.TokenTypeZora, Classify(10000, []byte{0xbe, 0xef}))
}
