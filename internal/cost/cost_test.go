package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	t.Parallel()

	r := DefaultRates()

	// 1M tokens: 200k input at $1.25/M + 800k output at $10/M.
	assert.InDelta(t, 0.2*1.25+0.8*10.0, r.Estimate(1_000_000), 1e-9)
	assert.InDelta(t, 0, r.Estimate(0), 1e-12)

	// Monotone in token count.
	assert.Greater(t, r.Estimate(10_000), r.Estimate(5_000))
}

func TestEstimateCustomRates(t *testing.T) {
	t.Parallel()

	r := Rates{InputPerMTok: 2, OutputPerMTok: 2, InputShare: 0.5}
	// Flat $2/M regardless of split.
	assert.InDelta(t, 2.0, r.Estimate(1_000_000), 1e-9)
}
