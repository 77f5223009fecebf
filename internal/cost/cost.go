// Package cost estimates spend on grounded-search calls. The API only
// reports a total token count, so the split between input and output
// tokens is approximated from observed usage.
package cost

// Rates prices a model per million tokens.
type Rates struct {
	InputPerMTok  float64
	OutputPerMTok float64
	// InputShare is the fraction of total tokens attributed to input.
	InputShare float64
}

// DefaultRates matches the published Gemini pricing with the observed
// 20/80 input/output split for enrichment prompts.
func DefaultRates() Rates {
	return Rates{
		InputPerMTok:  1.25,
		OutputPerMTok: 10.00,
		InputShare:    0.20,
	}
}

// Estimate returns the dollar cost of totalTokens under r.
func (r Rates) Estimate(totalTokens int) float64 {
	t := float64(totalTokens)
	input := t * r.InputShare
	output := t * (1 - r.InputShare)
	return input/1e6*r.InputPerMTok + output/1e6*r.OutputPerMTok
}
