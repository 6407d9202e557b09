package costcontrol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetModelPricing_ExactMatch(t *testing.T) {
	p := GetModelPricing("claude-haiku-4-5")
	assert.Equal(t, 1.0, p.InputPerMTok)
	assert.Equal(t, 5.0, p.OutputPerMTok)
}

func TestGetModelPricing_LongestPrefixWins(t *testing.T) {
	// A dated identifier not in the exact table resolves to its family,
	// not to the shorter (and differently priced) generic prefix.
	p := GetModelPricing("claude-sonnet-4-5-20991231")
	assert.Equal(t, 3.0, p.InputPerMTok)

	p = GetModelPricing("gpt-4o-mini-2024-07-18")
	assert.Equal(t, 0.15, p.InputPerMTok)

	p = GetModelPricing("gpt-4-turbo")
	assert.Equal(t, 10.0, p.InputPerMTok)
}

func TestGetModelPricing_UnknownModelIsConservative(t *testing.T) {
	p := GetModelPricing("mystery-model-9000")
	assert.Equal(t, defaultPricing, p)

	// The fallback must never be cheaper than the known tables, otherwise a
	// missing entry could slip spend past the gate.
	for _, known := range modelPricingTable {
		assert.GreaterOrEqual(t, p.InputPerMTok, known.InputPerMTok)
		assert.GreaterOrEqual(t, p.OutputPerMTok, known.OutputPerMTok)
	}
}

func TestCalculateCost(t *testing.T) {
	p := ModelPricing{InputPerMTok: 3, OutputPerMTok: 15}
	assert.InDelta(t, 0.003+0.0015, CalculateCost(1000, 100, p), 1e-9)
	assert.Zero(t, CalculateCost(0, 0, p))
}

func TestEstimateTokens_NeverZeroForRealContent(t *testing.T) {
	content := strings.Repeat("documentation text ", 100)
	tokens := EstimateTokens(content)
	// Whether the tokenizer loads or the ratio fallback runs, the count must
	// land in a plausible band for ~1900 characters.
	assert.Greater(t, tokens, 100)
	assert.Less(t, tokens, 2000)
}

func TestEstimateCost_ScalesWithContent(t *testing.T) {
	small := EstimateCost(strings.Repeat("x ", 200), "claude-haiku-4-5")
	large := EstimateCost(strings.Repeat("x ", 20000), "claude-haiku-4-5")
	assert.Greater(t, large, small)

	// Same content, pricier model, higher estimate.
	haiku := EstimateCost(strings.Repeat("x ", 20000), "claude-haiku-4-5")
	opus := EstimateCost(strings.Repeat("x ", 20000), "claude-opus-4-6")
	assert.Greater(t, opus, haiku)
}
