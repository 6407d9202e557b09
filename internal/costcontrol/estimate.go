// Package costcontrol - estimate.go estimates event cost before the fact.
package costcontrol

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimateRatio is the approximate number of characters per token, used
// when no tokenizer encoding is available.
const TokenEstimateRatio = 4

// outputTokenFraction approximates generated-output length relative to the
// input when estimating a documentation event. Generation output for a file
// is typically much shorter than the file itself.
const outputTokenFraction = 0.25

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// EstimateTokens counts tokens in content with the cl100k_base encoding,
// falling back to the chars-per-token ratio if the encoding cannot be loaded
// (e.g. offline without a cached BPE file).
func EstimateTokens(content string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	if encoding == nil {
		return len(content) / TokenEstimateRatio
	}
	return len(encoding.Encode(content, nil, nil))
}

// EstimateCost predicts the USD cost of running one generation event over
// content with the given model.
func EstimateCost(content, model string) float64 {
	inputTokens := EstimateTokens(content)
	outputTokens := int(float64(inputTokens) * outputTokenFraction)
	return CalculateCost(inputTokens, outputTokens, GetModelPricing(model))
}
