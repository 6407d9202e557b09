// Package costcontrol provides model pricing and cost estimation.
//
// DESIGN: The pipeline estimates a cost before asking the budget gate whether
// it may run, then reports the actual cost afterwards. Both sides use the
// pricing table here. Unknown models fall back to conservative (expensive)
// pricing so a missing table entry can never cause silent overspend.
package costcontrol

import "strings"

// ModelPricing holds per-million-token pricing for a model.
type ModelPricing struct {
	InputPerMTok  float64 // USD per million input tokens
	OutputPerMTok float64 // USD per million output tokens
}

// modelPricingTable maps exact model identifiers to pricing.
var modelPricingTable = map[string]ModelPricing{
	"claude-opus-4-6":            {InputPerMTok: 5, OutputPerMTok: 25},
	"claude-sonnet-4-5":          {InputPerMTok: 3, OutputPerMTok: 15},
	"claude-sonnet-4-5-20250929": {InputPerMTok: 3, OutputPerMTok: 15},
	"claude-haiku-4-5":           {InputPerMTok: 1, OutputPerMTok: 5},
	"claude-haiku-4-5-20251001":  {InputPerMTok: 1, OutputPerMTok: 5},
	"claude-3-5-haiku-20241022":  {InputPerMTok: 1, OutputPerMTok: 5},

	"gpt-4o":      {InputPerMTok: 2.5, OutputPerMTok: 10},
	"gpt-4o-mini": {InputPerMTok: 0.15, OutputPerMTok: 0.60},
}

// modelFamilyPricing maps model family prefixes to pricing. Lookup takes the
// longest matching prefix so a dated identifier resolves to its exact family.
var modelFamilyPricing = map[string]ModelPricing{
	"claude-opus-4-6":   {InputPerMTok: 5, OutputPerMTok: 25},
	"claude-sonnet-4-5": {InputPerMTok: 3, OutputPerMTok: 15},
	"claude-haiku-4-5":  {InputPerMTok: 1, OutputPerMTok: 5},

	"claude-opus":   {InputPerMTok: 15, OutputPerMTok: 75},
	"claude-sonnet": {InputPerMTok: 3, OutputPerMTok: 15},
	"claude-haiku":  {InputPerMTok: 1, OutputPerMTok: 5},
	"gpt-4o-mini":   {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"gpt-4o":        {InputPerMTok: 2.5, OutputPerMTok: 10},
	"gpt-4":         {InputPerMTok: 10, OutputPerMTok: 30},
}

// defaultPricing is used for unknown models.
var defaultPricing = ModelPricing{InputPerMTok: 15, OutputPerMTok: 75}

// GetModelPricing returns pricing for a model: exact match, then longest
// family prefix, then the conservative default.
func GetModelPricing(model string) ModelPricing {
	if p, ok := modelPricingTable[model]; ok {
		return p
	}

	bestPrefix := ""
	var bestPricing ModelPricing
	for prefix, p := range modelFamilyPricing {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
			bestPricing = p
		}
	}
	if bestPrefix != "" {
		return bestPricing
	}
	return defaultPricing
}

// CalculateCost computes the cost in USD from token counts.
func CalculateCost(inputTokens, outputTokens int, pricing ModelPricing) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * pricing.InputPerMTok
	outputCost := float64(outputTokens) / 1_000_000 * pricing.OutputPerMTok
	return inputCost + outputCost
}
