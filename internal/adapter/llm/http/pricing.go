package http

import "strings"

// Pricing calculates API cost from token usage.
type Pricing interface {
	// GetCost returns the USD cost for a request against the given model.
	GetCost(provider, model string, tokensIn, tokensOut int) float64
}

// ModelPricing holds per-million-token rates in USD.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// DefaultPricing provides cost calculation for the models the action
// descriptors offer. Unknown models price at zero rather than failing the
// review.
type DefaultPricing struct {
	prices map[string]map[string]ModelPricing
}

// NewDefaultPricing creates a pricing calculator with current rates.
func NewDefaultPricing() *DefaultPricing {
	return &DefaultPricing{prices: buildPricingTable()}
}

// GetCost calculates the cost for a given request. Dated model names fall
// back to their undated alias so API-reported names still price.
func (p *DefaultPricing) GetCost(provider, model string, tokensIn, tokensOut int) float64 {
	providerPrices, ok := p.prices[provider]
	if !ok {
		return 0.0
	}

	modelPrice, ok := providerPrices[model]
	if !ok {
		modelPrice, ok = matchPrefix(providerPrices, model)
		if !ok {
			return 0.0
		}
	}

	inputCost := float64(tokensIn) / 1_000_000.0 * modelPrice.InputPer1M
	outputCost := float64(tokensOut) / 1_000_000.0 * modelPrice.OutputPer1M
	return inputCost + outputCost
}

func matchPrefix(prices map[string]ModelPricing, model string) (ModelPricing, bool) {
	best := ""
	var result ModelPricing
	for name, price := range prices {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
			result = price
		}
	}
	return result, best != ""
}

// buildPricingTable returns per-model rates.
// Sources:
// - OpenAI: https://openai.com/api/pricing/
// - Anthropic: https://www.anthropic.com/pricing
func buildPricingTable() map[string]map[string]ModelPricing {
	return map[string]map[string]ModelPricing{
		"openai": {
			"gpt-3.5-turbo-1106": {InputPer1M: 1.00, OutputPer1M: 2.00},
			"gpt-4-1106-preview": {InputPer1M: 10.00, OutputPer1M: 30.00},
			"gpt-4-0125-preview": {InputPer1M: 10.00, OutputPer1M: 30.00},
			"gpt-4":              {InputPer1M: 30.00, OutputPer1M: 60.00},
			"gpt-4o":             {InputPer1M: 2.50, OutputPer1M: 10.00},
			"gpt-4o-mini":        {InputPer1M: 0.15, OutputPer1M: 0.60},
			"o1":                 {InputPer1M: 15.00, OutputPer1M: 60.00},
			"o1-mini":            {InputPer1M: 3.00, OutputPer1M: 12.00},
		},
		"anthropic": {
			"claude-3-5-sonnet": {InputPer1M: 3.00, OutputPer1M: 15.00},
			"claude-3-5-haiku":  {InputPer1M: 0.80, OutputPer1M: 4.00},
			"claude-3-opus":     {InputPer1M: 15.00, OutputPer1M: 75.00},
			"claude-3-haiku":    {InputPer1M: 0.25, OutputPer1M: 1.25},
		},
	}
}
