package http_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
)

func TestDefaultPricing_KnownModels(t *testing.T) {
	pricing := llmhttp.NewDefaultPricing()

	// 1M input + 1M output at gpt-4o rates.
	cost := pricing.GetCost("openai", "gpt-4o", 1_000_000, 1_000_000)
	assert.InDelta(t, 12.50, cost, 0.001)

	cost = pricing.GetCost("anthropic", "claude-3-5-haiku", 500_000, 0)
	assert.InDelta(t, 0.40, cost, 0.001)
}

func TestDefaultPricing_DatedModelFallsBackToAlias(t *testing.T) {
	pricing := llmhttp.NewDefaultPricing()

	dated := pricing.GetCost("anthropic", "claude-3-5-sonnet-20240620", 1_000_000, 1_000_000)
	alias := pricing.GetCost("anthropic", "claude-3-5-sonnet", 1_000_000, 1_000_000)
	assert.Equal(t, alias, dated)
	assert.Greater(t, dated, 0.0)
}

func TestDefaultPricing_UnknownIsFree(t *testing.T) {
	pricing := llmhttp.NewDefaultPricing()

	assert.Zero(t, pricing.GetCost("openai", "totally-new-model", 1000, 1000))
	assert.Zero(t, pricing.GetCost("unknown-provider", "gpt-4o", 1000, 1000))
}

func TestDefaultPricing_ZeroTokens(t *testing.T) {
	pricing := llmhttp.NewDefaultPricing()
	assert.Zero(t, pricing.GetCost("openai", "gpt-4o", 0, 0))
}
