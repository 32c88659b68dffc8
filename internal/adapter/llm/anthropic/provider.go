package anthropic

import (
	"context"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

// Provider adapts the Anthropic HTTP client to the review completion port.
// The Messages API has no frequency or presence penalty knobs, so those
// request fields are ignored here.
type Provider struct {
	client  *HTTPClient
	pricing llmhttp.Pricing
}

var _ review.Provider = (*Provider)(nil)

// NewProvider creates an Anthropic-backed completion provider.
func NewProvider(apiKey, model string) *Provider {
	return &Provider{
		client:  NewHTTPClient(apiKey, model),
		pricing: llmhttp.NewDefaultPricing(),
	}
}

// Client exposes the underlying HTTP client for configuration.
func (p *Provider) Client() *HTTPClient {
	return p.client
}

// SetPricing overrides the pricing table.
func (p *Provider) SetPricing(pricing llmhttp.Pricing) {
	p.pricing = pricing
}

// Complete implements review.Provider.
func (p *Provider) Complete(ctx context.Context, req review.CompletionRequest) (review.Completion, error) {
	resp, err := p.client.Call(ctx, req.Prompt, CallOptions{
		System:      req.System,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return review.Completion{}, err
	}

	return review.Completion{
		Text:      resp.Text,
		Model:     resp.Model,
		TokensIn:  resp.TokensIn,
		TokensOut: resp.TokensOut,
		Cost:      p.pricing.GetCost("anthropic", resp.Model, resp.TokensIn, resp.TokensOut),
	}, nil
}

// Name implements review.Provider.
func (p *Provider) Name() string {
	return "anthropic"
}

// Model implements review.Provider.
func (p *Provider) Model() string {
	return p.client.Model()
}
