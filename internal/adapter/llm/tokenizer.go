// Package llm provides LLM provider adapters.
package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	defaultEncoder *tiktoken.Tiktoken
	encoderOnce    sync.Once
	encoderErr     error
)

// getEncoder returns the shared tiktoken encoder, initializing it lazily.
// Uses cl100k_base, which is exact for GPT-4-era models and a close enough
// approximation for Claude when budgeting diff size.
func getEncoder() (*tiktoken.Tiktoken, error) {
	encoderOnce.Do(func() {
		defaultEncoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return defaultEncoder, encoderErr
}

// EstimateTokens returns an estimated token count for the given text.
// Falls back to a character-based estimate if the encoder cannot load.
func EstimateTokens(text string) int {
	enc, err := getEncoder()
	if err != nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
