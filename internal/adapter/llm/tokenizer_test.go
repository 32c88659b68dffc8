package llm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bkyoung/pr-reviewer/internal/adapter/llm"
)

func TestEstimateTokens(t *testing.T) {
	assert.Zero(t, llm.EstimateTokens(""))

	small := llm.EstimateTokens("hello world")
	assert.Greater(t, small, 0)
	assert.LessOrEqual(t, small, 5)

	// Token counts grow with input size.
	large := llm.EstimateTokens(strings.Repeat("func main() {}\n", 200))
	assert.Greater(t, large, small)
}
