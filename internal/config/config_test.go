package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bkyoung/pr-reviewer/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Providers: map[string]config.ProviderConfig{
			"openai":    {APIKey: "sk-test"},
			"anthropic": {APIKey: "sk-ant-test"},
		},
		GitHub: config.GitHubConfig{
			Token:      "ghs_token",
			Repository: "acme/widgets",
		},
		Review: config.ReviewConfig{
			Model:             "gpt-4o",
			MaxTokens:         4000,
			MinResponseTokens: 256,
		},
	}
}

func TestProviderForModel(t *testing.T) {
	assert.Equal(t, "anthropic", config.ProviderForModel("claude-3-5-sonnet-20240620"))
	assert.Equal(t, "anthropic", config.ProviderForModel("Claude-3-Opus"))
	assert.Equal(t, "openai", config.ProviderForModel("gpt-4o"))
	assert.Equal(t, "openai", config.ProviderForModel("o1-mini"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_MissingToken(t *testing.T) {
	cfg := validConfig()
	cfg.GitHub.Token = ""
	assert.ErrorContains(t, cfg.Validate(), "GITHUB_TOKEN")
}

func TestValidate_MissingProviderKey(t *testing.T) {
	cfg := validConfig()
	cfg.Review.Model = "claude-3-5-sonnet-20240620"
	cfg.Providers["anthropic"] = config.ProviderConfig{}
	assert.ErrorContains(t, cfg.Validate(), "anthropic")

	// The other provider's key does not satisfy the selected model.
	cfg.Providers["openai"] = config.ProviderConfig{APIKey: "sk-test"}
	assert.Error(t, cfg.Validate())
}

func TestValidate_TokenBudget(t *testing.T) {
	cfg := validConfig()
	cfg.Review.MaxTokens = 200
	cfg.Review.MinResponseTokens = 256
	assert.ErrorContains(t, cfg.Validate(), "maxTokens")
}

func TestValidateLocal_NoGitHubTokenNeeded(t *testing.T) {
	cfg := validConfig()
	cfg.GitHub.Token = ""
	assert.NoError(t, cfg.ValidateLocal())
}

func TestPromptBudget(t *testing.T) {
	r := config.ReviewConfig{MaxTokens: 4000, MinResponseTokens: 256}
	assert.Equal(t, 3744, r.PromptBudget())
}

func TestGitHubOwnerRepo(t *testing.T) {
	g := config.GitHubConfig{Repository: "acme/widgets"}
	assert.Equal(t, "acme", g.Owner())
	assert.Equal(t, "widgets", g.Repo())

	empty := config.GitHubConfig{}
	assert.Empty(t, empty.Owner())
	assert.Empty(t, empty.Repo())
}
