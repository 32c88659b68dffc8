// Package config loads and validates the reviewer configuration from an
// optional YAML file and the environment the GitHub Action provides.
package config

import (
	"fmt"
	"strings"
)

// Config represents the full application configuration.
type Config struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
	HTTP      HTTPConfig                `yaml:"http"`
	GitHub    GitHubConfig              `yaml:"github"`
	Review    ReviewConfig              `yaml:"review"`
	Git       GitConfig                 `yaml:"git"`
	Output    OutputConfig              `yaml:"output"`
	Store     StoreConfig               `yaml:"store"`
	Logging   LoggingConfig             `yaml:"logging"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	APIKey string `yaml:"apiKey"`

	// BaseURL overrides the provider endpoint (OPENAI_API_BASE style
	// proxies). Empty uses the provider default.
	BaseURL string `yaml:"baseURL"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// GitHubConfig carries the Actions runtime context.
type GitHubConfig struct {
	Token      string `yaml:"token"`
	EventPath  string `yaml:"eventPath"`
	Repository string `yaml:"repository"` // owner/repo

	// BotPrefix identifies previous bot comments for cleanup before a new
	// review posts.
	BotPrefix string `yaml:"botPrefix"`
}

// ReviewConfig configures review behavior.
type ReviewConfig struct {
	Model            string  `yaml:"model"`
	Temperature      float64 `yaml:"temperature"`
	FrequencyPenalty int     `yaml:"frequencyPenalty"`
	PresencePenalty  int     `yaml:"presencePenalty"`

	// ReviewPerFile requests one completion per changed file instead of a
	// single completion over the whole diff.
	ReviewPerFile bool `yaml:"reviewPerFile"`

	// CommentPerFile posts inline comments in addition to the PR summary.
	CommentPerFile bool `yaml:"commentPerFile"`

	// Blocking makes LLM failures fail the workflow run.
	Blocking bool `yaml:"blocking"`

	// MaxTokens is the total token budget shared between the prompt and
	// the response; MinResponseTokens is reserved for the response.
	MaxTokens         int `yaml:"maxTokens"`
	MinResponseTokens int `yaml:"minResponseTokens"`
}

// GitConfig configures local-mode diffing.
type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
}

// OutputConfig configures local-mode report output.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // json, human, auto
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}

// ProviderForModel selects the provider name a model belongs to.
func ProviderForModel(model string) string {
	if strings.HasPrefix(strings.ToLower(model), "claude") {
		return "anthropic"
	}
	return "openai"
}

// PromptBudget returns the token budget left for the prompt after
// reserving the response allowance.
func (r ReviewConfig) PromptBudget() int {
	return r.MaxTokens - r.MinResponseTokens
}

// Owner returns the repository owner, or empty when unset.
func (g GitHubConfig) Owner() string {
	owner, _, _ := strings.Cut(g.Repository, "/")
	return owner
}

// Repo returns the repository name, or empty when unset.
func (g GitHubConfig) Repo() string {
	_, repo, ok := strings.Cut(g.Repository, "/")
	if !ok {
		return ""
	}
	return repo
}

// Validate checks that the configuration can drive a review against GitHub.
func (c Config) Validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}
	return c.ValidateLocal()
}

// ValidateLocal checks the subset of configuration local mode needs.
func (c Config) ValidateLocal() error {
	if c.Review.Model == "" {
		return fmt.Errorf("model is required")
	}
	provider := ProviderForModel(c.Review.Model)
	if c.Providers[provider].APIKey == "" {
		return fmt.Errorf("no API key configured for provider %q (model %s)", provider, c.Review.Model)
	}
	if c.Review.MaxTokens <= c.Review.MinResponseTokens {
		return fmt.Errorf("maxTokens (%d) must exceed minResponseTokens (%d)",
			c.Review.MaxTokens, c.Review.MinResponseTokens)
	}
	return nil
}
