package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pr-reviewer/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "claude-3-5-sonnet-20240620", cfg.Review.Model)
	assert.Equal(t, 0.2, cfg.Review.Temperature)
	assert.True(t, cfg.Review.CommentPerFile)
	assert.False(t, cfg.Review.ReviewPerFile)
	assert.False(t, cfg.Review.Blocking)
	assert.Equal(t, 4000, cfg.Review.MaxTokens)
	assert.Equal(t, 256, cfg.Review.MinResponseTokens)
	assert.Equal(t, "github-actions", cfg.GitHub.BotPrefix)
	assert.Equal(t, "60s", cfg.HTTP.Timeout)
	assert.Equal(t, 5, cfg.HTTP.MaxRetries)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.RedactAPIKeys)
}

func TestLoadBindsActionEnvironment(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghs_abc")
	t.Setenv("GITHUB_EVENT_PATH", "/github/workflow/event.json")
	t.Setenv("GITHUB_REPOSITORY", "acme/widgets")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("OPENAI_API_BASE", "https://proxy.example.com")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "ghs_abc", cfg.GitHub.Token)
	assert.Equal(t, "/github/workflow/event.json", cfg.GitHub.EventPath)
	assert.Equal(t, "acme/widgets", cfg.GitHub.Repository)
	assert.Equal(t, "sk-openai", cfg.Providers["openai"].APIKey)
	assert.Equal(t, "https://proxy.example.com", cfg.Providers["openai"].BaseURL)
	assert.Equal(t, "sk-ant", cfg.Providers["anthropic"].APIKey)
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
review:
  model: gpt-4o
  temperature: 0.3
  blocking: true
store:
  enabled: true
  path: /tmp/reviews.db
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewer.yaml"), []byte(content), 0o600))

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Review.Model)
	assert.Equal(t, 0.3, cfg.Review.Temperature)
	assert.True(t, cfg.Review.Blocking)
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, "/tmp/reviews.db", cfg.Store.Path)
	// Untouched values keep their defaults.
	assert.Equal(t, 4000, cfg.Review.MaxTokens)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("REVIEWER_TEST_KEY", "expanded-secret")

	dir := t.TempDir()
	content := `
providers:
  openai:
    apiKey: ${REVIEWER_TEST_KEY}
output:
  directory: $REVIEWER_TEST_KEY
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewer.yaml"), []byte(content), 0o600))

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "expanded-secret", cfg.Providers["openai"].APIKey)
	assert.Equal(t, "expanded-secret", cfg.Output.Directory)
}

func TestLoadKeepsUnknownEnvReference(t *testing.T) {
	dir := t.TempDir()
	content := `
providers:
  openai:
    apiKey: ${REVIEWER_UNSET_VAR}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewer.yaml"), []byte(content), 0o600))

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "${REVIEWER_UNSET_VAR}", cfg.Providers["openai"].APIKey)
}
