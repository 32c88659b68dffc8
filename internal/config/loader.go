package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
}

// Load returns the merged configuration from an optional YAML file, the
// environment, and defaults. Environment variables use the names the GitHub
// Action contract defines (GITHUB_TOKEN, OPENAI_API_KEY, ...).
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "reviewer"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	bindActionEnv(v)
	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg = expandEnvVars(cfg)

	return cfg, nil
}

// bindActionEnv maps the Action's environment contract onto config keys.
func bindActionEnv(v *viper.Viper) {
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.eventPath", "GITHUB_EVENT_PATH")
	v.BindEnv("github.repository", "GITHUB_REPOSITORY")
	v.BindEnv("providers.openai.apiKey", "OPENAI_API_KEY")
	v.BindEnv("providers.openai.baseURL", "OPENAI_API_BASE")
	v.BindEnv("providers.anthropic.apiKey", "ANTHROPIC_API_KEY")
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	for name, provider := range cfg.Providers {
		provider.APIKey = expandEnvString(provider.APIKey)
		provider.BaseURL = expandEnvString(provider.BaseURL)
		cfg.Providers[name] = provider
	}

	cfg.HTTP.Timeout = expandEnvString(cfg.HTTP.Timeout)
	cfg.HTTP.InitialBackoff = expandEnvString(cfg.HTTP.InitialBackoff)
	cfg.HTTP.MaxBackoff = expandEnvString(cfg.HTTP.MaxBackoff)

	cfg.GitHub.Token = expandEnvString(cfg.GitHub.Token)
	cfg.Git.RepositoryDir = expandEnvString(cfg.Git.RepositoryDir)
	cfg.Output.Directory = expandEnvString(cfg.Output.Directory)
	cfg.Store.Path = expandEnvString(cfg.Store.Path)
	cfg.Logging.Level = expandEnvString(cfg.Logging.Level)
	cfg.Logging.Format = expandEnvString(cfg.Logging.Format)

	return cfg
}

// expandEnvString replaces ${VAR} or $VAR with environment variable values.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	re := regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	// HTTP defaults
	v.SetDefault("http.timeout", "60s")
	v.SetDefault("http.maxRetries", 5)
	v.SetDefault("http.initialBackoff", "2s")
	v.SetDefault("http.maxBackoff", "32s")
	v.SetDefault("http.backoffMultiplier", 2.0)

	// GitHub defaults
	v.SetDefault("github.botPrefix", "github-actions")

	// Review defaults match the action descriptor
	v.SetDefault("review.model", "claude-3-5-sonnet-20240620")
	v.SetDefault("review.temperature", 0.2)
	v.SetDefault("review.frequencyPenalty", 0)
	v.SetDefault("review.presencePenalty", 0)
	v.SetDefault("review.reviewPerFile", false)
	v.SetDefault("review.commentPerFile", true)
	v.SetDefault("review.blocking", false)
	v.SetDefault("review.maxTokens", 4000)
	v.SetDefault("review.minResponseTokens", 256)

	// Local mode defaults
	v.SetDefault("git.repositoryDir", ".")
	v.SetDefault("output.directory", "out")

	// Store defaults: disabled unless a deployment mounts a persistent
	// volume for it.
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.path", defaultStorePath())

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "auto")
	v.SetDefault("logging.redactAPIKeys", true)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./reviews.db"
	}
	return filepath.Join(home, ".config", "reviewer", "reviews.db")
}
