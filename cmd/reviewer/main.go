package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bkyoung/pr-reviewer/internal/adapter/cli"
	"github.com/bkyoung/pr-reviewer/internal/adapter/git"
	githubadapter "github.com/bkyoung/pr-reviewer/internal/adapter/github"
	"github.com/bkyoung/pr-reviewer/internal/adapter/llm/anthropic"
	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/adapter/llm/openai"
	"github.com/bkyoung/pr-reviewer/internal/adapter/observability"
	"github.com/bkyoung/pr-reviewer/internal/adapter/output/markdown"
	"github.com/bkyoung/pr-reviewer/internal/adapter/store/sqlite"
	"github.com/bkyoung/pr-reviewer/internal/config"
	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/bkyoung/pr-reviewer/internal/event"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
	"github.com/bkyoung/pr-reviewer/internal/version"
)

// Compile-time interface compliance checks.
var (
	_ review.Provider     = (*openai.Provider)(nil)
	_ review.Provider     = (*anthropic.Provider)(nil)
	_ review.GitHubClient = (*githubadapter.Client)(nil)
	_ review.GitEngine    = (*git.Engine)(nil)
	_ review.Store        = (*sqlite.Store)(nil)
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return
		}
		// Redact API keys from URLs in error messages before logging
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// A .env file is optional; the Actions runtime injects everything
	// through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "reviewer",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Config:   cfg,
		RunPR:    runPullRequestReview,
		RunLocal: runLocalReview,
		Version:  version.Value(),
	})
	return root.ExecuteContext(ctx)
}

// runPullRequestReview reviews the pull request named by the request or the
// Actions event payload and posts the results to GitHub.
func runPullRequestReview(ctx context.Context, cfg config.Config, req cli.PRRequest) error {
	logger := buildLogger(cfg.Logging)
	reviewLogger := observability.NewReviewLogger(logger)

	number := req.Number
	if number == 0 {
		payload, err := event.Load(cfg.GitHub.EventPath)
		if err != nil {
			return err
		}
		if eventType := payload.Type(); eventType != domain.EventTypePullRequest {
			reviewLogger.LogInfo(ctx, "event type not supported yet, skipping", map[string]interface{}{
				"type": string(eventType),
			})
			return nil
		}
		number = payload.PullRequestNumber()
		if number == 0 {
			return fmt.Errorf("event payload carries no pull request number")
		}
	}

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		return err
	}

	gh := githubadapter.NewClient(cfg.GitHub.Token)
	gh.SetRetryConfig(retryConfig(cfg.HTTP))
	if timeout, err := time.ParseDuration(cfg.HTTP.Timeout); err == nil {
		gh.SetTimeout(timeout)
	}

	store, closeStore := buildStore(cfg.Store)
	if closeStore != nil {
		defer closeStore()
	}

	orchestrator := review.NewOrchestrator(provider, gh, store, reviewLogger, reviewOptions(cfg))
	return orchestrator.ReviewPullRequest(ctx, number)
}

// runLocalReview diffs the working tree against a base ref and writes a
// Markdown report instead of posting to GitHub.
func runLocalReview(ctx context.Context, cfg config.Config, req cli.LocalRequest) error {
	logger := buildLogger(cfg.Logging)
	reviewLogger := observability.NewReviewLogger(logger)

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		return err
	}

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}
	engine := git.NewEngine(repoDir)

	writer := markdown.NewWriter(func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	})

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = cfg.Output.Directory
	}

	repository := cfg.GitHub.Repository
	if repository == "" {
		repository = repositoryName(repoDir)
	}

	local := review.NewLocalReviewer(provider, engine, writer, reviewLogger, reviewOptions(cfg), repository, outputDir)
	_, err = local.Review(ctx, req.BaseRef, req.DryRun)
	return err
}

// llmClient is the configuration surface both provider HTTP clients share.
type llmClient interface {
	SetBaseURL(url string)
	SetTimeout(timeout time.Duration)
	SetRetryConfig(cfg llmhttp.RetryConfig)
	SetLogger(logger llmhttp.Logger)
}

// buildProvider constructs the provider the configured model belongs to.
func buildProvider(cfg config.Config, logger llmhttp.Logger) (review.Provider, error) {
	name := config.ProviderForModel(cfg.Review.Model)
	providerCfg := cfg.Providers[name]
	if providerCfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q (model %s)", name, cfg.Review.Model)
	}

	var provider review.Provider
	var client llmClient
	switch name {
	case "anthropic":
		p := anthropic.NewProvider(providerCfg.APIKey, cfg.Review.Model)
		provider, client = p, p.Client()
	default:
		p := openai.NewProvider(providerCfg.APIKey, cfg.Review.Model)
		provider, client = p, p.Client()
	}

	if providerCfg.BaseURL != "" {
		client.SetBaseURL(providerCfg.BaseURL)
	}
	if timeout, err := time.ParseDuration(cfg.HTTP.Timeout); err == nil {
		client.SetTimeout(timeout)
	}
	client.SetRetryConfig(retryConfig(cfg.HTTP))
	client.SetLogger(logger)
	return provider, nil
}

// buildStore opens the run-history database when enabled. Store failures are
// warnings: the reviewer still works without history, it just re-reviews.
func buildStore(cfg config.StoreConfig) (review.Store, func()) {
	if !cfg.Enabled {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		log.Printf("warning: failed to create store directory: %v", err)
		return nil, nil
	}
	store, err := sqlite.NewStore(cfg.Path)
	if err != nil {
		log.Printf("warning: failed to initialize store: %v", err)
		return nil, nil
	}
	return store, func() {
		if err := store.Close(); err != nil {
			log.Printf("warning: failed to close store: %v", err)
		}
	}
}

func buildLogger(cfg config.LoggingConfig) llmhttp.Logger {
	level := llmhttp.LogLevelInfo
	switch cfg.Level {
	case "debug":
		level = llmhttp.LogLevelDebug
	case "error":
		level = llmhttp.LogLevelError
	}

	format := llmhttp.LogFormatJSON
	switch cfg.Format {
	case "human":
		format = llmhttp.LogFormatHuman
	case "json":
		format = llmhttp.LogFormatJSON
	default:
		// Inside the Actions runner stdout is a pipe, so auto picks the
		// machine-readable format there and the human one on a terminal.
		if review.IsOutputTerminal() {
			format = llmhttp.LogFormatHuman
		}
	}

	return llmhttp.NewDefaultLogger(level, format, cfg.RedactAPIKeys)
}

func retryConfig(cfg config.HTTPConfig) llmhttp.RetryConfig {
	retry := llmhttp.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxRetries = cfg.MaxRetries
	}
	if backoff, err := time.ParseDuration(cfg.InitialBackoff); err == nil && backoff > 0 {
		retry.InitialBackoff = backoff
	}
	if backoff, err := time.ParseDuration(cfg.MaxBackoff); err == nil && backoff > 0 {
		retry.MaxBackoff = backoff
	}
	if cfg.BackoffMultiplier > 0 {
		retry.Multiplier = cfg.BackoffMultiplier
	}
	return retry
}

func reviewOptions(cfg config.Config) review.Options {
	return review.Options{
		Owner:             cfg.GitHub.Owner(),
		Repo:              cfg.GitHub.Repo(),
		BotPrefix:         cfg.GitHub.BotPrefix,
		Temperature:       cfg.Review.Temperature,
		FrequencyPenalty:  cfg.Review.FrequencyPenalty,
		PresencePenalty:   cfg.Review.PresencePenalty,
		MaxTokens:         cfg.Review.MaxTokens,
		MinResponseTokens: cfg.Review.MinResponseTokens,
		ReviewPerFile:     cfg.Review.ReviewPerFile,
		CommentPerFile:    cfg.Review.CommentPerFile,
		Blocking:          cfg.Review.Blocking,
	}
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "reviewer"))
	}
	return paths
}

func repositoryName(repoDir string) string {
	abs, err := filepath.Abs(repoDir)
	if err != nil {
		return filepath.Base(repoDir)
	}
	return filepath.Base(abs)
}
