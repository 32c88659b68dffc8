package main

import (
	"testing"
	"time"

	"github.com/bkyoung/pr-reviewer/internal/adapter/llm/anthropic"
	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/adapter/llm/openai"
	"github.com/bkyoung/pr-reviewer/internal/config"
)

func TestBuildProvider(t *testing.T) {
	tests := []struct {
		name      string
		model     string
		providers map[string]config.ProviderConfig
		wantType  string
		wantErr   bool
	}{
		{
			name:      "claude model selects the anthropic provider",
			model:     "claude-3-5-sonnet-20240620",
			providers: map[string]config.ProviderConfig{"anthropic": {APIKey: "sk-ant"}},
			wantType:  "anthropic",
		},
		{
			name:      "gpt model selects the openai provider",
			model:     "gpt-4o",
			providers: map[string]config.ProviderConfig{"openai": {APIKey: "sk-openai"}},
			wantType:  "openai",
		},
		{
			name:      "reasoning model selects the openai provider",
			model:     "o1-mini",
			providers: map[string]config.ProviderConfig{"openai": {APIKey: "sk-openai"}},
			wantType:  "openai",
		},
		{
			name:      "missing API key for the selected provider",
			model:     "claude-3-5-sonnet-20240620",
			providers: map[string]config.ProviderConfig{"openai": {APIKey: "sk-openai"}},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{
				Providers: tt.providers,
				Review:    config.ReviewConfig{Model: tt.model},
				HTTP:      config.HTTPConfig{Timeout: "60s"},
			}

			provider, err := buildProvider(cfg, llmhttp.NewDefaultLogger(llmhttp.LogLevelError, llmhttp.LogFormatJSON, true))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildProvider failed: %v", err)
			}

			switch tt.wantType {
			case "anthropic":
				if _, ok := provider.(*anthropic.Provider); !ok {
					t.Fatalf("expected an anthropic provider, got %T", provider)
				}
			case "openai":
				if _, ok := provider.(*openai.Provider); !ok {
					t.Fatalf("expected an openai provider, got %T", provider)
				}
			}
			if provider.Model() != tt.model {
				t.Fatalf("expected model %s, got %s", tt.model, provider.Model())
			}
		})
	}
}

func TestRetryConfig(t *testing.T) {
	retry := retryConfig(config.HTTPConfig{
		MaxRetries:        3,
		InitialBackoff:    "1s",
		MaxBackoff:        "10s",
		BackoffMultiplier: 1.5,
	})

	if retry.MaxRetries != 3 {
		t.Fatalf("expected 3 retries, got %d", retry.MaxRetries)
	}
	if retry.InitialBackoff != time.Second {
		t.Fatalf("expected 1s initial backoff, got %v", retry.InitialBackoff)
	}
	if retry.MaxBackoff != 10*time.Second {
		t.Fatalf("expected 10s max backoff, got %v", retry.MaxBackoff)
	}
	if retry.Multiplier != 1.5 {
		t.Fatalf("expected multiplier 1.5, got %v", retry.Multiplier)
	}
}

func TestRetryConfigFallsBackToDefaults(t *testing.T) {
	retry := retryConfig(config.HTTPConfig{InitialBackoff: "not-a-duration"})

	want := llmhttp.DefaultRetryConfig()
	if retry != want {
		t.Fatalf("expected defaults %+v, got %+v", want, retry)
	}
}

func TestReviewOptions(t *testing.T) {
	cfg := config.Config{
		GitHub: config.GitHubConfig{
			Repository: "acme/widgets",
			BotPrefix:  "github-actions",
		},
		Review: config.ReviewConfig{
			Model:             "gpt-4o",
			Temperature:       0.3,
			MaxTokens:         4000,
			MinResponseTokens: 256,
			CommentPerFile:    true,
			Blocking:          true,
		},
	}

	opts := reviewOptions(cfg)
	if opts.Owner != "acme" || opts.Repo != "widgets" {
		t.Fatalf("expected acme/widgets, got %s/%s", opts.Owner, opts.Repo)
	}
	if opts.BotPrefix != "github-actions" {
		t.Fatalf("unexpected bot prefix %s", opts.BotPrefix)
	}
	if opts.MaxTokens != 4000 || opts.MinResponseTokens != 256 {
		t.Fatalf("unexpected token budget %d/%d", opts.MaxTokens, opts.MinResponseTokens)
	}
	if !opts.CommentPerFile || !opts.Blocking {
		t.Fatal("expected comment-per-file and blocking to carry over")
	}
}
