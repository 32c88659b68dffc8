package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/bkyoung/pr-reviewer/internal/adapter/cli"
	"github.com/bkyoung/pr-reviewer/internal/config"
)

type runnerStub struct {
	prConfig    config.Config
	prRequest   cli.PRRequest
	prCalled    bool
	localConfig config.Config
	localReq    cli.LocalRequest
	localCalled bool
	err         error
}

func (r *runnerStub) runPR(ctx context.Context, cfg config.Config, req cli.PRRequest) error {
	r.prCalled = true
	r.prConfig = cfg
	r.prRequest = req
	return r.err
}

func (r *runnerStub) runLocal(ctx context.Context, cfg config.Config, req cli.LocalRequest) error {
	r.localCalled = true
	r.localConfig = cfg
	r.localReq = req
	return r.err
}

func testConfig() config.Config {
	return config.Config{
		Providers: map[string]config.ProviderConfig{
			"openai":    {APIKey: "sk-openai"},
			"anthropic": {APIKey: "sk-ant"},
		},
		GitHub: config.GitHubConfig{
			Token:      "ghs_token",
			Repository: "acme/widgets",
			BotPrefix:  "github-actions",
		},
		Review: config.ReviewConfig{
			Model:             "claude-3-5-sonnet-20240620",
			Temperature:       0.2,
			CommentPerFile:    true,
			MaxTokens:         4000,
			MinResponseTokens: 256,
		},
		Output: config.OutputConfig{Directory: "out"},
	}
}

func newRoot(stub *runnerStub) *cobra.Command {
	return cli.NewRootCommand(cli.Dependencies{
		Config:   testConfig(),
		RunPR:    stub.runPR,
		RunLocal: stub.runLocal,
		Args:     cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		Version:  "v1.2.3",
	})
}

func TestReviewPRCommandAppliesFlagOverrides(t *testing.T) {
	stub := &runnerStub{}
	root := newRoot(stub)

	root.SetArgs([]string{
		"review", "pr",
		"--model", "gpt-4o",
		"--temperature", "0.3",
		"--blocking=True",
		"--comment-per-file=False",
		"--pr", "42",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if !stub.prCalled {
		t.Fatal("expected the pr runner to be invoked")
	}
	if stub.prConfig.Review.Model != "gpt-4o" {
		t.Fatalf("expected model gpt-4o, got %s", stub.prConfig.Review.Model)
	}
	if stub.prConfig.Review.Temperature != 0.3 {
		t.Fatalf("expected temperature 0.3, got %v", stub.prConfig.Review.Temperature)
	}
	if !stub.prConfig.Review.Blocking {
		t.Fatal("expected blocking to be true")
	}
	if stub.prConfig.Review.CommentPerFile {
		t.Fatal("expected comment-per-file to be false")
	}
	if stub.prRequest.Number != 42 {
		t.Fatalf("expected pr number 42, got %d", stub.prRequest.Number)
	}
}

func TestReviewPRCommandKeepsConfigDefaults(t *testing.T) {
	stub := &runnerStub{}
	root := newRoot(stub)

	root.SetArgs([]string{"review", "pr"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	want := testConfig().Review
	if stub.prConfig.Review != want {
		t.Fatalf("expected config defaults %+v, got %+v", want, stub.prConfig.Review)
	}
	if stub.prRequest.Number != 0 {
		t.Fatalf("expected number from the event payload, got %d", stub.prRequest.Number)
	}
}

func TestReviewPRCommandRejectsMissingToken(t *testing.T) {
	stub := &runnerStub{}
	cfg := testConfig()
	cfg.GitHub.Token = ""
	root := cli.NewRootCommand(cli.Dependencies{
		Config:   cfg,
		RunPR:    stub.runPR,
		RunLocal: stub.runLocal,
		Args:     cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"review", "pr"})
	err := root.Execute()
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "GITHUB_TOKEN") {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.prCalled {
		t.Fatal("expected the runner not to be invoked")
	}
}

func TestReviewLocalCommand(t *testing.T) {
	stub := &runnerStub{}
	root := newRoot(stub)

	root.SetArgs([]string{"review", "local", "develop", "--output", "/tmp/reports", "--dry-run"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if !stub.localCalled {
		t.Fatal("expected the local runner to be invoked")
	}
	if stub.localReq.BaseRef != "develop" {
		t.Fatalf("expected base develop, got %s", stub.localReq.BaseRef)
	}
	if stub.localReq.OutputDir != "/tmp/reports" {
		t.Fatalf("expected output /tmp/reports, got %s", stub.localReq.OutputDir)
	}
	if !stub.localReq.DryRun {
		t.Fatal("expected dry run")
	}
}

func TestReviewLocalCommandDefaults(t *testing.T) {
	stub := &runnerStub{}
	root := newRoot(stub)

	root.SetArgs([]string{"review", "local"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.localReq.BaseRef != "main" {
		t.Fatalf("expected base main, got %s", stub.localReq.BaseRef)
	}
	if stub.localReq.OutputDir != "out" {
		t.Fatalf("expected configured output dir, got %s", stub.localReq.OutputDir)
	}
}

func TestReviewLocalCommandDoesNotRequireToken(t *testing.T) {
	stub := &runnerStub{}
	cfg := testConfig()
	cfg.GitHub.Token = ""
	root := cli.NewRootCommand(cli.Dependencies{
		Config:   cfg,
		RunPR:    stub.runPR,
		RunLocal: stub.runLocal,
		Args:     cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"review", "local"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}
	if !stub.localCalled {
		t.Fatal("expected the local runner to be invoked")
	}
}

func TestVersionFlagEmitsVersion(t *testing.T) {
	stub := &runnerStub{}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Config:   testConfig(),
		RunPR:    stub.runPR,
		RunLocal: stub.runLocal,
		Args:     cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version:  "v9.9.9",
	})

	root.SetArgs([]string{"--version"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected version sentinel, got %v", err)
	}
	if strings.TrimSpace(buf.String()) != "v9.9.9" {
		t.Fatalf("unexpected version output: %q", buf.String())
	}
}
