package review

import (
	"context"
	"fmt"

	"github.com/bkyoung/pr-reviewer/internal/adapter/llm"
	"github.com/bkyoung/pr-reviewer/internal/diff"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// LocalReviewer reviews a local checkout against a base ref and writes the
// result as a Markdown report instead of posting to GitHub.
type LocalReviewer struct {
	provider   Provider
	git        GitEngine
	writer     MarkdownWriter
	logger     Logger
	opts       Options
	repository string
	outputDir  string
}

// NewLocalReviewer wires a local-mode reviewer.
func NewLocalReviewer(provider Provider, git GitEngine, writer MarkdownWriter, logger Logger, opts Options, repository, outputDir string) *LocalReviewer {
	return &LocalReviewer{
		provider:   provider,
		git:        git,
		writer:     writer,
		logger:     logger,
		opts:       opts,
		repository: repository,
		outputDir:  outputDir,
	}
}

// Review diffs HEAD against baseRef and writes a Markdown report, returning
// the report path. With dryRun the numbered diff is logged and nothing is
// sent to the provider.
func (l *LocalReviewer) Review(ctx context.Context, baseRef string, dryRun bool) (string, error) {
	rawDiff, err := l.git.DiffAgainst(ctx, baseRef)
	if err != nil {
		return "", fmt.Errorf("diff against %s: %w", baseRef, err)
	}
	if rawDiff == "" {
		l.logger.LogInfo(ctx, "no changes against base, nothing to review", map[string]interface{}{
			"base": baseRef,
		})
		return "", nil
	}

	headSHA, err := l.git.HeadSHA(ctx)
	if err != nil {
		return "", err
	}

	numbered := diff.NumberLines(rawDiff)
	truncated := diff.Truncate(numbered, l.opts.promptBudget(), llm.EstimateTokens)

	if dryRun {
		l.logger.LogInfo(ctx, "dry run, skipping completion", map[string]interface{}{
			"base":          baseRef,
			"head_sha":      headSHA,
			"prompt_tokens": llm.EstimateTokens(truncated),
		})
		return "", nil
	}

	completion, err := l.provider.Complete(ctx, CompletionRequest{
		System:           SystemPrompt,
		Prompt:           PRPrompt(truncated),
		Temperature:      l.opts.Temperature,
		FrequencyPenalty: l.opts.FrequencyPenalty,
		PresencePenalty:  l.opts.PresencePenalty,
		MaxTokens:        l.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}

	parsed, err := ParseReview(completion.Text)
	if err != nil {
		return "", fmt.Errorf("parse review: %w", err)
	}

	path, err := l.writer.Write(MarkdownArtifact{
		OutputDir:  l.outputDir,
		Repository: l.repository,
		BaseRef:    baseRef,
		HeadSHA:    headSHA,
		Result: domain.ReviewResult{
			Review: parsed,
			Model:  completion.Model,
			Cost:   completion.Cost,
		},
	})
	if err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	l.logger.LogInfo(ctx, "review written", map[string]interface{}{
		"path": path,
		"cost": completion.Cost,
	})
	return path, nil
}
