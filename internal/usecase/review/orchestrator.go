// Package review orchestrates pull request reviews: it assembles numbered
// diffs, requests completions, parses the JSON review contract, and posts
// the results back to GitHub.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bkyoung/pr-reviewer/internal/adapter/github"
	"github.com/bkyoung/pr-reviewer/internal/adapter/llm"
	"github.com/bkyoung/pr-reviewer/internal/diff"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// lgtmComment is the marker the prompt contract uses for a clean review.
const lgtmComment = "LGTM"

// Options configures the orchestrator.
type Options struct {
	Owner string
	Repo  string

	// BotPrefix identifies stale comments from previous runs.
	BotPrefix string

	Temperature      float64
	FrequencyPenalty int
	PresencePenalty  int

	// MaxTokens is the overall budget; MinResponseTokens is reserved for
	// the completion, the rest bounds the prompt.
	MaxTokens         int
	MinResponseTokens int

	ReviewPerFile  bool
	CommentPerFile bool

	// Blocking makes LLM failures fail the run. Non-blocking runs log the
	// failure and report success so the workflow does not gate merges on
	// provider availability.
	Blocking bool
}

// promptBudget returns the token budget available to the diff.
func (o Options) promptBudget() int {
	return o.MaxTokens - o.MinResponseTokens
}

// Orchestrator drives the review flow against its ports.
type Orchestrator struct {
	provider Provider
	github   GitHubClient
	store    Store // nil disables run history
	logger   Logger
	opts     Options
}

// NewOrchestrator wires a review orchestrator.
func NewOrchestrator(provider Provider, gh GitHubClient, store Store, logger Logger, opts Options) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		github:   gh,
		store:    store,
		logger:   logger,
		opts:     opts,
	}
}

// ReviewPullRequest reviews one pull request and posts the results.
//
// GitHub fetch failures always error: without the diff there is nothing to
// review. Completion and parse failures respect Blocking. Failures posting
// individual inline comments are logged and skipped so one bad line number
// cannot void the rest of the review.
func (o *Orchestrator) ReviewPullRequest(ctx context.Context, number int) error {
	pr, err := o.github.GetPullRequest(ctx, o.opts.Owner, o.opts.Repo, number)
	if err != nil {
		return fmt.Errorf("get pull request: %w", err)
	}

	if o.alreadyReviewed(ctx, pr) {
		return nil
	}

	rawDiff, err := o.github.GetPullRequestDiff(ctx, o.opts.Owner, o.opts.Repo, number)
	if err != nil {
		return fmt.Errorf("get pull request diff: %w", err)
	}

	numbered := diff.NumberLines(rawDiff)

	// Clear previous bot comments before posting fresh ones.
	if err := o.github.DeleteStaleComments(ctx, o.opts.Owner, o.opts.Repo, number, o.opts.BotPrefix); err != nil {
		o.logger.LogWarning(ctx, "failed to delete stale comments", map[string]interface{}{
			"error": err.Error(),
		})
	}

	result, err := o.generateReview(ctx, numbered)
	if err != nil {
		if o.opts.Blocking {
			return err
		}
		o.logger.LogWarning(ctx, "review generation failed, skipping (non-blocking)", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	if err := o.postReview(ctx, pr, result); err != nil {
		return err
	}

	o.recordRun(ctx, pr, result)
	return nil
}

// alreadyReviewed consults the optional run history. Store failures never
// block a review.
func (o *Orchestrator) alreadyReviewed(ctx context.Context, pr domain.PullRequest) bool {
	if o.store == nil {
		return false
	}
	repository := o.opts.Owner + "/" + o.opts.Repo
	seen, err := o.store.SeenReview(ctx, repository, pr.Number, pr.HeadSHA)
	if err != nil {
		o.logger.LogWarning(ctx, "run history lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	if seen {
		o.logger.LogInfo(ctx, "head commit already reviewed, skipping", map[string]interface{}{
			"pull_number": pr.Number,
			"head_sha":    pr.HeadSHA,
		})
	}
	return seen
}

func (o *Orchestrator) recordRun(ctx context.Context, pr domain.PullRequest, result domain.ReviewResult) {
	if o.store == nil {
		return
	}
	err := o.store.RecordReview(ctx, RunRecord{
		Repository: o.opts.Owner + "/" + o.opts.Repo,
		Number:     pr.Number,
		HeadSHA:    pr.HeadSHA,
		Model:      result.Model,
		Cost:       result.Cost,
	})
	if err != nil {
		o.logger.LogWarning(ctx, "failed to record review run", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// generateReview turns a numbered diff into a parsed review, either with a
// single completion over the whole diff or one completion per file.
func (o *Orchestrator) generateReview(ctx context.Context, numbered string) (domain.ReviewResult, error) {
	if o.opts.ReviewPerFile {
		return o.reviewPerFile(ctx, numbered)
	}

	truncated := diff.Truncate(numbered, o.opts.promptBudget(), llm.EstimateTokens)
	return o.complete(ctx, PRPrompt(truncated))
}

func (o *Orchestrator) reviewPerFile(ctx context.Context, numbered string) (domain.ReviewResult, error) {
	files := diff.SplitFiles(numbered)

	merged := domain.ReviewResult{Model: o.provider.Model()}
	var comments []string
	for _, file := range files {
		patch := diff.Truncate(file.Patch, o.opts.promptBudget(), llm.EstimateTokens)
		result, err := o.complete(ctx, FilePrompt(file.Path, patch))
		if err != nil {
			return domain.ReviewResult{}, fmt.Errorf("review %s: %w", file.Path, err)
		}

		merged.Cost += result.Cost
		merged.Model = result.Model
		merged.Review.FileComments = append(merged.Review.FileComments, result.Review.FileComments...)
		if result.Review.PRComment != "" && result.Review.PRComment != lgtmComment {
			comments = append(comments, fmt.Sprintf("**%s**: %s", file.Path, result.Review.PRComment))
		}
	}

	if len(comments) == 0 {
		merged.Review.PRComment = lgtmComment
	} else {
		merged.Review.PRComment = strings.Join(comments, "\n")
	}
	return merged, nil
}

func (o *Orchestrator) complete(ctx context.Context, prompt string) (domain.ReviewResult, error) {
	completion, err := o.provider.Complete(ctx, CompletionRequest{
		System:           SystemPrompt,
		Prompt:           prompt,
		Temperature:      o.opts.Temperature,
		FrequencyPenalty: o.opts.FrequencyPenalty,
		PresencePenalty:  o.opts.PresencePenalty,
		MaxTokens:        o.opts.MaxTokens,
	})
	if err != nil {
		return domain.ReviewResult{}, fmt.Errorf("completion: %w", err)
	}

	parsed, err := ParseReview(completion.Text)
	if err != nil {
		return domain.ReviewResult{}, fmt.Errorf("parse review: %w", err)
	}

	return domain.ReviewResult{
		Review: parsed,
		Model:  completion.Model,
		Cost:   completion.Cost,
	}, nil
}

// postReview publishes the summary comment and, when enabled, the inline
// file comments.
func (o *Orchestrator) postReview(ctx context.Context, pr domain.PullRequest, result domain.ReviewResult) error {
	prComment := result.Review.PRComment
	if prComment == lgtmComment && len(result.Review.FileComments) > 0 {
		prComment = "Found some issues"
	}

	body := fmt.Sprintf("%s\n\n(review was done using=%s with cost=$%.4f)",
		prComment, result.Model, result.Cost)
	if err := o.github.CreateIssueComment(ctx, o.opts.Owner, o.opts.Repo, pr.Number, body); err != nil {
		return fmt.Errorf("create issue comment: %w", err)
	}

	if !o.opts.CommentPerFile || len(result.Review.FileComments) == 0 {
		return nil
	}

	files, err := o.github.ListChangedFiles(ctx, o.opts.Owner, o.opts.Repo, pr.Number)
	if err != nil {
		return fmt.Errorf("list changed files: %w", err)
	}

	changed := make(map[string]bool, len(files))
	for _, f := range files {
		changed[f.Filename] = true
	}

	for _, comment := range result.Review.FileComments {
		// The model occasionally invents paths; only comment on files the
		// PR actually touches.
		if !changed[comment.File] {
			o.logger.LogWarning(ctx, "skipping comment for file not in the diff", map[string]interface{}{
				"file": comment.File,
			})
			continue
		}
		o.postFileComment(ctx, pr, comment)
	}
	return nil
}

// postFileComment posts one inline comment, degrading gracefully: a range
// GitHub rejects as spanning hunks retries as a file-level note on line 1,
// and any remaining failure is logged and skipped.
func (o *Orchestrator) postFileComment(ctx context.Context, pr domain.PullRequest, comment domain.FileComment) {
	req := github.ReviewCommentRequest{
		Owner:     o.opts.Owner,
		Repo:      o.opts.Repo,
		Number:    pr.Number,
		CommitSHA: pr.HeadSHA,
		Path:      comment.File,
		Body:      comment.Comment,
		Line:      comment.Line,
	}
	if comment.MultiLine() {
		req.StartLine = comment.StartLine
	}

	err := o.github.CreateReviewComment(ctx, req)
	if err == nil {
		return
	}

	if github.IsHunkMismatch(err) {
		o.logger.LogWarning(ctx, "comment range spans hunks, falling back to file-level comment", map[string]interface{}{
			"file":  comment.File,
			"error": err.Error(),
		})
		fallback := req
		fallback.Body = "In this file: " + comment.Comment
		fallback.Line = 1
		fallback.StartLine = 0
		if err := o.github.CreateReviewComment(ctx, fallback); err == nil {
			return
		}
	}

	o.logger.LogWarning(ctx, "failed to post inline comment", map[string]interface{}{
		"file":  comment.File,
		"line":  comment.Line,
		"error": err.Error(),
	})
}

// jsonBlockPattern matches JSON wrapped in markdown code fences, which
// models emit despite the pure-JSON instruction.
var jsonBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseReview extracts the JSON review contract from a completion.
func ParseReview(text string) (domain.Review, error) {
	jsonText := strings.TrimSpace(text)
	if matches := jsonBlockPattern.FindStringSubmatch(text); len(matches) > 1 {
		jsonText = matches[1]
	}

	var review domain.Review
	if err := json.Unmarshal([]byte(jsonText), &review); err != nil {
		return domain.Review{}, fmt.Errorf("failed to parse review JSON: %w", err)
	}
	return review, nil
}
