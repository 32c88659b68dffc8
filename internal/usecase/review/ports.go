package review

import (
	"context"

	"github.com/bkyoung/pr-reviewer/internal/adapter/github"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// CompletionRequest is the provider-agnostic completion input.
type CompletionRequest struct {
	System           string
	Prompt           string
	Temperature      float64
	FrequencyPenalty int
	PresencePenalty  int
	MaxTokens        int
}

// Completion is the provider-agnostic completion output.
type Completion struct {
	Text      string
	Model     string
	TokensIn  int
	TokensOut int
	Cost      float64 // USD
}

// Provider defines the LLM dependency.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
	Name() string
	Model() string
}

// GitHubClient defines the GitHub API operations the orchestrator needs.
// Implemented by the github adapter; interfaces here allow mocking in tests.
type GitHubClient interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (domain.PullRequest, error)
	GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error)
	ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]domain.ChangedFile, error)
	DeleteStaleComments(ctx context.Context, owner, repo string, number int, authorPrefix string) error
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error
	CreateReviewComment(ctx context.Context, req github.ReviewCommentRequest) error
}

// Store records completed runs so re-runs against an unchanged head SHA can
// be skipped. A nil store disables history.
type Store interface {
	SeenReview(ctx context.Context, repository string, number int, headSHA string) (bool, error)
	RecordReview(ctx context.Context, rec RunRecord) error
	Close() error
}

// RunRecord captures one completed review run.
type RunRecord struct {
	Repository string
	Number     int
	HeadSHA    string
	Model      string
	Cost       float64
}

// Logger is the orchestrator's structured logging port.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// GitEngine produces a unified diff from a local checkout for runs outside
// GitHub Actions.
type GitEngine interface {
	DiffAgainst(ctx context.Context, baseRef string) (string, error)
	HeadSHA(ctx context.Context) (string, error)
}

// MarkdownWriter persists a review as a markdown artifact in local mode.
type MarkdownWriter interface {
	Write(artifact MarkdownArtifact) (string, error)
}

// MarkdownArtifact is the input to the markdown writer.
type MarkdownArtifact struct {
	OutputDir  string
	Repository string
	BaseRef    string
	HeadSHA    string
	Result     domain.ReviewResult
}
