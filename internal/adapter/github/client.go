// Package github is the REST client for the pull request operations the
// reviewer performs: fetching diffs and metadata, pruning stale bot
// comments, and posting conversation and inline comments.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

const (
	defaultBaseURL        = "https://api.github.com"
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second

	acceptJSON = "application/vnd.github+json"
	acceptDiff = "application/vnd.github.v3.diff"

	commentsPerPage = 100

	// maxDeletePasses bounds the stale-comment sweep. Deleting while
	// listing shifts pagination under us, so the sweep repeats until a
	// pass finds nothing left to delete.
	maxDeletePasses = 16
)

// Client is an HTTP client for the GitHub REST API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  llmhttp.RetryConfig
}

// NewClient creates a new GitHub API client with the given token.
// The token should be a personal access token or GITHUB_TOKEN from Actions.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf: llmhttp.RetryConfig{
			MaxRetries:     defaultMaxRetries,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     32 * time.Second,
			Multiplier:     2.0,
		},
	}
}

// SetBaseURL sets a custom base URL (for testing and GHES deployments).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetRetryConfig overrides the default retry policy.
func (c *Client) SetRetryConfig(cfg llmhttp.RetryConfig) {
	c.retryConf = cfg
}

// do executes one API request with retry and returns the response body.
func (c *Client) do(ctx context.Context, method, url, accept string, payload []byte) ([]byte, error) {
	var body []byte
	err := llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, reqErr := http.NewRequestWithContext(ctx, method, url, reader)
		if reqErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  providerName,
			}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", accept)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
				Provider:  providerName,
			}
		}
		defer resp.Body.Close()

		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &llmhttp.Error{
				Type:       llmhttp.ErrTypeUnknown,
				Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
				StatusCode: resp.StatusCode,
				Retryable:  resp.StatusCode >= 500,
				Provider:   providerName,
			}
		}

		if resp.StatusCode >= 400 {
			return MapHTTPError(resp.StatusCode, bodyBytes)
		}

		body = bodyBytes
		return nil
	}, c.retryConf)

	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetPullRequest fetches pull request metadata.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (domain.PullRequest, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)

	body, err := c.do(ctx, "GET", url, acceptJSON, nil)
	if err != nil {
		return domain.PullRequest{}, err
	}

	var pr PullRequestResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return domain.PullRequest{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return domain.PullRequest{
		Number:  pr.Number,
		Title:   pr.Title,
		HeadSHA: pr.Head.SHA,
	}, nil
}

// GetPullRequestDiff fetches the pull request as a unified diff.
func (c *Client) GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)

	body, err := c.do(ctx, "GET", url, acceptDiff, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ListChangedFiles fetches every file touched by the pull request, paging
// until a short page.
func (c *Client) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]domain.ChangedFile, error) {
	var files []domain.ChangedFile

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			c.baseURL, owner, repo, number, commentsPerPage, page)

		body, err := c.do(ctx, "GET", url, acceptJSON, nil)
		if err != nil {
			return nil, err
		}

		var pageFiles []ChangedFileResponse
		if err := json.Unmarshal(body, &pageFiles); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}

		for _, f := range pageFiles {
			files = append(files, domain.ChangedFile{
				Filename:         f.Filename,
				PreviousFilename: f.PreviousFilename,
				Status:           f.Status,
			})
		}

		if len(pageFiles) < commentsPerPage {
			return files, nil
		}
	}
}

// DeleteStaleComments removes previous bot comments from the pull request so
// a fresh review replaces the old one. Both conversation comments and inline
// review comments whose author login starts with authorPrefix are removed.
func (c *Client) DeleteStaleComments(ctx context.Context, owner, repo string, number int, authorPrefix string) error {
	for pass := 0; pass < maxDeletePasses; pass++ {
		deleted, err := c.deleteStalePass(ctx, owner, repo, number, authorPrefix)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return nil
		}
	}
	return nil
}

func (c *Client) deleteStalePass(ctx context.Context, owner, repo string, number int, authorPrefix string) (int, error) {
	deleted := 0

	// Conversation comments live under the issues API.
	issueURL := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments?per_page=%d",
		c.baseURL, owner, repo, number, commentsPerPage)
	body, err := c.do(ctx, "GET", issueURL, acceptJSON, nil)
	if err != nil {
		return 0, err
	}
	var issueComments []IssueComment
	if err := json.Unmarshal(body, &issueComments); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	for _, comment := range issueComments {
		if !strings.HasPrefix(comment.User.Login, authorPrefix) {
			continue
		}
		deleteURL := fmt.Sprintf("%s/repos/%s/%s/issues/comments/%d", c.baseURL, owner, repo, comment.ID)
		if _, err := c.do(ctx, "DELETE", deleteURL, acceptJSON, nil); err != nil {
			return deleted, err
		}
		deleted++
	}

	// Inline review comments.
	pullURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/comments?per_page=%d",
		c.baseURL, owner, repo, number, commentsPerPage)
	body, err = c.do(ctx, "GET", pullURL, acceptJSON, nil)
	if err != nil {
		return deleted, err
	}
	var pullComments []PullComment
	if err := json.Unmarshal(body, &pullComments); err != nil {
		return deleted, fmt.Errorf("failed to parse response: %w", err)
	}
	for _, comment := range pullComments {
		if !strings.HasPrefix(comment.User.Login, authorPrefix) {
			continue
		}
		deleteURL := fmt.Sprintf("%s/repos/%s/%s/pulls/comments/%d", c.baseURL, owner, repo, comment.ID)
		if _, err := c.do(ctx, "DELETE", deleteURL, acceptJSON, nil); err != nil {
			return deleted, err
		}
		deleted++
	}

	return deleted, nil
}

// CreateIssueComment posts a conversation comment on the pull request.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, commentBody string) error {
	payload, err := json.Marshal(createIssueCommentRequest{Body: commentBody})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, number)
	_, err = c.do(ctx, "POST", url, acceptJSON, payload)
	return err
}

// CreateReviewComment posts an inline comment on the pull request diff.
// Rejections for a start_line outside the target hunk surface as errors
// matching IsHunkMismatch.
func (c *Client) CreateReviewComment(ctx context.Context, req ReviewCommentRequest) error {
	wire := createReviewCommentRequest{
		Body:     req.Body,
		CommitID: req.CommitSHA,
		Path:     req.Path,
		Line:     req.Line,
		Side:     "RIGHT",
	}
	if req.StartLine > 0 && req.StartLine < req.Line {
		wire.StartLine = req.StartLine
		wire.StartSide = "RIGHT"
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/comments", c.baseURL, req.Owner, req.Repo, req.Number)
	_, err = c.do(ctx, "POST", url, acceptJSON, payload)
	return err
}
