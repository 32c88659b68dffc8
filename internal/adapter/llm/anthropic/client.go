// Package anthropic implements the completion provider backed by Anthropic's
// Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
)

const (
	defaultBaseURL          = "https://api.anthropic.com"
	defaultTimeout          = 60 * time.Second
	defaultAnthropicVersion = "2023-06-01"

	// statusOverloaded is Anthropic's non-standard overload signal.
	statusOverloaded = 529
)

// HTTPClient is an HTTP client for the Anthropic API.
type HTTPClient struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	client  *http.Client
	retry   llmhttp.RetryConfig
	logger  llmhttp.Logger
}

// NewHTTPClient creates a new Anthropic HTTP client.
func NewHTTPClient(apiKey, model string) *HTTPClient {
	return &HTTPClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
		client:  &http.Client{Timeout: defaultTimeout},
		retry:   llmhttp.DefaultRetryConfig(),
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *HTTPClient) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetTimeout sets the HTTP timeout.
func (c *HTTPClient) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
	c.client.Timeout = timeout
}

// SetRetryConfig overrides the default retry policy.
func (c *HTTPClient) SetRetryConfig(cfg llmhttp.RetryConfig) {
	c.retry = cfg
}

// SetLogger attaches a request/response logger.
func (c *HTTPClient) SetLogger(logger llmhttp.Logger) {
	c.logger = logger
}

// Model returns the model this client targets.
func (c *HTTPClient) Model() string {
	return c.model
}

// CallOptions contains options for the API call.
type CallOptions struct {
	System      string
	Temperature float64
	MaxTokens   int
}

// APIResponse represents the parsed response from the API.
type APIResponse struct {
	Text       string
	TokensIn   int
	TokensOut  int
	Model      string
	StopReason string
}

// Call makes a request to the Anthropic Messages API.
func (c *HTTPClient) Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error) {
	maxTokens := options.MaxTokens
	if maxTokens <= 0 {
		// The Messages API requires max_tokens.
		maxTokens = 4096
	}

	reqBody := MessagesRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		System:    options.System,
		MaxTokens: maxTokens,
	}
	if options.Temperature > 0 {
		reqBody.Temperature = options.Temperature
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/v1/messages"
	start := time.Now()
	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:    "anthropic",
			Model:       c.model,
			Timestamp:   start,
			PromptChars: len(prompt),
			APIKey:      c.apiKey,
		})
	}

	var response *APIResponse
	operation := func(ctx context.Context) error {
		// Anthropic uses x-api-key instead of Authorization.
		req, reqErr := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
		if reqErr != nil {
			return fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", defaultAnthropicVersion)

		resp, callErr := c.client.Do(req)
		if callErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return llmhttp.NewTimeoutError("anthropic", callErr.Error())
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("failed to read response body: %w", readErr)
		}

		if resp.StatusCode >= 400 {
			return c.handleErrorResponse(resp, body)
		}

		var messagesResp MessagesResponse
		if unmarshalErr := json.Unmarshal(body, &messagesResp); unmarshalErr != nil {
			return fmt.Errorf("failed to parse response: %w", unmarshalErr)
		}

		if len(messagesResp.Content) == 0 {
			return fmt.Errorf("no content in response")
		}

		var textParts []string
		for _, block := range messagesResp.Content {
			if block.Type == "text" {
				textParts = append(textParts, block.Text)
			}
		}

		response = &APIResponse{
			Text:       strings.Join(textParts, ""),
			TokensIn:   messagesResp.Usage.InputTokens,
			TokensOut:  messagesResp.Usage.OutputTokens,
			Model:      messagesResp.Model,
			StopReason: messagesResp.StopReason,
		}
		return nil
	}

	if err := llmhttp.RetryWithBackoff(ctx, operation, c.retry); err != nil {
		if c.logger != nil {
			errLog := llmhttp.ErrorLog{
				Provider:  "anthropic",
				Model:     c.model,
				Timestamp: time.Now(),
				Duration:  time.Since(start),
				Error:     err,
			}
			var apiErr *llmhttp.Error
			if errors.As(err, &apiErr) {
				errLog.ErrorType = apiErr.Type
				errLog.StatusCode = apiErr.StatusCode
				errLog.Retryable = apiErr.Retryable
			}
			c.logger.LogError(ctx, errLog)
		}
		return nil, err
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:     "anthropic",
			Model:        response.Model,
			Timestamp:    time.Now(),
			Duration:     time.Since(start),
			TokensIn:     response.TokensIn,
			TokensOut:    response.TokensOut,
			StatusCode:   http.StatusOK,
			FinishReason: response.StopReason,
		})
	}

	return response, nil
}

// handleErrorResponse maps HTTP status codes to typed errors.
func (c *HTTPClient) handleErrorResponse(resp *http.Response, body []byte) error {
	statusCode := resp.StatusCode
	message := fmt.Sprintf("HTTP %d", statusCode)

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llmhttp.NewAuthenticationError("anthropic", message)
	case http.StatusTooManyRequests:
		rlErr := llmhttp.NewRateLimitError("anthropic", message)
		rlErr.RetryAfter = llmhttp.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return rlErr
	case http.StatusBadRequest, http.StatusNotFound:
		return llmhttp.NewInvalidRequestError("anthropic", message)
	case statusOverloaded, http.StatusServiceUnavailable, http.StatusInternalServerError:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   "anthropic",
		}
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "anthropic",
		}
	}
}
