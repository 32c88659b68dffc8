// Package openai implements the completion provider backed by OpenAI's
// Chat Completion API.
package openai

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
	defaultBaseURL = "https://api.openai.com"
	defaultTimeout = 60 * time.Second
)

// isO1Model returns true if the model is a reasoning model. These models
// require max_completion_tokens instead of max_tokens and reject sampling
// parameters such as temperature and the penalty knobs.
func isO1Model(model string) bool {
	modelLower := strings.ToLower(model)
	return strings.HasPrefix(modelLower, "o1") || strings.HasPrefix(modelLower, "o3") || strings.HasPrefix(modelLower, "o4")
}

// HTTPClient is an HTTP client for the OpenAI API.
type HTTPClient struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	client  *http.Client
	retry   llmhttp.RetryConfig
	logger  llmhttp.Logger
}

// NewHTTPClient creates a new OpenAI HTTP client.
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

// SetBaseURL sets a custom base URL. Used for tests and for OPENAI_API_BASE
// style proxy deployments.
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
	System           string
	Temperature      float64
	FrequencyPenalty int
	PresencePenalty  int
	MaxTokens        int
}

// APIResponse represents the parsed response from the API.
type APIResponse struct {
	Text         string
	TokensIn     int
	TokensOut    int
	Model        string
	FinishReason string
}

// Call makes a request to the OpenAI Chat Completion API.
func (c *HTTPClient) Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error) {
	reqBody := ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: options.System},
			{Role: "user", Content: prompt},
		},
	}

	isO1 := isO1Model(c.model)

	if options.MaxTokens > 0 {
		if isO1 {
			reqBody.MaxCompletionTokens = options.MaxTokens
		} else {
			reqBody.MaxTokens = options.MaxTokens
		}
	}

	// Reasoning models reject sampling parameters.
	if !isO1 {
		reqBody.Temperature = options.Temperature
		reqBody.FrequencyPenalty = options.FrequencyPenalty
		reqBody.PresencePenalty = options.PresencePenalty
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/v1/chat/completions"
	start := time.Now()
	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:    "openai",
			Model:       c.model,
			Timestamp:   start,
			PromptChars: len(prompt),
			APIKey:      c.apiKey,
		})
	}

	var response *APIResponse
	operation := func(ctx context.Context) error {
		// Build a fresh request each attempt so the body can be re-read.
		req, reqErr := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
		if reqErr != nil {
			return fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, callErr := c.client.Do(req)
		if callErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return llmhttp.NewTimeoutError("openai", callErr.Error())
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("failed to read response: %w", readErr)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleErrorResponse(resp, body)
		}

		var chatResp ChatCompletionResponse
		if unmarshalErr := json.Unmarshal(body, &chatResp); unmarshalErr != nil {
			return fmt.Errorf("failed to parse response: %w", unmarshalErr)
		}

		if len(chatResp.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}

		response = &APIResponse{
			Text:         chatResp.Choices[0].Message.Content,
			TokensIn:     chatResp.Usage.PromptTokens,
			TokensOut:    chatResp.Usage.CompletionTokens,
			Model:        chatResp.Model,
			FinishReason: chatResp.Choices[0].FinishReason,
		}
		return nil
	}

	if err := llmhttp.RetryWithBackoff(ctx, operation, c.retry); err != nil {
		if c.logger != nil {
			errLog := llmhttp.ErrorLog{
				Provider:  "openai",
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
			Provider:     "openai",
			Model:        response.Model,
			Timestamp:    time.Now(),
			Duration:     time.Since(start),
			TokensIn:     response.TokensIn,
			TokensOut:    response.TokensOut,
			StatusCode:   http.StatusOK,
			FinishReason: response.FinishReason,
		})
	}

	return response, nil
}

// handleErrorResponse converts HTTP error responses to typed errors.
func (c *HTTPClient) handleErrorResponse(resp *http.Response, body []byte) error {
	statusCode := resp.StatusCode
	message := fmt.Sprintf("HTTP %d", statusCode)

	// Prefer the structured OpenAI error message when the body parses.
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	} else if len(body) > 0 && len(body) < 200 {
		message = string(body)
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llmhttp.NewAuthenticationError("openai", message)
	case http.StatusTooManyRequests:
		rlErr := llmhttp.NewRateLimitError("openai", message)
		rlErr.RetryAfter = llmhttp.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return rlErr
	case http.StatusBadRequest, http.StatusNotFound:
		return llmhttp.NewInvalidRequestError("openai", message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return llmhttp.NewServiceUnavailableError("openai", message)
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "openai",
		}
	}
}
