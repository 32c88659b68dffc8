package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pr-reviewer/internal/adapter/llm/anthropic"
	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

func fastRetryClient(c *anthropic.HTTPClient) {
	c.SetRetryConfig(llmhttp.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	})
}

func TestHTTPClient_Call_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req anthropic.MessagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "claude-3-5-sonnet-20240620", req.Model)
		assert.Equal(t, "be brief", req.System)
		assert.Equal(t, 3744, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		json.NewEncoder(w).Encode(anthropic.MessagesResponse{
			ID:   "msg_123",
			Type: "message",
			Role: "assistant",
			Content: []anthropic.ContentBlock{
				{Type: "text", Text: `{"pr_comment": `},
				{Type: "text", Text: `"LGTM", "file_comments": []}`},
			},
			Model:      "claude-3-5-sonnet-20240620",
			StopReason: "end_turn",
			Usage:      anthropic.Usage{InputTokens: 200, OutputTokens: 80},
		})
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20240620")
	client.SetBaseURL(server.URL)

	response, err := client.Call(context.Background(), "test prompt", anthropic.CallOptions{
		System:      "be brief",
		Temperature: 0.2,
		MaxTokens:   3744,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"pr_comment": "LGTM", "file_comments": []}`, response.Text)
	assert.Equal(t, 200, response.TokensIn)
	assert.Equal(t, 80, response.TokensOut)
	assert.Equal(t, "end_turn", response.StopReason)
}

func TestHTTPClient_Call_DefaultMaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropic.MessagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// max_tokens is mandatory for the Messages API.
		assert.Equal(t, 4096, req.MaxTokens)

		json.NewEncoder(w).Encode(anthropic.MessagesResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: "ok"}},
			Model:   "claude-3-5-sonnet-20240620",
		})
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20240620")
	client.SetBaseURL(server.URL)

	_, err := client.Call(context.Background(), "prompt", anthropic.CallOptions{})
	require.NoError(t, err)
}

func TestHTTPClient_Call_AuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(anthropic.ErrorResponse{
			Type:  "error",
			Error: anthropic.ErrorDetail{Type: "authentication_error", Message: "invalid x-api-key"},
		})
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("bad-key", "claude-3-5-sonnet-20240620")
	client.SetBaseURL(server.URL)
	fastRetryClient(client)

	_, err := client.Call(context.Background(), "prompt", anthropic.CallOptions{})

	require.Error(t, err)
	var apiErr *llmhttp.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, llmhttp.ErrTypeAuthentication, apiErr.Type)
	assert.Equal(t, "invalid x-api-key", apiErr.Message)
}

func TestHTTPClient_Call_RetriesOverloaded(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(529)
			json.NewEncoder(w).Encode(anthropic.ErrorResponse{
				Type:  "error",
				Error: anthropic.ErrorDetail{Type: "overloaded_error", Message: "Overloaded"},
			})
			return
		}
		json.NewEncoder(w).Encode(anthropic.MessagesResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: "recovered"}},
			Model:   "claude-3-5-sonnet-20240620",
		})
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20240620")
	client.SetBaseURL(server.URL)
	fastRetryClient(client)

	response, err := client.Call(context.Background(), "prompt", anthropic.CallOptions{})

	require.NoError(t, err)
	assert.Equal(t, "recovered", response.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPClient_Call_NoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropic.MessagesResponse{Model: "claude-3-5-sonnet-20240620"})
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-api-key", "claude-3-5-sonnet-20240620")
	client.SetBaseURL(server.URL)
	fastRetryClient(client)

	_, err := client.Call(context.Background(), "prompt", anthropic.CallOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}

func TestProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropic.MessagesResponse{
			Content:    []anthropic.ContentBlock{{Type: "text", Text: "review text"}},
			Model:      "claude-3-5-sonnet-20240620",
			StopReason: "end_turn",
			Usage:      anthropic.Usage{InputTokens: 1000, OutputTokens: 500},
		})
	}))
	defer server.Close()

	provider := anthropic.NewProvider("test-api-key", "claude-3-5-sonnet-20240620")
	provider.Client().SetBaseURL(server.URL)

	completion, err := provider.Complete(context.Background(), review.CompletionRequest{
		System:      "system",
		Prompt:      "prompt",
		Temperature: 0.2,
		MaxTokens:   3744,
	})

	require.NoError(t, err)
	assert.Equal(t, "review text", completion.Text)
	assert.Equal(t, "claude-3-5-sonnet-20240620", completion.Model)
	// Dated model names price via the undated claude-3-5-sonnet prefix:
	// $3.00/M in, $15.00/M out.
	assert.InDelta(t, 0.0105, completion.Cost, 1e-9)

	assert.Equal(t, "anthropic", provider.Name())
	assert.Equal(t, "claude-3-5-sonnet-20240620", provider.Model())
}
