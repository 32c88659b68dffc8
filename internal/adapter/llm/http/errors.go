// Package http provides the shared client kit for the LLM and GitHub REST
// adapters: typed errors, retry with backoff, pricing, and structured
// request logging.
package http

import (
	"fmt"
	"time"
)

// ErrorType categorises an API failure.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeInvalidRequest
	ErrTypeNotFound
	ErrTypeTimeout
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeNotFound:
		return "not found"
	case ErrTypeTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// Error is an API error with enough context to decide on retry behaviour.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Provider   string

	// RetryAfter is the server-requested wait before the next attempt,
	// zero when the response carried no Retry-After header.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Provider, e.Type.String(), e.Message, e.StatusCode)
}

// Is matches errors of the same type, enabling errors.Is comparisons
// against sentinel instances.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable reports whether the operation may be attempted again.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewAuthenticationError creates a non-retryable credential failure.
func NewAuthenticationError(provider, message string) *Error {
	return &Error{Type: ErrTypeAuthentication, Message: message, StatusCode: 401, Retryable: false, Provider: provider}
}

// NewRateLimitError creates a retryable rate-limit failure.
func NewRateLimitError(provider, message string) *Error {
	return &Error{Type: ErrTypeRateLimit, Message: message, StatusCode: 429, Retryable: true, Provider: provider}
}

// NewServiceUnavailableError creates a retryable server-side failure.
func NewServiceUnavailableError(provider, message string) *Error {
	return &Error{Type: ErrTypeServiceUnavailable, Message: message, StatusCode: 503, Retryable: true, Provider: provider}
}

// NewInvalidRequestError creates a non-retryable request failure.
func NewInvalidRequestError(provider, message string) *Error {
	return &Error{Type: ErrTypeInvalidRequest, Message: message, StatusCode: 400, Retryable: false, Provider: provider}
}

// NewNotFoundError creates a non-retryable missing-resource failure.
func NewNotFoundError(provider, message string) *Error {
	return &Error{Type: ErrTypeNotFound, Message: message, StatusCode: 404, Retryable: false, Provider: provider}
}

// NewTimeoutError creates a retryable timeout failure.
func NewTimeoutError(provider, message string) *Error {
	return &Error{Type: ErrTypeTimeout, Message: message, Retryable: true, Provider: provider}
}
