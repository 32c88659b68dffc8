package http

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig holds retry behaviour for an API client.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryConfig returns the defaults shared by the LLM and GitHub
// clients.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     32 * time.Second,
		Multiplier:     2.0,
	}
}

// ExponentialBackoff computes the wait before the given attempt:
// min(initial * multiplier^attempt, max) with ±25% jitter.
func ExponentialBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(config.Multiplier, float64(attempt))
	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}

	jitterRange := 0.25 * backoff
	backoff += (rand.Float64() * 2 * jitterRange) - jitterRange

	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}
	if backoff < 0 {
		backoff = 0
	}
	return time.Duration(backoff)
}

// ShouldRetry reports whether the error is worth another attempt.
func ShouldRetry(err error) bool {
	var httpErr *Error
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}
	return false
}

// Operation is a single attempt of a retryable call.
type Operation func(ctx context.Context) error

// RetryWithBackoff runs the operation until it succeeds, fails with a
// non-retryable error, or exhausts MaxRetries. A server-provided
// Retry-After wait takes precedence over the computed backoff.
func RetryWithBackoff(ctx context.Context, operation Operation, config RetryConfig) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !ShouldRetry(err) || attempt >= config.MaxRetries {
			return err
		}

		wait := ExponentialBackoff(attempt, config)
		var httpErr *Error
		if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 && httpErr.RetryAfter <= config.MaxBackoff {
			wait = httpErr.RetryAfter
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// ParseRetryAfter converts a Retry-After header value in seconds to a
// duration, returning zero for absent or malformed values.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	var seconds int
	for _, r := range header {
		if r < '0' || r > '9' {
			return 0
		}
		seconds = seconds*10 + int(r-'0')
	}
	return time.Duration(seconds) * time.Second
}
