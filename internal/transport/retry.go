package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig configures retry behavior for request execution.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first
	// (default: 3)
	MaxAttempts int

	// InitialBackoff is the delay before the first retry (default: 1s)
	InitialBackoff time.Duration

	// MaxBackoff caps the computed delay, Retry-After included
	// (default: 30s)
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// Validate checks if the retry configuration is valid.
func (c *RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.InitialBackoff < 0 {
		return fmt.Errorf("initial_backoff must be non-negative, got %v", c.InitialBackoff)
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff (%v) must be >= initial_backoff (%v)", c.MaxBackoff, c.InitialBackoff)
	}
	return nil
}

// ExecuteFunc is a function that executes a single request attempt.
type ExecuteFunc func(ctx context.Context) (*Response, error)

// ExecuteWithRetry runs the given function with retry logic.
//
// Retry behavior:
//   - Retries only errors whose classification is Retryable (timeouts,
//     connection failures, 429, 5xx)
//   - Gone (410) is never retried here; the caller handles it as a
//     version-negotiation event
//   - Respects Retry-After for 429/503, capped at MaxBackoff
//   - Delay before retry n (0-indexed) is InitialBackoff * 2^n
//   - Stops immediately on context cancellation
func ExecuteWithRetry(ctx context.Context, config *RetryConfig, fn ExecuteFunc) (*Response, error) {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		shouldRetry, retryAfter := shouldRetryError(err)
		if !shouldRetry || attempt == config.MaxAttempts-1 {
			return nil, lastErr
		}

		if ctx.Err() != nil {
			return nil, &TransportError{
				Type:      ErrorTypeCancelled,
				Message:   "request cancelled before retry",
				Retryable: false,
				Cause:     ctx.Err(),
			}
		}

		delay := backoffDelay(config, attempt, retryAfter)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &TransportError{
				Type:      ErrorTypeCancelled,
				Message:   "request cancelled during retry backoff",
				Retryable: false,
				Cause:     ctx.Err(),
			}
		}
	}

	return nil, lastErr
}

// shouldRetryError determines if an error should be retried and extracts the
// Retry-After hint if present.
func shouldRetryError(err error) (shouldRetry bool, retryAfter time.Duration) {
	te, ok := err.(*TransportError)
	if !ok {
		// Unknown error type - don't retry
		return false, 0
	}

	if !te.Retryable {
		return false, 0
	}

	if te.StatusCode == 429 || te.StatusCode == 503 {
		retryAfter = parseRetryAfter(te)
	}

	return true, retryAfter
}

// backoffDelay computes the sleep before retry n (0-indexed).
// Formula: min(InitialBackoff * 2^n, MaxBackoff), raised to Retry-After when
// the server asked for a longer pause, still capped at MaxBackoff.
func backoffDelay(config *RetryConfig, attempt int, retryAfter time.Duration) time.Duration {
	delay := config.InitialBackoff << uint(attempt)
	if delay > config.MaxBackoff || delay < 0 {
		delay = config.MaxBackoff
	}

	if retryAfter > delay {
		delay = retryAfter
		if delay > config.MaxBackoff {
			delay = config.MaxBackoff
		}
	}

	return delay
}

// parseRetryAfter extracts the Retry-After hint from error metadata.
// Supports delay-seconds ("120") and HTTP-date formats. Returns 0 when
// absent or malformed, letting the computed backoff apply.
func parseRetryAfter(err *TransportError) time.Duration {
	if err.Metadata == nil {
		return 0
	}

	value, ok := err.Metadata["retry_after"]
	if !ok || value == "" {
		return 0
	}

	if seconds, parseErr := strconv.ParseInt(value, 10, 64); parseErr == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	retryTime, parseErr := http.ParseTime(value)
	if parseErr != nil {
		return 0
	}

	delay := time.Until(retryTime)
	if delay < 0 {
		return 0
	}
	return delay
}
