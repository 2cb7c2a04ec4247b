package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorType classifies transport errors for routing and retry decisions.
type ErrorType string

const (
	// ErrorTypeConnection indicates network or DNS errors
	ErrorTypeConnection ErrorType = "connection"

	// ErrorTypeTimeout indicates the attempt exceeded its deadline
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeAuth indicates authentication failure (401, 403)
	ErrorTypeAuth ErrorType = "auth"

	// ErrorTypeRateLimit indicates rate limiting (429 Too Many Requests)
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeServer indicates server errors (5xx)
	ErrorTypeServer ErrorType = "server"

	// ErrorTypeNotFound indicates a missing resource (404)
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeGone indicates the addressed API generation was withdrawn (410).
	// Never retried by the generic backoff loop; it is a version-negotiation
	// signal handled one level up.
	ErrorTypeGone ErrorType = "gone"

	// ErrorTypeBadRequest indicates invalid input (400, 422)
	ErrorTypeBadRequest ErrorType = "bad_request"

	// ErrorTypeCancelled indicates the caller's context was cancelled
	ErrorTypeCancelled ErrorType = "cancelled"

	// ErrorTypeUnknown covers everything else
	ErrorTypeUnknown ErrorType = "unknown"
)

// maxRawBodyLen bounds how much of a non-JSON error body is surfaced.
const maxRawBodyLen = 500

// TransportError represents a structured error from request execution.
// All failures — thrown network errors, timeouts and non-2xx responses — are
// converted to TransportError exactly once, at the transport boundary.
type TransportError struct {
	// Type classifies the error for routing and retry decisions
	Type ErrorType

	// StatusCode is the HTTP status code if applicable
	// Zero for non-HTTP errors (connection, timeout, etc.)
	StatusCode int

	// Message is the most specific diagnostic available: parsed from the
	// server's JSON error body where possible, truncated raw text otherwise
	Message string

	// RequestID correlates the failure with log lines for the same call
	RequestID string

	// Retryable indicates whether the error is safe to retry
	Retryable bool

	// Cause is the underlying error, if any
	Cause error

	// Metadata carries service-specific detail (e.g. retry_after)
	Metadata map[string]string
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if the error should be retried.
func (e *TransportError) IsRetryable() bool {
	return e.Retryable
}

// IsType returns true if the error is of the given type.
func (e *TransportError) IsType(t ErrorType) bool {
	return e.Type == t
}

// ClassifyStatus converts a non-2xx response into a TransportError.
// The recoverable set is fixed: 429 and 5xx retry, everything else surfaces
// immediately. 410 is classified as gone so the caller can downgrade the
// addressed API generation instead of retrying.
func ClassifyStatus(resp *Response) *TransportError {
	te := &TransportError{
		StatusCode: resp.StatusCode,
		Message:    extractMessage(resp.Body, resp.StatusCode),
	}

	switch {
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		te.Type = ErrorTypeAuth
	case resp.StatusCode == 404:
		te.Type = ErrorTypeNotFound
	case resp.StatusCode == 410:
		te.Type = ErrorTypeGone
	case resp.StatusCode == 429:
		te.Type = ErrorTypeRateLimit
		te.Retryable = true
		if ra := resp.Header("Retry-After"); ra != "" {
			te.Metadata = map[string]string{"retry_after": ra}
		}
	case resp.StatusCode == 400 || resp.StatusCode == 422:
		te.Type = ErrorTypeBadRequest
	case resp.StatusCode >= 500:
		te.Type = ErrorTypeServer
		te.Retryable = true
		// 503 responses advertise Retry-After the same way 429 does.
		if resp.StatusCode == 503 {
			if ra := resp.Header("Retry-After"); ra != "" {
				te.Metadata = map[string]string{"retry_after": ra}
			}
		}
	default:
		te.Type = ErrorTypeUnknown
	}

	return te
}

// ClassifyErr converts a failed attempt (no HTTP response) into a
// TransportError. Deadline overruns classify as timeout, caller cancellation
// as cancelled, anything reachable over the network as connection.
func ClassifyErr(ctx context.Context, err error) *TransportError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &TransportError{
			Type:      ErrorTypeTimeout,
			Message:   "request timed out",
			Retryable: true,
			Cause:     err,
		}
	case errors.Is(err, context.Canceled):
		return &TransportError{
			Type:      ErrorTypeCancelled,
			Message:   "request cancelled",
			Retryable: false,
			Cause:     err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{
			Type:      ErrorTypeTimeout,
			Message:   "request timed out",
			Retryable: true,
			Cause:     err,
		}
	}

	// Remaining url.Error / syscall failures are connection-level.
	return &TransportError{
		Type:      ErrorTypeConnection,
		Message:   fmt.Sprintf("connection failed: %v", err),
		Retryable: true,
		Cause:     err,
	}
}

// extractMessage pulls the most specific server diagnostic out of an error
// body. Atlassian APIs respond with any of:
//
//	{"errorMessages": ["..."], "errors": {"field": "..."}}
//	{"message": "..."}
//
// Non-JSON bodies are surfaced verbatim, truncated to maxRawBodyLen.
func extractMessage(body []byte, statusCode int) string {
	if len(body) == 0 {
		return defaultMessage(statusCode)
	}

	var parsed struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
		Message       string            `json:"message"`
	}

	if err := json.Unmarshal(body, &parsed); err == nil {
		var parts []string
		if len(parsed.ErrorMessages) > 0 {
			parts = append(parts, strings.Join(parsed.ErrorMessages, "; "))
		}
		if parsed.Message != "" {
			parts = append(parts, parsed.Message)
		}
		if len(parsed.Errors) > 0 {
			fieldErrors := make([]string, 0, len(parsed.Errors))
			for field, msg := range parsed.Errors {
				fieldErrors = append(fieldErrors, fmt.Sprintf("%s: %s", field, msg))
			}
			parts = append(parts, strings.Join(fieldErrors, "; "))
		}
		if len(parts) > 0 {
			return strings.Join(parts, " - ")
		}
	}

	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return defaultMessage(statusCode)
	}
	if len(raw) > maxRawBodyLen {
		raw = raw[:maxRawBodyLen]
	}
	return raw
}

// defaultMessage returns a generic diagnostic for a status code when the
// server provided no usable body.
func defaultMessage(statusCode int) string {
	switch statusCode {
	case 400:
		return "Bad request - check your input parameters"
	case 401:
		return "Unauthorized - check your authentication credentials"
	case 403:
		return "Forbidden - you don't have permission to access this resource"
	case 404:
		return "Not found - the requested resource does not exist"
	case 410:
		return "Gone - this API version has been removed"
	case 429:
		return "Rate limit exceeded - too many requests"
	case 500:
		return "Internal server error"
	case 502:
		return "Bad gateway"
	case 503:
		return "Service unavailable"
	default:
		return fmt.Sprintf("Request failed with status %d", statusCode)
	}
}
