package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		wantType      ErrorType
		wantRetryable bool
	}{
		{"unauthorized", 401, ErrorTypeAuth, false},
		{"forbidden", 403, ErrorTypeAuth, false},
		{"not found", 404, ErrorTypeNotFound, false},
		{"gone", 410, ErrorTypeGone, false},
		{"rate limited", 429, ErrorTypeRateLimit, true},
		{"bad request", 400, ErrorTypeBadRequest, false},
		{"unprocessable", 422, ErrorTypeBadRequest, false},
		{"internal error", 500, ErrorTypeServer, true},
		{"bad gateway", 502, ErrorTypeServer, true},
		{"unavailable", 503, ErrorTypeServer, true},
		{"teapot", 418, ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := ClassifyStatus(&Response{StatusCode: tt.statusCode})
			assert.Equal(t, tt.wantType, te.Type)
			assert.Equal(t, tt.wantRetryable, te.Retryable)
			assert.Equal(t, tt.statusCode, te.StatusCode)
		})
	}
}

func TestClassifyStatus_RetryAfterMetadata(t *testing.T) {
	resp := &Response{
		StatusCode: 429,
		Headers:    map[string][]string{"Retry-After": {"60"}},
	}

	te := ClassifyStatus(resp)
	require.NotNil(t, te.Metadata)
	assert.Equal(t, "60", te.Metadata["retry_after"])
}

func TestClassifyStatus_RetryAfterMetadataOn503(t *testing.T) {
	resp := &Response{
		StatusCode: 503,
		Headers:    map[string][]string{"Retry-After": {"30"}},
	}

	te := ClassifyStatus(resp)
	assert.Equal(t, ErrorTypeServer, te.Type)
	require.NotNil(t, te.Metadata)
	assert.Equal(t, "30", te.Metadata["retry_after"])

	// Other 5xx statuses carry no Retry-After convention.
	te = ClassifyStatus(&Response{
		StatusCode: 500,
		Headers:    map[string][]string{"Retry-After": {"30"}},
	})
	assert.Nil(t, te.Metadata)
}

func TestClassifyStatus_NoRetryAfterHeader(t *testing.T) {
	te := ClassifyStatus(&Response{StatusCode: 429})
	assert.Nil(t, te.Metadata)
	assert.True(t, te.Retryable)
}

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantType      ErrorType
		wantRetryable bool
	}{
		{"deadline exceeded", context.DeadlineExceeded, ErrorTypeTimeout, true},
		{"cancelled", context.Canceled, ErrorTypeCancelled, false},
		{"wrapped deadline", fmt.Errorf("do: %w", context.DeadlineExceeded), ErrorTypeTimeout, true},
		{"plain network failure", errors.New("dial tcp: connection refused"), ErrorTypeConnection, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := ClassifyErr(context.Background(), tt.err)
			assert.Equal(t, tt.wantType, te.Type)
			assert.Equal(t, tt.wantRetryable, te.Retryable)
			assert.ErrorIs(t, te, tt.err)
		})
	}
}

func TestTransportError_Error(t *testing.T) {
	withStatus := &TransportError{Type: ErrorTypeAuth, StatusCode: 401, Message: "bad token"}
	assert.Equal(t, "auth error (status 401): bad token", withStatus.Error())

	withoutStatus := &TransportError{Type: ErrorTypeTimeout, Message: "request timed out"}
	assert.Equal(t, "timeout error: request timed out", withoutStatus.Error())
}

func TestTransportError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	te := &TransportError{Type: ErrorTypeConnection, Message: "failed", Cause: cause}
	assert.ErrorIs(t, te, cause)
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "errorMessages array",
			body: `{"errorMessages": ["Issue does not exist", "No permission"]}`,
			want: "Issue does not exist; No permission",
		},
		{
			name: "message field",
			body: `{"message": "Token rejected"}`,
			want: "Token rejected",
		},
		{
			name: "field errors",
			body: `{"errors": {"summary": "Summary is required"}}`,
			want: "summary: Summary is required",
		},
		{
			name: "combined",
			body: `{"errorMessages": ["Bad input"], "message": "Validation failed"}`,
			want: "Bad input - Validation failed",
		},
		{
			name: "plain text",
			body: "upstream proxy error",
			want: "upstream proxy error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMessage([]byte(tt.body), 400))
		})
	}
}

func TestExtractMessage_EmptyBodyUsesDefault(t *testing.T) {
	assert.Contains(t, extractMessage(nil, 401), "Unauthorized")
	assert.Contains(t, extractMessage([]byte("  "), 503), "unavailable")
	assert.Contains(t, extractMessage(nil, 599), "599")
}

func TestExtractMessage_TruncatesLongRawBodies(t *testing.T) {
	long := strings.Repeat("x", 2000)
	got := extractMessage([]byte(long), 500)
	assert.Len(t, got, maxRawBodyLen)
}
