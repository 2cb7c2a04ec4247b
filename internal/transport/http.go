package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxResponseBody bounds how much of a response body is read into memory.
const maxResponseBody = 10 * 1024 * 1024

// HTTPTransport executes requests over net/http with a bounded per-attempt
// timeout. Non-2xx responses are not success values: they are classified into
// *TransportError uniformly with network failures, so the retry layer sees a
// single failure shape.
type HTTPTransport struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPTransport creates an HTTP transport with the given per-attempt
// timeout. A zero timeout defaults to 30s.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTransport{
		// The attempt deadline is enforced per request via context so the
		// in-flight I/O is actually aborted, not merely abandoned.
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Execute sends one request attempt.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to build request: %v", err),
			Cause:   err,
		}
	}

	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		// Prefer the attempt deadline over the wrapped url.Error so a
		// timeout classifies as timeout, not connection.
		if attemptCtx.Err() == context.DeadlineExceeded {
			return nil, ClassifyErr(attemptCtx, context.DeadlineExceeded)
		}
		return nil, ClassifyErr(ctx, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			return nil, ClassifyErr(attemptCtx, context.DeadlineExceeded)
		}
		return nil, &TransportError{
			Type:      ErrorTypeConnection,
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     err,
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, ClassifyStatus(resp)
	}

	return resp, nil
}

// validateRequest rejects malformed requests before any I/O happens.
func validateRequest(req *Request) *TransportError {
	if req.Method == "" {
		return &TransportError{
			Type:    ErrorTypeBadRequest,
			Message: "request method is required",
		}
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return &TransportError{
			Type:    ErrorTypeBadRequest,
			Message: fmt.Sprintf("invalid request URL: %q", req.URL),
			Cause:   err,
		}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &TransportError{
			Type:    ErrorTypeBadRequest,
			Message: fmt.Sprintf("unsupported URL scheme: %q", parsed.Scheme),
		}
	}

	return nil
}
