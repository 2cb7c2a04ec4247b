// Package transport provides the resilient request layer shared by the Jira
// and Confluence API surfaces.
//
// The transport layer separates protocol concerns (HTTP execution, timeout,
// error classification) from client-level concerns (endpoint shape, caching,
// version negotiation). Failures are normalized into *TransportError so that
// callers match on a closed taxonomy instead of probing ad hoc error fields.
package transport

import (
	"context"
)

// Transport executes a single request attempt with protocol-specific handling.
// Implementations convert every failure mode — network errors, timeouts and
// non-2xx responses alike — into *TransportError.
type Transport interface {
	// Execute sends a request and returns a response.
	// The context controls cancellation and the per-attempt deadline.
	// Returns *TransportError on failure.
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// Request represents a transport-agnostic request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, DELETE, PATCH)
	// Required, must be non-empty
	Method string

	// URL is the full request URL
	// Required
	URL string

	// Headers are request headers (case-insensitive)
	// Optional, may be nil or empty map
	Headers map[string]string

	// Body is the request body
	// Optional, may be nil or empty slice
	Body []byte
}

// Response represents a transport-agnostic response.
type Response struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Headers contains response headers
	Headers map[string][]string

	// Body is the response body
	Body []byte
}

// Header returns the first value for the named response header, or "".
func (r *Response) Header(name string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	values := r.Headers[name]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// RateLimiter paces outbound requests.
// Implementations block until a request is allowed.
type RateLimiter interface {
	// Wait blocks until a request is allowed under the configured pacing.
	// Returns an error only if the context is cancelled first.
	Wait(ctx context.Context) error
}
