package atlassian

import (
	"net/url"

	"github.com/atlasmcp/atlasmcp/internal/transport"
)

// Service identifies one of the two product API surfaces sharing the client.
type Service string

const (
	// ServiceJira is the Jira issue-tracking API surface.
	ServiceJira Service = "jira"

	// ServiceConfluence is the Confluence wiki API surface.
	ServiceConfluence Service = "confluence"
)

// RequestDescriptor identifies a single logical API call. The Path is
// relative to the service's versioned prefix, which the client resolves at
// execution time. Descriptors are immutable once built; the client never
// mutates one.
type RequestDescriptor struct {
	// Service selects the product surface (and its version state)
	Service Service

	// Method is the HTTP method
	Method string

	// Path is the endpoint path below the versioned API prefix,
	// e.g. "/search" or "/issue/PROJ-123"
	Path string

	// Query holds URL query parameters
	Query url.Values

	// Body is the JSON request body, if any
	Body []byte

	// Headers are additional request headers merged over the defaults
	Headers map[string]string

	// Idempotent marks the call safe to cache and retry (true for GET)
	Idempotent bool
}

// Get builds an idempotent GET descriptor.
func Get(service Service, path string, query url.Values) *RequestDescriptor {
	return &RequestDescriptor{
		Service:    service,
		Method:     "GET",
		Path:       path,
		Query:      query,
		Idempotent: true,
	}
}

// Post builds a POST descriptor with a JSON body.
func Post(service Service, path string, body []byte) *RequestDescriptor {
	return &RequestDescriptor{
		Service: service,
		Method:  "POST",
		Path:    path,
		Body:    body,
	}
}

// Put builds a PUT descriptor with a JSON body.
func Put(service Service, path string, body []byte) *RequestDescriptor {
	return &RequestDescriptor{
		Service: service,
		Method:  "PUT",
		Path:    path,
		Body:    body,
	}
}

// cacheKey derives the stable cache key for this descriptor at the given
// versioned prefix. The version segment is part of the key: a downgraded
// request is a different network call and must not alias the old entry.
func (d *RequestDescriptor) cacheKey(prefix string) string {
	query := ""
	if d.Query != nil {
		query = d.Query.Encode()
	}
	return transport.CacheKey(d.Method, prefix+d.Path, query, d.Body)
}
