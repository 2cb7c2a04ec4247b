// Package atlassian implements the resilient client shared by the Jira and
// Confluence tool surfaces. A Client owns its own response cache, request
// pacer and per-service version state; nothing here is process-global, so two
// clients (or two tests) never interfere.
package atlassian

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/atlasmcp/atlasmcp/internal/log"
	"github.com/atlasmcp/atlasmcp/internal/transport"
)

const tracerName = "github.com/atlasmcp/atlasmcp/internal/atlassian"

// Options configures a Client.
type Options struct {
	// BaseURL is the site root, e.g. https://your-domain.atlassian.net
	BaseURL string

	// Email and APIToken form the Basic credential pair
	Email    string
	APIToken string

	// Timeout bounds each individual attempt (default: 30s)
	Timeout time.Duration

	// MaxRetries is the total attempt budget per logical call (default: 3)
	MaxRetries int

	// InitialBackoff seeds the exponential backoff (default: 1s)
	InitialBackoff time.Duration

	// RateLimitInterval is the minimum spacing between outbound requests.
	// Zero disables pacing (the default).
	RateLimitInterval time.Duration

	// CacheEnabled turns on response memoization for idempotent reads
	// (default: true — set CacheDisabled to opt out)
	CacheDisabled bool

	// CacheTTL bounds the lifetime of cached responses (default: 5m)
	CacheTTL time.Duration

	// Logger receives structured request lifecycle events.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics receives request counters. May be nil.
	Metrics *transport.MetricsCollector

	// Transport overrides the HTTP transport. Intended for tests.
	Transport transport.Transport
}

// Client executes logical API calls end-to-end with resilience: cache check,
// rate-limit wait, bounded attempts with timeout, classified failures,
// retry-with-backoff and version fallback.
type Client struct {
	baseURL    string
	authHeader string

	transport  transport.Transport
	retry      *transport.RetryConfig
	cache      *transport.ResponseCache
	pacer      *transport.Pacer
	negotiator *Negotiator
	metrics    *transport.MetricsCollector
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewClient constructs a Client from options.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("atlassian: base URL is required (e.g. https://your-domain.atlassian.net)")
	}
	if opts.Email == "" || opts.APIToken == "" {
		return nil, errors.New("atlassian: email and API token are required")
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	initialBackoff := opts.InitialBackoff
	if initialBackoff <= 0 {
		initialBackoff = 1 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tr := opts.Transport
	if tr == nil {
		tr = transport.NewHTTPTransport(timeout)
	}

	credentials := opts.Email + ":" + opts.APIToken
	encoded := base64.StdEncoding.EncodeToString([]byte(credentials))

	c := &Client{
		baseURL:    baseURL,
		authHeader: "Basic " + encoded,
		transport:  tr,
		retry: &transport.RetryConfig{
			MaxAttempts:    maxRetries,
			InitialBackoff: initialBackoff,
			MaxBackoff:     30 * time.Second,
		},
		pacer:   transport.NewPacer(opts.RateLimitInterval),
		metrics: opts.Metrics,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}

	if !opts.CacheDisabled {
		c.cache = transport.NewResponseCache(opts.CacheTTL)
	}

	c.negotiator = NewNegotiator(c.probeGeneration)

	return c, nil
}

// Negotiator exposes the client's version negotiator.
func (c *Client) Negotiator() *Negotiator {
	return c.negotiator
}

// ClearCache drops all memoized responses. Used for test isolation.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Execute runs one logical call end-to-end and returns the raw response
// body. JSON responses come back as-is for the caller to decode; non-JSON
// bodies are returned verbatim. Failures are always a *transport.TransportError.
//
// Multiple Execute calls may be in flight concurrently; they share only the
// cache, the pacer and per-service version state. Identical concurrent
// idempotent calls are not coalesced — each performs its own attempt.
func (c *Client) Execute(ctx context.Context, desc *RequestDescriptor) (json.RawMessage, error) {
	requestID := uuid.NewString()
	logger := log.WithRequestID(c.logger, requestID)
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "atlassian.execute", trace.WithAttributes(
		attribute.String("atlassian.service", string(desc.Service)),
		attribute.String("http.method", desc.Method),
		attribute.String("atlassian.path", desc.Path),
	))
	defer span.End()

	gen := c.negotiator.ResolveVersion(desc.Service)
	span.SetAttributes(attribute.String("atlassian.api_version", gen.ID))

	cacheable := c.cache != nil && desc.Idempotent
	if cacheable {
		key := desc.cacheKey(gen.Prefix)
		if body, ok := c.cache.Get(key); ok {
			c.metrics.RecordCacheHit(string(desc.Service))
			logger.Debug("cache hit",
				slog.String(log.ServiceKey, string(desc.Service)),
				slog.String("path", desc.Path))
			return body, nil
		}
		c.metrics.RecordCacheMiss(string(desc.Service))
	}

	waitStart := time.Now()
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, &transport.TransportError{
			Type:      transport.ErrorTypeCancelled,
			Message:   "request cancelled while waiting for rate limit",
			RequestID: requestID,
			Cause:     err,
		}
	}
	c.metrics.RecordRateLimitWait(string(desc.Service), time.Since(waitStart))

	resp, err := c.attempt(ctx, desc, gen, logger)

	// A gone classification against the current default version is a
	// version-negotiation event, not a retryable failure: downgrade once and
	// replay the identical call at the older generation. A second gone — or
	// a missing fallback tier — surfaces to the caller.
	var te *transport.TransportError
	if errors.As(err, &te) && te.IsType(transport.ErrorTypeGone) {
		if next, ok := c.negotiator.MarkGone(desc.Service, gen); ok {
			logger.Warn("API version gone, downgrading",
				slog.String(log.ServiceKey, string(desc.Service)),
				slog.String("from", gen.ID),
				slog.String(log.VersionKey, next.ID))
			span.SetAttributes(attribute.String("atlassian.downgraded_to", next.ID))
			gen = next
			resp, err = c.attempt(ctx, desc, gen, logger)
		}
	}

	duration := time.Since(start)

	if err != nil {
		if errors.As(err, &te) {
			if te.RequestID == "" {
				te.RequestID = requestID
			}
			c.metrics.RecordError(string(desc.Service), te.Type)
			c.metrics.RecordRequest(string(desc.Service), desc.Method, te.StatusCode, duration)
		}
		span.RecordError(err)
		logger.Debug("request failed",
			slog.String(log.ServiceKey, string(desc.Service)),
			slog.String("method", desc.Method),
			slog.String("path", desc.Path),
			slog.Int64(log.DurationKey, duration.Milliseconds()),
			log.Error(err))
		return nil, err
	}

	c.metrics.RecordRequest(string(desc.Service), desc.Method, resp.StatusCode, duration)
	logger.Debug("request completed",
		slog.String(log.ServiceKey, string(desc.Service)),
		slog.String("method", desc.Method),
		slog.String("path", desc.Path),
		slog.Int("status", resp.StatusCode),
		slog.Int64(log.DurationKey, duration.Milliseconds()))

	if cacheable {
		c.cache.Set(desc.cacheKey(gen.Prefix), resp.Body)
		c.metrics.RecordCacheSize(string(desc.Service), c.cache.Len())
	}

	return resp.Body, nil
}

// attempt runs the bounded retry loop for one version of the call.
func (c *Client) attempt(ctx context.Context, desc *RequestDescriptor, gen Generation, logger *slog.Logger) (*transport.Response, error) {
	req := c.buildRequest(desc, gen)

	attemptNum := 0
	return transport.ExecuteWithRetry(ctx, c.retry, func(ctx context.Context) (*transport.Response, error) {
		attemptNum++
		if attemptNum > 1 {
			c.metrics.RecordRetry(string(desc.Service), desc.Method)
			logger.Debug("retrying request",
				slog.String(log.ServiceKey, string(desc.Service)),
				slog.String("path", desc.Path),
				slog.Int("attempt", attemptNum))
		}
		return c.transport.Execute(ctx, req)
	})
}

// buildRequest materializes a descriptor into a transport request addressed
// at the given generation. The descriptor itself is never mutated.
func (c *Client) buildRequest(desc *RequestDescriptor, gen Generation) *transport.Request {
	url := c.baseURL + gen.Prefix + desc.Path
	if desc.Query != nil {
		if encoded := desc.Query.Encode(); encoded != "" {
			url += "?" + encoded
		}
	}

	headers := map[string]string{
		"Authorization": c.authHeader,
		"Accept":        "application/json",
	}
	if len(desc.Body) > 0 {
		headers["Content-Type"] = "application/json"
	}
	for name, value := range desc.Headers {
		headers[name] = value
	}

	return &transport.Request{
		Method:  desc.Method,
		URL:     url,
		Headers: headers,
		Body:    desc.Body,
	}
}

// probeGeneration performs the one-time canary GET used by the negotiator.
func (c *Client) probeGeneration(ctx context.Context, gen Generation) bool {
	req := &transport.Request{
		Method: "GET",
		URL:    c.baseURL + gen.Prefix + gen.CanaryPath,
		Headers: map[string]string{
			"Authorization": c.authHeader,
			"Accept":        "application/json",
		},
	}

	_, err := c.transport.Execute(ctx, req)
	if err != nil {
		c.logger.Debug("version probe failed",
			slog.String(log.VersionKey, gen.ID),
			slog.String("canary", gen.CanaryPath),
			log.Error(err))
		return false
	}
	return true
}

// Probe checks, once per process, whether the service's current generation
// is reachable. The result is cached indefinitely.
func (c *Client) Probe(ctx context.Context, service Service) bool {
	return c.negotiator.Probe(ctx, service)
}

// ErrorText renders a classified error for tool consumers, preserving the
// server's own diagnostic where available.
func ErrorText(err error) string {
	var te *transport.TransportError
	if errors.As(err, &te) {
		return fmt.Sprintf("%s (%s)", te.Message, te.Type)
	}
	return err.Error()
}
