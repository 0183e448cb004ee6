// Package upstream is the HTTP client for the trade statistics GraphQL
// gateway (Azure API Management in front of the data API).
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"trade-graphql-mcp/internal/gqlrequest"
	"trade-graphql-mcp/internal/logging"
	"trade-graphql-mcp/internal/observability"
)

// DefaultSubscriptionKeyHeader is the header APIM reads the key from.
const DefaultSubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

const (
	defaultTimeout            = 30 * time.Second
	defaultDebugQueryMaxChars = 500
	maxResponseBytes          = 32 << 20
)

// Config configures a Client.
type Config struct {
	Endpoint              string
	SubscriptionKey       string
	SubscriptionKeyHeader string
	Timeout               time.Duration
	// DebugQueryMaxChars truncates query text in debug logs.
	DebugQueryMaxChars int
}

// Response is a successful gateway response.
type Response struct {
	// Raw is the response body as received.
	Raw        json.RawMessage `json:"-"`
	Data       json.RawMessage `json:"data"`
	Errors     []ErrorDetail   `json:"errors,omitempty"`
	Extensions json.RawMessage `json:"extensions,omitempty"`

	RequestID  string `json:"-"`
	StatusCode int    `json:"-"`
}

// Client posts inline-literal queries to the gateway. It is safe for
// concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *logging.Logger
	metrics *observability.UpstreamMetrics
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its transport is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics sets the request metrics.
func WithMetrics(m *observability.UpstreamMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient validates cfg and returns a client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("upstream endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("upstream endpoint %q must be an absolute http(s) URL", endpoint)
	}
	cfg.Endpoint = endpoint
	if cfg.SubscriptionKeyHeader == "" {
		cfg.SubscriptionKeyHeader = DefaultSubscriptionKeyHeader
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.DebugQueryMaxChars <= 0 {
		cfg.DebugQueryMaxChars = defaultDebugQueryMaxChars
	}

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	return c, nil
}

// Endpoint returns the configured gateway URL.
func (c *Client) Endpoint() string {
	return c.cfg.Endpoint
}

// Execute sends query and returns the decoded response. Non-2xx statuses
// yield *HTTPError and a non-empty errors array yields *GraphQLError.
func (c *Client) Execute(ctx context.Context, query string) (*Response, error) {
	meta, _ := gqlrequest.CallMetaFromContext(ctx)
	requestID := "req-" + uuid.NewString()
	logger := c.logger.WithFields(
		slog.String("upstream_request_id", requestID),
		slog.String("tool", meta.Tool),
		slog.String("resolver", meta.Resolver),
	)
	if id := logging.GetRequestID(ctx); id != "" {
		logger = logger.WithRequestID(id)
	}

	start := time.Now()
	resp, status, err := c.do(ctx, query, requestID, logger)
	duration := time.Since(start)

	kind := ErrorKind(err)
	c.metrics.RecordRequest(ctx, meta.Resolver, status, duration, kind)

	if err != nil {
		logger.Error("graphql request failed",
			slog.String("error_kind", kind),
			slog.Int("status", status),
			slog.Int64("duration_ms", duration.Milliseconds()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	logger.Debug("graphql request completed",
		slog.Int("status", status),
		slog.Int64("duration_ms", duration.Milliseconds()),
		slog.Int("response_bytes", len(resp.Raw)),
	)
	return resp, nil
}

func (c *Client) do(ctx context.Context, query, requestID string, logger *logging.Logger) (*Response, int, error) {
	body, err := gqlrequest.EncodeQuery(query)
	if err != nil {
		return nil, 0, err
	}

	logger.Debug("executing graphql request",
		slog.String("endpoint", c.cfg.Endpoint),
		slog.Int("query_length", len(query)),
		slog.String("query", gqlrequest.Truncate(query, c.cfg.DebugQueryMaxChars)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.cfg.SubscriptionKey != "" {
		req.Header.Set(c.cfg.SubscriptionKeyHeader, c.cfg.SubscriptionKey)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("graphql request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, httpResp.StatusCode, &HTTPError{
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Body:       truncateBody(raw),
		}
	}

	resp := &Response{RequestID: requestID, StatusCode: httpResp.StatusCode}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	resp.Raw = raw
	if len(resp.Errors) > 0 {
		return nil, httpResp.StatusCode, &GraphQLError{Details: resp.Errors}
	}
	return resp, httpResp.StatusCode, nil
}
