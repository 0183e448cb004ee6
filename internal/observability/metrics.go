package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "trade-graphql-mcp"

// ToolMetrics holds metrics for MCP tool calls.
type ToolMetrics struct {
	callDuration metric.Float64Histogram
	callCounter  metric.Int64Counter
	errorCounter metric.Int64Counter
	activeCalls  metric.Int64UpDownCounter
	queryBytes   metric.Int64Histogram
}

// UpstreamMetrics holds metrics for requests to the GraphQL gateway.
type UpstreamMetrics struct {
	requestDuration metric.Float64Histogram
	requestCounter  metric.Int64Counter
	errorCounter    metric.Int64Counter
}

// InitToolMetrics initializes tool call metrics.
func InitToolMetrics() (*ToolMetrics, error) {
	meter := otel.Meter(meterName)

	callDuration, err := meter.Float64Histogram(
		"mcp.tool.duration",
		metric.WithDescription("Duration of MCP tool calls in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}

	callCounter, err := meter.Int64Counter(
		"mcp.tool.calls.total",
		metric.WithDescription("Total number of MCP tool calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool call counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"mcp.tool.errors.total",
		metric.WithDescription("Total number of MCP tool calls that returned an error result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool error counter: %w", err)
	}

	activeCalls, err := meter.Int64UpDownCounter(
		"mcp.tool.calls.active",
		metric.WithDescription("Number of MCP tool calls in progress"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active tool calls counter: %w", err)
	}

	queryBytes, err := meter.Int64Histogram(
		"mcp.tool.query.size",
		metric.WithDescription("Size of generated GraphQL documents"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query size histogram: %w", err)
	}

	return &ToolMetrics{
		callDuration: callDuration,
		callCounter:  callCounter,
		errorCounter: errorCounter,
		activeCalls:  activeCalls,
		queryBytes:   queryBytes,
	}, nil
}

// RecordCall records a finished tool call. errorKind is empty on success.
func (m *ToolMetrics) RecordCall(ctx context.Context, tool string, duration time.Duration, errorKind string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("tool", tool),
		attribute.Bool("is_error", errorKind != ""),
	}
	m.callDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.callCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	if errorKind != "" {
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("error_kind", errorKind),
		))
	}
}

// RecordQuerySize records the byte size of a generated query.
func (m *ToolMetrics) RecordQuerySize(ctx context.Context, resolver string, size int) {
	if m == nil {
		return
	}
	m.queryBytes.Record(ctx, int64(size), metric.WithAttributes(
		attribute.String("resolver", resolver),
	))
}

// IncrementActiveCalls increments the active calls counter.
func (m *ToolMetrics) IncrementActiveCalls(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeCalls.Add(ctx, 1)
}

// DecrementActiveCalls decrements the active calls counter.
func (m *ToolMetrics) DecrementActiveCalls(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeCalls.Add(ctx, -1)
}

// InitUpstreamMetrics initializes gateway request metrics.
func InitUpstreamMetrics() (*UpstreamMetrics, error) {
	meter := otel.Meter(meterName + "/upstream")

	requestDuration, err := meter.Float64Histogram(
		"upstream.request.duration",
		metric.WithDescription("Duration of GraphQL gateway requests in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream duration histogram: %w", err)
	}

	requestCounter, err := meter.Int64Counter(
		"upstream.requests.total",
		metric.WithDescription("Total number of GraphQL gateway requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"upstream.errors.total",
		metric.WithDescription("Total number of failed GraphQL gateway requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream error counter: %w", err)
	}

	return &UpstreamMetrics{
		requestDuration: requestDuration,
		requestCounter:  requestCounter,
		errorCounter:    errorCounter,
	}, nil
}

// RecordRequest records one gateway round trip. status is the HTTP status
// code, or zero when no response was received.
func (m *UpstreamMetrics) RecordRequest(ctx context.Context, resolver string, status int, duration time.Duration, errorKind string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("resolver", resolver),
		attribute.Int("http.status_code", status),
	}
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	if errorKind != "" {
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("resolver", resolver),
			attribute.String("error_kind", errorKind),
		))
	}
}

// InitMetrics initializes tool and upstream metrics.
func InitMetrics(logger *slog.Logger) (*ToolMetrics, *UpstreamMetrics, error) {
	tools, err := InitToolMetrics()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tool metrics: %w", err)
	}
	upstream, err := InitUpstreamMetrics()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize upstream metrics: %w", err)
	}

	logger.Info("custom tool metrics initialized")
	return tools, upstream, nil
}
