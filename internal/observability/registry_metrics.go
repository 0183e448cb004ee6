package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RegistryMetrics records checks of the resolver registry against the
// gateway schema.
type RegistryMetrics struct {
	verifyCounter   metric.Int64Counter
	missingCounter  metric.Int64Counter
	durationHist    metric.Float64Histogram
	lastSuccessUnix atomic.Int64
	resolverCount   atomic.Int64
}

// InitRegistryMetrics initializes registry verification metrics. The
// resolver gauge reports resolverCount until SetResolverCount is called.
func InitRegistryMetrics(logger *slog.Logger, resolverCount int) (*RegistryMetrics, error) {
	meter := otel.Meter(meterName)

	verifyCounter, err := meter.Int64Counter(
		"registry.verify.total",
		metric.WithDescription("Total number of registry verifications against the gateway schema"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry verify counter: %w", err)
	}

	missingCounter, err := meter.Int64Counter(
		"registry.verify.missing.total",
		metric.WithDescription("Resolvers found missing or mismatched during verification"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry missing counter: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"registry.verify.duration",
		metric.WithDescription("Duration of registry verifications in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry verify duration histogram: %w", err)
	}

	lastSuccessGauge, err := meter.Int64ObservableGauge(
		"registry.verify.last_success_unix",
		metric.WithDescription("Unix timestamp of the last verification that found every resolver"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry last success gauge: %w", err)
	}

	resolverGauge, err := meter.Int64ObservableGauge(
		"registry.resolvers",
		metric.WithDescription("Number of resolvers in the registry"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry resolver gauge: %w", err)
	}

	m := &RegistryMetrics{
		verifyCounter:  verifyCounter,
		missingCounter: missingCounter,
		durationHist:   durationHist,
	}
	m.resolverCount.Store(int64(resolverCount))

	_, err = meter.RegisterCallback(
		func(ctx context.Context, observer metric.Observer) error {
			observer.ObserveInt64(resolverGauge, m.resolverCount.Load())
			if value := m.lastSuccessUnix.Load(); value > 0 {
				observer.ObserveInt64(lastSuccessGauge, value)
			}
			return nil
		},
		lastSuccessGauge,
		resolverGauge,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register registry gauge callback: %w", err)
	}

	logger.Info("registry metrics initialized")
	return m, nil
}

// SetResolverCount updates the resolver gauge.
func (m *RegistryMetrics) SetResolverCount(n int) {
	if m == nil {
		return
	}
	m.resolverCount.Store(int64(n))
}

// RecordVerify records one verification. missing is the number of resolvers
// the gateway did not expose; err is set when the schema could not be fetched.
func (m *RegistryMetrics) RecordVerify(ctx context.Context, duration time.Duration, missing int, trigger string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case missing > 0:
		outcome = "mismatch"
	}
	attrs := metric.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.String("outcome", outcome),
	)

	m.verifyCounter.Add(ctx, 1, attrs)
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), attrs)
	if missing > 0 {
		m.missingCounter.Add(ctx, int64(missing), metric.WithAttributes(attribute.String("trigger", trigger)))
	}
	if outcome == "ok" {
		m.lastSuccessUnix.Store(time.Now().Unix())
	}
}
