package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Authentication methods recorded by RecordAuthDecision.
const (
	AuthMethodOIDC       = "oidc"
	AuthMethodAdminToken = "admin_token"
)

// SecurityMetrics counts authentication decisions on the MCP endpoint, the
// catalog and the admin API. A nil *SecurityMetrics records nothing.
type SecurityMetrics struct {
	decisions   metric.Int64Counter
	adminAccess metric.Int64Counter
}

// InitSecurityMetrics registers the security counters on the global meter
// provider.
func InitSecurityMetrics() (*SecurityMetrics, error) {
	meter := otel.Meter(meterName + "/security")

	decisions, err := meter.Int64Counter(
		"security.auth.decisions.total",
		metric.WithDescription("Authentication decisions by endpoint, method and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth decisions counter: %w", err)
	}

	adminAccess, err := meter.Int64Counter(
		"security.admin.access.total",
		metric.WithDescription("Admin operations by authentication state and result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin access counter: %w", err)
	}

	return &SecurityMetrics{decisions: decisions, adminAccess: adminAccess}, nil
}

// RecordAuthDecision counts one authentication decision. An empty reason
// means the request was accepted.
func (m *SecurityMetrics) RecordAuthDecision(ctx context.Context, endpoint, method, reason string) {
	if m == nil {
		return
	}
	outcome := "accepted"
	if reason != "" {
		outcome = "rejected"
	}
	m.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("method", method),
		attribute.String("outcome", outcome),
		attribute.String("reason", reason),
	))
}

// RecordAdminEndpointAccess records one admin operation.
func (m *SecurityMetrics) RecordAdminEndpointAccess(ctx context.Context, operation string, authenticated bool, success bool) {
	if m == nil {
		return
	}
	m.adminAccess.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("authenticated", authenticated),
		attribute.Bool("success", success),
	))
}
