package observability

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestInitMeterProvider(t *testing.T) {
	cfg := Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Environment:    "test",
	}

	mp, err := InitMeterProvider(cfg)
	require.NoError(t, err, "Should initialize meter provider without error")
	require.NotNil(t, mp, "Meter provider should not be nil")
	require.NotNil(t, mp.provider, "Provider should not be nil")
	require.NotNil(t, mp.exporter, "Exporter should not be nil")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err = mp.Shutdown(context.Background(), logger)
	assert.NoError(t, err, "Should shutdown without error")
}

func TestInitMetrics(t *testing.T) {
	mp, err := InitMeterProvider(Config{ServiceName: "test-service", ServiceVersion: "1.0.0", Environment: "test"})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	defer func() { _ = mp.Shutdown(context.Background(), logger) }()

	toolMetrics, upstreamMetrics, err := InitMetrics(logger)
	require.NoError(t, err)
	require.NotNil(t, toolMetrics)
	require.NotNil(t, upstreamMetrics)
	assert.NotNil(t, toolMetrics.callDuration)
	assert.NotNil(t, toolMetrics.callCounter)
	assert.NotNil(t, toolMetrics.errorCounter)
	assert.NotNil(t, toolMetrics.activeCalls)
	assert.NotNil(t, upstreamMetrics.requestDuration)

	registryMetrics, err := InitRegistryMetrics(logger, 12)
	require.NoError(t, err)
	ctx := context.Background()
	registryMetrics.RecordVerify(ctx, 20*time.Millisecond, 0, "admin", nil)
	assert.Positive(t, registryMetrics.lastSuccessUnix.Load())

	registryMetrics.lastSuccessUnix.Store(0)
	registryMetrics.RecordVerify(ctx, 20*time.Millisecond, 2, "startup", nil)
	registryMetrics.RecordVerify(ctx, time.Millisecond, 0, "admin", errors.New("gateway down"))
	assert.Zero(t, registryMetrics.lastSuccessUnix.Load())

	registryMetrics.SetResolverCount(13)
	assert.Equal(t, int64(13), registryMetrics.resolverCount.Load())

	var nilMetrics *RegistryMetrics
	nilMetrics.RecordVerify(ctx, 0, 1, "admin", nil)
	nilMetrics.SetResolverCount(1)
}

func TestParseOTLPProtocol(t *testing.T) {
	tests := []struct {
		in      string
		want    otlpProtocol
		wantErr bool
	}{
		{"", otlpProtocolGRPC, false},
		{"GRPC", otlpProtocolGRPC, false},
		{"http", otlpProtocolHTTP, false},
		{" http/protobuf ", otlpProtocolHTTP, false},
		{"thrift", "", true},
	}
	for _, tt := range tests {
		got, err := parseOTLPProtocol(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestResolveExporterSettings(t *testing.T) {
	s, err := resolveExporterSettings(OTLPExporterConfig{
		Endpoint:         "https://collector.example.com:4318",
		Compression:      "gzip",
		RetryEnabled:     true,
		RetryMaxAttempts: 3,
		Headers:          map[string]string{"x-tenant": "trade"},
	})
	require.NoError(t, err)
	assert.True(t, s.endpointURL)
	assert.True(t, s.gzip)
	assert.True(t, s.retry)
	require.NotNil(t, s.tls)
	assert.Equal(t, uint16(tls.VersionTLS12), s.tls.MinVersion)
	assert.Len(t, httpTraceOptions(s), 5)
	assert.Len(t, grpcLogOptions(s), 5)

	s, err = resolveExporterSettings(OTLPExporterConfig{
		Endpoint:         "localhost:4317",
		Insecure:         true,
		RetryEnabled:     true,
		RetryMaxAttempts: 0,
		TLSCertFile:      "/nonexistent/ca.pem",
	})
	require.NoError(t, err, "insecure exporters never load TLS material")
	assert.False(t, s.endpointURL)
	assert.False(t, s.retry)
	assert.Nil(t, s.tls)
	assert.Len(t, grpcTraceOptions(s), 2)
	assert.Len(t, httpLogOptions(s), 2)

	_, err = resolveExporterSettings(OTLPExporterConfig{Endpoint: "localhost:4317", TLSCertFile: "/nonexistent/ca.pem"})
	assert.Error(t, err)
}

func TestBuildTLSConfig_FileNotFound(t *testing.T) {
	// Missing CA file should surface a clear error.
	_, err := buildTLSConfig(OTLPExporterConfig{
		TLSCertFile: "/nonexistent/ca.pem",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read OTLP TLS CA file")
}

func TestBuildTLSConfig_InvalidCertFormat(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/ca.pem"

	// Write a non-PEM payload to trigger parse failure.
	require.NoError(t, os.WriteFile(path, []byte("not-a-cert"), 0600))

	_, err := buildTLSConfig(OTLPExporterConfig{
		TLSCertFile: path,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse OTLP TLS CA file")
}

func TestBuildTLSConfig_MissingClientKeyPair(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/client.crt"

	// Only set the cert path to ensure missing key is rejected.
	require.NoError(t, os.WriteFile(path, []byte("not-a-cert"), 0600))

	_, err := buildTLSConfig(OTLPExporterConfig{
		TLSClientCertFile: path,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTLP TLS client cert and key must both be set")
}

func TestTraceSamplerForRatio_Boundaries(t *testing.T) {
	never := traceSamplerForRatio(0)
	always := traceSamplerForRatio(1)

	decisionNever := never.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       trace.TraceID{1},
		Name:          "test",
	}).Decision
	assert.Equal(t, sdktrace.Drop, decisionNever)

	decisionAlways := always.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       trace.TraceID{2},
		Name:          "test",
	}).Decision
	assert.Equal(t, sdktrace.RecordAndSample, decisionAlways)
}

func TestTraceSamplerForRatio_ParentAwareMidRange(t *testing.T) {
	sampler := traceSamplerForRatio(0.5)

	parentSampled := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{3},
		SpanID:     trace.SpanID{1},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))
	decisionSampledParent := sampler.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: parentSampled,
		TraceID:       trace.TraceID{4},
		Name:          "child",
	}).Decision
	assert.Equal(t, sdktrace.RecordAndSample, decisionSampledParent)

	parentNotSampled := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{5},
		SpanID:  trace.SpanID{2},
		Remote:  true,
	}))
	decisionUnsampledParent := sampler.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: parentNotSampled,
		TraceID:       trace.TraceID{6},
		Name:          "child",
	}).Decision
	assert.Equal(t, sdktrace.Drop, decisionUnsampledParent)
}
