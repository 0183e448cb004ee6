package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	// Helper to create a valid base config
	validConfig := func() *Config {
		return &Config{
			Upstream: UpstreamConfig{
				Endpoint:              "https://gateway.example.com/trade/graphql",
				SubscriptionKey:       "key",
				SubscriptionKeyHeader: "Ocp-Apim-Subscription-Key",
				Timeout:               30 * time.Second,
				MaxPageSize:           1000,
				DefaultPageSize:       50,
				DebugQueryMaxChars:    500,
				MaxQueryDepth:         10,
			},
			Server: ServerConfig{
				Transport: TransportHTTP,
				Port:      3000,
				MCPPath:   "/mcp",
			},
			Audit: AuditConfig{
				Table:   "tool_invocations",
				Timeout: 2 * time.Second,
			},
			Observability: ObservabilityConfig{
				Logging: LoggingConfig{
					Level:  "info",
					Format: "json",
				},
				OTLP: OTLPConfig{
					Protocol:    "grpc",
					Compression: "gzip",
				},
			},
		}
	}

	t.Run("valid config passes validation", func(t *testing.T) {
		cfg := validConfig()
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Empty(t, result.Errors)
	})

	t.Run("upstream endpoint required", func(t *testing.T) {
		cfg := validConfig()
		cfg.Upstream.Endpoint = " "
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "upstream.endpoint")
	})

	t.Run("upstream endpoint must be absolute http(s)", func(t *testing.T) {
		for _, endpoint := range []string{"gateway.example.com/graphql", "ftp://gateway.example.com", "/graphql"} {
			cfg := validConfig()
			cfg.Upstream.Endpoint = endpoint
			result := cfg.Validate()
			assert.True(t, result.HasErrors(), "endpoint %q should be rejected", endpoint)
		}
	})

	t.Run("plain http endpoint warns", func(t *testing.T) {
		cfg := validConfig()
		cfg.Upstream.Endpoint = "http://localhost:8080/graphql"
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0].Message, "plain http")
	})

	t.Run("missing subscription key warns", func(t *testing.T) {
		cfg := validConfig()
		cfg.Upstream.SubscriptionKey = ""
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Len(t, result.Warnings, 1)
		assert.Equal(t, "upstream.subscription_key", result.Warnings[0].Field)
	})

	t.Run("page sizes", func(t *testing.T) {
		cfg := validConfig()
		cfg.Upstream.MaxPageSize = 0
		cfg.Upstream.DefaultPageSize = 0
		result := cfg.Validate()
		assert.Contains(t, result.Error(), "upstream.max_page_size")
		assert.Contains(t, result.Error(), "upstream.default_page_size")

		cfg = validConfig()
		cfg.Upstream.MaxPageSize = 10
		cfg.Upstream.DefaultPageSize = 50
		result = cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0].Message, "default_page_size")
	})

	t.Run("negative upstream limits invalid", func(t *testing.T) {
		cfg := validConfig()
		cfg.Upstream.Timeout = 0
		cfg.Upstream.DebugQueryMaxChars = -1
		cfg.Upstream.MaxQueryDepth = -1
		cfg.Upstream.SubscriptionKeyHeader = ""
		result := cfg.Validate()
		assert.Len(t, result.Errors, 4)
		assert.Contains(t, result.Error(), "upstream.timeout")
		assert.Contains(t, result.Error(), "debug_query_max_chars")
		assert.Contains(t, result.Error(), "max_query_depth")
		assert.Contains(t, result.Error(), "subscription_key_header")
	})

	t.Run("overlay without yaml extension warns", func(t *testing.T) {
		cfg := validConfig()
		cfg.Registry.OverlayFile = "resolvers.json"
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Len(t, result.Warnings, 1)

		cfg.Registry.OverlayFile = "resolvers.yml"
		assert.Empty(t, cfg.Validate().Warnings)
	})

	t.Run("transport", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Transport = TransportStdio
		assert.False(t, cfg.Validate().HasErrors())

		cfg.Server.Transport = "sse"
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "server.transport")
	})

	t.Run("stdio ignores http auth settings", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Transport = TransportStdio
		cfg.Server.Admin.Enabled = true
		cfg.Server.Admin.AuthToken = "secret"
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0].Message, "stdio")
	})

	t.Run("mcp path", func(t *testing.T) {
		for _, p := range []string{"", "mcp", "/", "/health", "/catalog/"} {
			cfg := validConfig()
			cfg.Server.MCPPath = p
			result := cfg.Validate()
			assert.True(t, result.HasErrors(), "path %q should be rejected", p)
			assert.Contains(t, result.Error(), "server.mcp_path")
		}
	})

	t.Run("admin requires token or OIDC", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Admin.Enabled = true
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "server.admin.auth_token")

		cfg.Server.Admin.AuthToken = "secret"
		assert.False(t, cfg.Validate().HasErrors())
	})

	t.Run("graphiql without catalog warns", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.GraphiQLEnabled = true
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Len(t, result.Warnings, 1)
	})

	t.Run("audit enabled requires DSN", func(t *testing.T) {
		cfg := validConfig()
		cfg.Audit.Enabled = true
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "audit.dsn")

		cfg.Audit.DSN = "user:pass@tcp(localhost:4000)/audit"
		assert.False(t, cfg.Validate().HasErrors())
	})

	t.Run("audit invalid DSN and table", func(t *testing.T) {
		cfg := validConfig()
		cfg.Audit.Enabled = true
		cfg.Audit.DSN = "user:pass@tcp(localhost:4000"
		cfg.Audit.Table = "tool-invocations; DROP"
		result := cfg.Validate()
		assert.Len(t, result.Errors, 2)
		assert.Contains(t, result.Error(), "audit.dsn")
		assert.Contains(t, result.Error(), "audit.table")
	})

	t.Run("audit max_idle greater than max_open warns", func(t *testing.T) {
		cfg := validConfig()
		cfg.Audit.Enabled = true
		cfg.Audit.DSN = "user:pass@tcp(localhost:4000)/audit"
		cfg.Audit.MaxOpen = 2
		cfg.Audit.MaxIdle = 4
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0].Message, "max_idle")
	})

	t.Run("audit DSN without enabled warns", func(t *testing.T) {
		cfg := validConfig()
		cfg.Audit.DSN = "user:pass@tcp(localhost:4000)/audit"
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Len(t, result.Warnings, 1)
		assert.Equal(t, "audit.enabled", result.Warnings[0].Field)
	})

	t.Run("invalid server port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = -1
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "server.port")
	})

	t.Run("invalid log level", func(t *testing.T) {
		cfg := validConfig()
		cfg.Observability.Logging.Level = "invalid"
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "observability.logging.level")
	})

	t.Run("invalid log format", func(t *testing.T) {
		cfg := validConfig()
		cfg.Observability.Logging.Format = "xml"
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "observability.logging.format")
	})

	t.Run("invalid OTLP protocol", func(t *testing.T) {
		cfg := validConfig()
		cfg.Observability.OTLP.Protocol = "http"
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "observability.otlp.protocol")
	})

	t.Run("valid OTLP protocols", func(t *testing.T) {
		for _, protocol := range []string{"", "grpc", "http/protobuf"} {
			cfg := validConfig()
			cfg.Observability.OTLP.Protocol = protocol
			if protocol == "http/protobuf" {
				cfg.Observability.OTLP.Endpoint = "localhost:4318"
			}
			result := cfg.Validate()
			assert.False(t, result.HasErrors(), "protocol %q should be valid", protocol)
		}
	})

	t.Run("invalid OTLP http/protobuf endpoint", func(t *testing.T) {
		cfg := validConfig()
		cfg.Observability.OTLP.Protocol = "http/protobuf"
		cfg.Observability.OTLP.Endpoint = "localhost"
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "observability.otlp.endpoint")
	})

	t.Run("valid OTLP http/protobuf endpoint", func(t *testing.T) {
		cfg := validConfig()
		cfg.Observability.OTLP.Protocol = "http/protobuf"
		cfg.Observability.OTLP.Endpoint = "localhost:4318"
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
	})

	t.Run("rate limit enabled without RPS", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.RateLimitEnabled = true
		cfg.Server.RateLimitRPS = 0
		cfg.Server.RateLimitBurst = 10
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "rate_limit_rps")
	})

	t.Run("rate limit enabled without burst", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.RateLimitEnabled = true
		cfg.Server.RateLimitRPS = 100
		cfg.Server.RateLimitBurst = 0
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "rate_limit_burst")
	})

	t.Run("rate limit valid config", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.RateLimitEnabled = true
		cfg.Server.RateLimitRPS = 100
		cfg.Server.RateLimitBurst = 10
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
	})

	t.Run("rate limit disabled with values warns", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.RateLimitEnabled = false
		cfg.Server.RateLimitRPS = 100
		cfg.Server.RateLimitBurst = 10
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0].Message, "rate limit values")
	})

	t.Run("CORS enabled without origins", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.CORSEnabled = true
		cfg.Server.CORSAllowedOrigins = []string{}
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "cors_allowed_origins")
	})

	t.Run("CORS wildcard with credentials", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.CORSEnabled = true
		cfg.Server.CORSAllowedOrigins = []string{"*"}
		cfg.Server.CORSAllowCredentials = true
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "wildcard")
	})

	t.Run("CORS wildcard without credentials warns", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.CORSEnabled = true
		cfg.Server.CORSAllowedOrigins = []string{"*"}
		cfg.Server.CORSAllowCredentials = false
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0].Message, "wildcard")
	})

	t.Run("CORS specific origins valid", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.CORSEnabled = true
		cfg.Server.CORSAllowedOrigins = []string{"https://example.com"}
		cfg.Server.CORSAllowCredentials = true
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
	})

	t.Run("CORS http origins with TLS enabled warns", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.CORSEnabled = true
		cfg.Server.TLSMode = "auto"
		cfg.Server.CORSAllowedOrigins = []string{"http://example.com"}
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
		assert.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0].Message, "http://")
	})

	t.Run("TLS file mode requires cert files", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.TLSMode = "file"
		cfg.Server.TLSCertFile = ""
		cfg.Server.TLSKeyFile = ""
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "tls_cert_file")
		assert.Contains(t, result.Error(), "tls_key_file")
	})

	t.Run("TLS auto mode valid", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.TLSMode = "auto"
		result := cfg.Validate()
		assert.False(t, result.HasErrors())
	})

	t.Run("OIDC enabled requires issuer and audience", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Auth.OIDCEnabled = true
		cfg.Server.Auth.OIDCIssuerURL = ""
		cfg.Server.Auth.OIDCAudience = ""
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Contains(t, result.Error(), "oidc_issuer_url")
		assert.Contains(t, result.Error(), "oidc_audience")
	})

	t.Run("multiple errors collected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Upstream.Endpoint = ""
		cfg.Server.Port = 0
		cfg.Observability.Logging.Level = "invalid"
		result := cfg.Validate()
		assert.True(t, result.HasErrors())
		assert.Len(t, result.Errors, 3)
	})
}

func TestValidationError_Error(t *testing.T) {
	t.Run("with hint", func(t *testing.T) {
		err := ValidationError{
			Field:   "test.field",
			Message: "test message",
			Hint:    "try this",
		}
		assert.Equal(t, "test.field: test message (hint: try this)", err.Error())
	})

	t.Run("without hint", func(t *testing.T) {
		err := ValidationError{
			Field:   "test.field",
			Message: "test message",
		}
		assert.Equal(t, "test.field: test message", err.Error())
	})
}
