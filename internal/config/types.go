package config

import (
	"time"
)

// Config holds the application configuration.
type Config struct {
	Upstream      UpstreamConfig      `mapstructure:"upstream"`
	Registry      RegistryConfig      `mapstructure:"registry"`
	Server        ServerConfig        `mapstructure:"server"`
	Audit         AuditConfig         `mapstructure:"audit"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// UpstreamConfig describes the trade statistics GraphQL gateway.
type UpstreamConfig struct {
	// Endpoint is the absolute URL of the gateway's GraphQL endpoint.
	// Configured via "endpoint" in YAML or TRADEMCP_UPSTREAM_ENDPOINT.
	Endpoint string `mapstructure:"endpoint"`
	// SubscriptionKey is the API management subscription key.
	SubscriptionKey string `mapstructure:"subscription_key"`
	// SubscriptionKeyFile is a path to a file holding the key. Supports "@-"
	// to read from stdin.
	SubscriptionKeyFile   string `mapstructure:"subscription_key_file"`
	SubscriptionKeyPrompt bool   `mapstructure:"subscription_key_prompt"`
	// SubscriptionKeyHeader defaults to Ocp-Apim-Subscription-Key.
	SubscriptionKeyHeader string        `mapstructure:"subscription_key_header"`
	Timeout               time.Duration `mapstructure:"timeout"`

	MaxPageSize        int `mapstructure:"max_page_size"`
	DefaultPageSize    int `mapstructure:"default_page_size"`
	DebugQueryMaxChars int `mapstructure:"debug_query_max_chars"`
	// MaxQueryDepth bounds free-form documents sent through query_graphql.
	// Zero disables the check.
	MaxQueryDepth int `mapstructure:"max_query_depth"`
}

// RegistryConfig controls the resolver registry.
type RegistryConfig struct {
	// OverlayFile is an optional YAML list of extra resolver descriptors.
	OverlayFile string `mapstructure:"overlay_file"`
}

// AuditConfig holds the optional invocation audit store settings.
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// DSN is a go-sql-driver/mysql Data Source Name.
	// Format: user:password@tcp(host:port)/database?params
	DSN         string        `mapstructure:"dsn"`
	DSNFile     string        `mapstructure:"dsn_file"`
	Table       string        `mapstructure:"table"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxOpen     int           `mapstructure:"max_open"`
	MaxIdle     int           `mapstructure:"max_idle"`
	CreateTable bool          `mapstructure:"create_table"`
}

// AuthConfig holds authentication parameters.
type AuthConfig struct {
	OIDCEnabled   bool          `mapstructure:"oidc_enabled"`
	OIDCIssuerURL string        `mapstructure:"oidc_issuer_url"`
	OIDCAudience  string        `mapstructure:"oidc_audience"`
	OIDCClockSkew time.Duration `mapstructure:"oidc_clock_skew"`
	// OIDCCAFile is an optional PEM bundle trusted for the issuer's TLS
	// certificate, in addition to the system pool.
	OIDCCAFile string `mapstructure:"oidc_ca_file"`
}

// AdminConfig controls administrative endpoint exposure and authentication.
type AdminConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	AuthToken     string `mapstructure:"auth_token"`
	AuthTokenFile string `mapstructure:"auth_token_file"`
}

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// ServerConfig holds MCP and HTTP server parameters.
type ServerConfig struct {
	// Transport is "http" (streamable MCP over HTTP) or "stdio".
	Transport            string        `mapstructure:"transport"`
	Port                 int           `mapstructure:"port"`
	MCPPath              string        `mapstructure:"mcp_path"`
	CatalogEnabled       bool          `mapstructure:"catalog_enabled"`
	GraphiQLEnabled      bool          `mapstructure:"graphiql_enabled"`
	Auth                 AuthConfig    `mapstructure:"auth"`
	Admin                AdminConfig   `mapstructure:"admin"`
	RateLimitEnabled     bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRPS         float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst       int           `mapstructure:"rate_limit_burst"`
	CORSEnabled          bool          `mapstructure:"cors_enabled"`
	CORSAllowedOrigins   []string      `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods   []string      `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders   []string      `mapstructure:"cors_allowed_headers"`
	CORSExposeHeaders    []string      `mapstructure:"cors_expose_headers"`
	CORSAllowCredentials bool          `mapstructure:"cors_allow_credentials"`
	CORSMaxAge           int           `mapstructure:"cors_max_age"`
	ReadTimeout          time.Duration `mapstructure:"read_timeout"`
	WriteTimeout         time.Duration `mapstructure:"write_timeout"`
	IdleTimeout          time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout      time.Duration `mapstructure:"shutdown_timeout"`
	HealthCheckTimeout   time.Duration `mapstructure:"health_check_timeout"`

	// TLS Configuration
	TLSMode        string `mapstructure:"tls_mode"`          // "off", "auto", or "file" (default: "off")
	TLSCertFile    string `mapstructure:"tls_cert_file"`     // Path to certificate file (for "file" mode)
	TLSKeyFile     string `mapstructure:"tls_key_file"`      // Path to private key file (for "file" mode)
	TLSAutoCertDir string `mapstructure:"tls_auto_cert_dir"` // Directory for auto-generated certs (default: ".tls")
}

// LoggingConfig holds logging parameters.
type LoggingConfig struct {
	Level          string `mapstructure:"level"`           // debug, info, warn, error
	Format         string `mapstructure:"format"`          // json, text
	ExportsEnabled bool   `mapstructure:"exports_enabled"` // Enable OTLP log export
}

// ObservabilityConfig holds observability parameters.
type ObservabilityConfig struct {
	ServiceName      string        `mapstructure:"service_name"`
	ServiceVersion   string        `mapstructure:"service_version"`
	Environment      string        `mapstructure:"environment"`
	MetricsEnabled   bool          `mapstructure:"metrics_enabled"`
	TracingEnabled   bool          `mapstructure:"tracing_enabled"`
	TraceSampleRatio float64       `mapstructure:"trace_sample_ratio"`
	Logging          LoggingConfig `mapstructure:"logging"`

	// Global OTLP settings (defaults for all signals)
	OTLP OTLPConfig `mapstructure:"otlp"`

	// Signal-specific overrides (optional)
	Traces  *OTLPConfig `mapstructure:"traces,omitempty"`
	Logs    *OTLPConfig `mapstructure:"logs,omitempty"`
	Metrics *OTLPConfig `mapstructure:"metrics,omitempty"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Endpoint          string            `mapstructure:"endpoint"`
	Protocol          string            `mapstructure:"protocol"` // "grpc", "http/protobuf"
	Insecure          bool              `mapstructure:"insecure"`
	TLSCertFile       string            `mapstructure:"tls_cert_file"`
	TLSClientCertFile string            `mapstructure:"tls_client_cert_file"`
	TLSClientKeyFile  string            `mapstructure:"tls_client_key_file"`
	Headers           map[string]string `mapstructure:"headers"`
	Timeout           time.Duration     `mapstructure:"timeout"`
	Compression       string            `mapstructure:"compression"` // "none", "gzip"
	RetryEnabled      bool              `mapstructure:"retry_enabled"`
	RetryMaxAttempts  int               `mapstructure:"retry_max_attempts"`
}

// GetTracesConfig returns the effective OTLP config for traces
func (c *ObservabilityConfig) GetTracesConfig() OTLPConfig {
	if c.Traces != nil {
		return mergeOTLPConfigs(c.OTLP, *c.Traces)
	}
	return c.OTLP
}

// GetLogsConfig returns the effective OTLP config for logs
func (c *ObservabilityConfig) GetLogsConfig() OTLPConfig {
	if c.Logs != nil {
		return mergeOTLPConfigs(c.OTLP, *c.Logs)
	}
	return c.OTLP
}

// GetMetricsConfig returns the effective OTLP config for metrics
func (c *ObservabilityConfig) GetMetricsConfig() OTLPConfig {
	if c.Metrics != nil {
		return mergeOTLPConfigs(c.OTLP, *c.Metrics)
	}
	return c.OTLP
}

// mergeOTLPConfigs merges signal-specific config over global defaults
func mergeOTLPConfigs(base OTLPConfig, override OTLPConfig) OTLPConfig {
	result := base

	if override.Endpoint != "" {
		result.Endpoint = override.Endpoint
	}
	if override.Protocol != "" {
		result.Protocol = override.Protocol
	}
	// Insecure cannot distinguish "unset" from false; a present override wins.
	result.Insecure = override.Insecure

	if override.TLSCertFile != "" {
		result.TLSCertFile = override.TLSCertFile
	}
	if override.TLSClientCertFile != "" {
		result.TLSClientCertFile = override.TLSClientCertFile
	}
	if override.TLSClientKeyFile != "" {
		result.TLSClientKeyFile = override.TLSClientKeyFile
	}

	if override.Headers != nil {
		result.Headers = make(map[string]string, len(base.Headers)+len(override.Headers))
		for k, v := range base.Headers {
			result.Headers[k] = v
		}
		for k, v := range override.Headers {
			result.Headers[k] = v
		}
	}

	if override.Timeout != 0 {
		result.Timeout = override.Timeout
	}
	if override.Compression != "" {
		result.Compression = override.Compression
	}
	if override.RetryMaxAttempts != 0 {
		result.RetryEnabled = override.RetryEnabled
		result.RetryMaxAttempts = override.RetryMaxAttempts
	}

	return result
}

// TLSEnabled reports whether the HTTP listener serves TLS.
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSMode != "" && s.TLSMode != "off"
}
