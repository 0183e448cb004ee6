package config

import (
	"fmt"
	"net"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Field   string
	Message string
	Hint    string
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns a combined error message if there are validation errors.
func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors and returns validation results.
// It returns both errors (fatal) and warnings (non-fatal issues).
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	c.Upstream.validate(result)
	c.Registry.validate(result)
	c.Server.validate(result)
	c.Audit.validate(result)
	c.Observability.validate(result)

	return result
}

func (u *UpstreamConfig) validate(result *ValidationResult) {
	endpoint := strings.TrimSpace(u.Endpoint)
	if endpoint == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "upstream.endpoint",
			Message: "endpoint is required",
			Hint:    "set upstream.endpoint or TRADEMCP_UPSTREAM_ENDPOINT to the gateway GraphQL URL",
		})
	} else if parsed, err := url.Parse(endpoint); err != nil || parsed.Host == "" ||
		(parsed.Scheme != "http" && parsed.Scheme != "https") {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "upstream.endpoint",
			Message: fmt.Sprintf("invalid endpoint %q", u.Endpoint),
			Hint:    "use an absolute http:// or https:// URL",
		})
	} else if parsed.Scheme == "http" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "upstream.endpoint",
			Message: "endpoint uses plain http; the subscription key is sent unencrypted",
			Hint:    "use https:// outside local development",
		})
	}

	if strings.TrimSpace(u.SubscriptionKey) == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "upstream.subscription_key",
			Message: "no subscription key configured",
			Hint:    "set upstream.subscription_key, subscription_key_file or subscription_key_prompt; the gateway answers 401 without one",
		})
	}
	if strings.TrimSpace(u.SubscriptionKeyHeader) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "upstream.subscription_key_header",
			Message: "subscription key header cannot be empty",
		})
	}
	if u.Timeout <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "upstream.timeout",
			Message: "timeout must be greater than 0",
		})
	}

	if u.MaxPageSize < 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "upstream.max_page_size",
			Message: "max_page_size must be at least 1",
		})
	}
	if u.DefaultPageSize < 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "upstream.default_page_size",
			Message: "default_page_size must be at least 1",
		})
	}
	if u.MaxPageSize >= 1 && u.DefaultPageSize > u.MaxPageSize {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "upstream.default_page_size",
			Message: "default_page_size is greater than max_page_size",
			Hint:    "the default will be clamped to max_page_size",
		})
	}
	if u.DebugQueryMaxChars < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "upstream.debug_query_max_chars",
			Message: "debug_query_max_chars cannot be negative",
		})
	}
	if u.MaxQueryDepth < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "upstream.max_query_depth",
			Message: "max_query_depth cannot be negative",
		})
	}
}

func (r *RegistryConfig) validate(result *ValidationResult) {
	overlay := strings.TrimSpace(r.OverlayFile)
	if overlay == "" {
		return
	}
	if ext := strings.ToLower(path.Ext(overlay)); ext != ".yaml" && ext != ".yml" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "registry.overlay_file",
			Message: fmt.Sprintf("overlay file %q does not have a .yaml extension", overlay),
			Hint:    "the overlay is always parsed as YAML",
		})
	}
}

func (a *AuditConfig) validate(result *ValidationResult) {
	if !a.Enabled {
		if strings.TrimSpace(a.DSN) != "" {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   "audit.enabled",
				Message: "audit DSN is set but auditing is disabled",
				Hint:    "enable audit.enabled to record tool invocations",
			})
		}
		return
	}

	if strings.TrimSpace(a.DSN) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "audit.dsn",
			Message: "DSN is required when auditing is enabled",
			Hint:    "set audit.dsn or audit.dsn_file",
		})
	} else if _, err := mysql.ParseDSN(a.DSN); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "audit.dsn",
			Message: fmt.Sprintf("invalid DSN: %v", err),
			Hint:    "use user:password@tcp(host:port)/database",
		})
	}

	if !auditTablePattern.MatchString(a.Table) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "audit.table",
			Message: fmt.Sprintf("invalid table name %q", a.Table),
			Hint:    "use letters, digits and underscores, starting with a letter or underscore",
		})
	}
	if a.Timeout <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "audit.timeout",
			Message: "timeout must be greater than 0",
		})
	}
	if a.MaxOpen < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "audit.max_open",
			Message: "max_open cannot be negative",
		})
	}
	if a.MaxIdle < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "audit.max_idle",
			Message: "max_idle cannot be negative",
		})
	}
	if a.MaxIdle > a.MaxOpen && a.MaxOpen > 0 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "audit.max_idle",
			Message: "max_idle is greater than max_open",
			Hint:    "idle connections will be limited to max_open",
		})
	}
}

// reservedPaths are served by the HTTP router itself.
var reservedPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
	"/catalog": true,
	"/admin":   true,
}

var auditTablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

func (s *ServerConfig) validate(result *ValidationResult) {
	// Port range validation
	if s.Port < 1 || s.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port %d is out of valid range (1-65535)", s.Port),
		})
	}

	// Rate limit validation
	if s.RateLimitEnabled {
		if s.RateLimitRPS <= 0 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.rate_limit_rps",
				Message: "rate_limit_rps must be greater than 0 when rate limiting is enabled",
			})
		}
		if s.RateLimitBurst <= 0 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.rate_limit_burst",
				Message: "rate_limit_burst must be greater than 0 when rate limiting is enabled",
			})
		}
	}

	if !s.RateLimitEnabled && (s.RateLimitRPS > 0 || s.RateLimitBurst > 0) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "server.rate_limit_enabled",
			Message: "rate limit values are set but rate limiting is disabled",
			Hint:    "enable server.rate_limit_enabled to apply rate limits",
		})
	}

	switch s.Transport {
	case TransportHTTP, TransportStdio:
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.transport",
			Message: fmt.Sprintf("invalid transport %q", s.Transport),
			Hint:    "valid values are: http, stdio",
		})
	}

	if !strings.HasPrefix(s.MCPPath, "/") || s.MCPPath == "/" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.mcp_path",
			Message: fmt.Sprintf("invalid MCP path %q", s.MCPPath),
			Hint:    "use an absolute path such as /mcp",
		})
	} else if reservedPaths[strings.TrimSuffix(s.MCPPath, "/")] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.mcp_path",
			Message: fmt.Sprintf("MCP path %q collides with a built-in endpoint", s.MCPPath),
		})
	}

	if s.GraphiQLEnabled && !s.CatalogEnabled {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "server.graphiql_enabled",
			Message: "GraphiQL is enabled but the catalog endpoint is disabled",
			Hint:    "enable server.catalog_enabled to serve GraphiQL at /catalog",
		})
	}

	if s.Admin.Enabled && !s.Auth.OIDCEnabled && strings.TrimSpace(s.Admin.AuthToken) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.admin.auth_token",
			Message: "admin endpoints require OIDC or an admin auth token",
			Hint:    "set server.admin.auth_token(_file) or enable server.auth.oidc_enabled",
		})
	}

	if s.Transport == TransportStdio && (s.Auth.OIDCEnabled || s.Admin.Enabled) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "server.transport",
			Message: "HTTP-only settings are ignored in stdio mode",
			Hint:    "OIDC and admin endpoints apply to the http transport only",
		})
	}

	// CORS validation
	if s.CORSEnabled {
		if len(s.CORSAllowedOrigins) == 0 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.cors_allowed_origins",
				Message: "CORS enabled but no allowed origins configured",
				Hint:    "set cors_allowed_origins or disable CORS",
			})
		}

		hasWildcard := false
		for _, origin := range s.CORSAllowedOrigins {
			if strings.TrimSpace(origin) == "*" {
				hasWildcard = true
				break
			}
		}

		if hasWildcard && s.CORSAllowCredentials {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.cors_allowed_origins",
				Message: "wildcard origin (*) cannot be used with credentials",
				Hint:    "use specific origins with credentials, or wildcard without credentials",
			})
		}

		if hasWildcard {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   "server.cors_allowed_origins",
				Message: "CORS wildcard origin enabled",
				Hint:    "use specific origins in production for better security",
			})
		}
	}

	if s.CORSEnabled && s.TLSEnabled() && len(s.CORSAllowedOrigins) > 0 {
		onlyHTTP := true
		for _, origin := range s.CORSAllowedOrigins {
			origin = strings.TrimSpace(origin)
			if origin == "" || origin == "*" {
				onlyHTTP = false
				break
			}
			if strings.HasPrefix(origin, "https://") {
				onlyHTTP = false
				break
			}
			if !strings.HasPrefix(origin, "http://") {
				onlyHTTP = false
				break
			}
		}
		if onlyHTTP {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   "server.cors_allowed_origins",
				Message: "CORS allowed origins are http:// only while TLS is enabled",
				Hint:    "use https:// origins when serving over TLS",
			})
		}
	}

	if s.Auth.OIDCEnabled {
		if s.Auth.OIDCIssuerURL == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.auth.oidc_issuer_url",
				Message: "issuer URL is required when OIDC is enabled",
			})
		}
		if s.Auth.OIDCAudience == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.auth.oidc_audience",
				Message: "audience is required when OIDC is enabled",
			})
		}
	}

	// TLS validation
	validTLSModes := map[string]bool{"": true, "off": true, "auto": true, "file": true}
	if !validTLSModes[s.TLSMode] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.tls_mode",
			Message: fmt.Sprintf("invalid TLS mode %q", s.TLSMode),
			Hint:    "valid values are: off, auto, file",
		})
	}

	if s.TLSMode == "file" {
		if s.TLSCertFile == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.tls_cert_file",
				Message: "TLS cert file required when tls_mode is 'file'",
			})
		}
		if s.TLSKeyFile == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.tls_key_file",
				Message: "TLS key file required when tls_mode is 'file'",
			})
		}
	}
}

func (o *ObservabilityConfig) validate(result *ValidationResult) {
	// Log level validation
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[o.Logging.Level] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.logging.level",
			Message: fmt.Sprintf("invalid log level %q", o.Logging.Level),
			Hint:    "valid values are: debug, info, warn, error",
		})
	}

	// Log format validation
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[o.Logging.Format] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.logging.format",
			Message: fmt.Sprintf("invalid log format %q", o.Logging.Format),
			Hint:    "valid values are: json, text",
		})
	}

	// OTLP protocol validation
	o.OTLP.validate("observability.otlp", result)

	// Signal-specific OTLP validation
	if o.Traces != nil {
		o.Traces.validate("observability.traces", result)
	}
	if o.Logs != nil {
		o.Logs.validate("observability.logs", result)
	}
	if o.Metrics != nil {
		o.Metrics.validate("observability.metrics", result)
	}
}

func (o *OTLPConfig) validate(prefix string, result *ValidationResult) {
	validProtocols := map[string]bool{"": true, "grpc": true, "http/protobuf": true}
	if !validProtocols[o.Protocol] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".protocol",
			Message: fmt.Sprintf("invalid OTLP protocol %q", o.Protocol),
			Hint:    "valid values are: grpc, http/protobuf",
		})
	}

	if o.Protocol == "http/protobuf" {
		if !validOTLPEndpoint(o.Endpoint) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   prefix + ".endpoint",
				Message: fmt.Sprintf("invalid OTLP endpoint %q for http/protobuf", o.Endpoint),
				Hint:    "use host:port or a full URL",
			})
		}
	}

	validCompressions := map[string]bool{"": true, "none": true, "gzip": true}
	if !validCompressions[o.Compression] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".compression",
			Message: fmt.Sprintf("invalid OTLP compression %q", o.Compression),
			Hint:    "valid values are: none, gzip",
		})
	}

	if o.RetryMaxAttempts < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".retry_max_attempts",
			Message: "retry_max_attempts cannot be negative",
		})
	}
}

func validOTLPEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}
	if strings.Contains(endpoint, "://") {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return false
		}
		return parsed.Host != ""
	}
	_, _, err := net.SplitHostPort(endpoint)
	return err == nil
}
