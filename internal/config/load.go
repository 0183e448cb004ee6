package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const envPrefix = "TRADEMCP"

var defineFlagsOnce sync.Once

// promptSecret reads a secret from the terminal. Replaced in tests.
var promptSecret = promptSubscriptionKey

// Load loads configuration from multiple sources with the following precedence:
// 1. Explicit overrides (v.Set) – secret files and the interactive key prompt
// 2. Command line flags
// 3. Environment variables
// 4. Config file
// 5. Default values
func Load() (*Config, error) {
	defineFlags()
	if !pflag.Parsed() {
		pflag.Parse()
	}
	cfgPath, _ := pflag.CommandLine.GetString("config")
	return load(pflag.CommandLine, cfgPath)
}

func load(fs *pflag.FlagSet, cfgPath string) (*Config, error) {
	v := newViper()

	// --- Config file ---
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("trade-graphql-mcp")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/trade-graphql-mcp/")
		v.AddConfigPath("$HOME/.trade-graphql-mcp")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgPath != "" {
			return nil, fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// --- Flags binding (highest normal priority) ---
	bindChangedFlagsToViper(v, fs)

	if err := resolveSecrets(v); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// newViper returns a viper instance with defaults and environment binding.
// Env vars use the canonical dotted key: TRADEMCP_UPSTREAM_ENDPOINT.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// resolveSecrets fills secrets from their *_file settings and, when asked,
// from the terminal. An inline value always wins over its file.
func resolveSecrets(v *viper.Viper) error {
	if err := validateStdinUse(v); err != nil {
		return err
	}

	if v.GetString("upstream.subscription_key") == "" && v.GetString("upstream.subscription_key_file") != "" {
		key, err := readSecretFile(v.GetString("upstream.subscription_key_file"))
		if err != nil {
			return fmt.Errorf("failed to read subscription key file: %w", err)
		}
		v.Set("upstream.subscription_key", key)
	}
	if v.GetString("upstream.subscription_key") == "" && v.GetBool("upstream.subscription_key_prompt") {
		key, err := promptSecret()
		if err != nil {
			return fmt.Errorf("failed to read subscription key: %w", err)
		}
		v.Set("upstream.subscription_key", key)
	}

	if v.GetString("audit.dsn") == "" && v.GetString("audit.dsn_file") != "" {
		dsn, err := readSecretFile(v.GetString("audit.dsn_file"))
		if err != nil {
			return fmt.Errorf("failed to read audit DSN file: %w", err)
		}
		v.Set("audit.dsn", dsn)
	}

	if v.GetString("server.admin.auth_token") == "" && v.GetString("server.admin.auth_token_file") != "" {
		tokenPath := v.GetString("server.admin.auth_token_file")
		token, err := readSecretFile(tokenPath)
		if err != nil {
			return fmt.Errorf("failed to read admin auth token file: %w", err)
		}
		if token == "" {
			return fmt.Errorf("admin auth token file %q is empty", tokenPath)
		}
		v.Set("server.admin.auth_token", token)
	}
	return nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.UnmarshalExact(
		&cfg,
		viper.DecodeHook(
			mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				stringToStringSliceHookFunc(","),
			),
		),
	); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// bindChangedFlagsToViper copies only explicitly-set flags into Viper,
// preserving precedence: flags > env > file > defaults.
func bindChangedFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) {
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "version" {
			return
		}

		switch f.Value.Type() {
		case "string":
			val, _ := fs.GetString(f.Name)
			v.Set(f.Name, val)
		case "int":
			val, _ := fs.GetInt(f.Name)
			v.Set(f.Name, val)
		case "bool":
			val, _ := fs.GetBool(f.Name)
			v.Set(f.Name, val)
		case "float64":
			val, _ := fs.GetFloat64(f.Name)
			v.Set(f.Name, val)
		case "duration":
			val, _ := fs.GetDuration(f.Name)
			v.Set(f.Name, val)
		case "stringSlice":
			val, _ := fs.GetStringSlice(f.Name)
			v.Set(f.Name, val)
		default:
			v.Set(f.Name, f.Value.String())
		}
	})
}

// defineFlags defines all command line flags on the global flag set.
func defineFlags() {
	defineFlagsOnce.Do(func() {
		registerFlags(pflag.CommandLine)
	})
}

// registerFlags defines flags using canonical snake_case keys.
func registerFlags(fs *pflag.FlagSet) {
	// Upstream gateway flags
	fs.String("upstream.endpoint", "", "GraphQL endpoint of the trade statistics gateway")
	fs.String("upstream.subscription_key", "", "API management subscription key")
	fs.String("upstream.subscription_key_file", "", "Path to file containing the subscription key (use @- for stdin)")
	fs.Bool("upstream.subscription_key_prompt", false, "Prompt for the subscription key securely")
	fs.String("upstream.subscription_key_header", "", "Header carrying the subscription key")
	fs.Duration("upstream.timeout", 0, "Upstream request timeout (e.g. 30s)")
	fs.Int("upstream.max_page_size", 0, "Upper bound for the first argument of every tool")
	fs.Int("upstream.default_page_size", 0, "Page size used when a tool call omits first")
	fs.Int("upstream.debug_query_max_chars", 0, "Maximum query characters written to debug logs")
	fs.Int("upstream.max_query_depth", 0, "Maximum selection depth for query_graphql documents (0 = unlimited)")

	fs.String("registry.overlay_file", "", "YAML file with additional resolver descriptors")

	// Server flags
	fs.String("server.transport", "", "MCP transport: http or stdio (default: http)")
	fs.Int("server.port", 0, "HTTP server port")
	fs.String("server.mcp_path", "", "HTTP path of the MCP endpoint")
	fs.Bool("server.catalog_enabled", false, "Serve the read-only resolver catalog at /catalog")
	fs.Bool("server.graphiql_enabled", false, "Enable GraphiQL UI for /catalog (dev only)")
	fs.Bool("server.auth.oidc_enabled", false, "Enable OIDC/JWKS authentication middleware")
	fs.String("server.auth.oidc_issuer_url", "", "OIDC issuer URL (for discovery and JWKS)")
	fs.String("server.auth.oidc_audience", "", "Expected JWT audience (client ID)")
	fs.Duration("server.auth.oidc_clock_skew", 0, "Allowed JWT clock skew (e.g. 2m)")
	fs.String("server.auth.oidc_ca_file", "", "PEM CA bundle trusted for the OIDC issuer")
	fs.Bool("server.admin.enabled", false, "Enable /admin endpoints")
	fs.String("server.admin.auth_token", "", "Shared secret required in X-Admin-Token header when admin endpoints are enabled without OIDC")
	fs.String("server.admin.auth_token_file", "", "Path to file containing admin auth token (use @- for stdin)")
	fs.Bool("server.rate_limit_enabled", false, "Enable global rate limiting for all HTTP endpoints")
	fs.Float64("server.rate_limit_rps", 0, "Global rate limit requests per second")
	fs.Int("server.rate_limit_burst", 0, "Global rate limit burst size")
	fs.Bool("server.cors_enabled", false, "Enable CORS (Cross-Origin Resource Sharing)")
	fs.StringSlice("server.cors_allowed_origins", nil, "Allowed CORS origins (comma-separated or repeated)")
	fs.StringSlice("server.cors_allowed_methods", nil, "Allowed CORS methods (comma-separated or repeated)")
	fs.StringSlice("server.cors_allowed_headers", nil, "Allowed CORS headers (comma-separated or repeated)")
	fs.StringSlice("server.cors_expose_headers", nil, "CORS headers to expose to browser (comma-separated or repeated)")
	fs.Bool("server.cors_allow_credentials", false, "Allow credentials in CORS requests")
	fs.Int("server.cors_max_age", 0, "CORS preflight cache duration (seconds)")
	fs.Duration("server.read_timeout", 0, "HTTP server read timeout")
	fs.Duration("server.write_timeout", 0, "HTTP server write timeout")
	fs.Duration("server.idle_timeout", 0, "HTTP server idle timeout")
	fs.Duration("server.shutdown_timeout", 0, "HTTP server graceful shutdown timeout")
	fs.Duration("server.health_check_timeout", 0, "Health check timeout")

	// TLS flags
	fs.String("server.tls_mode", "", "TLS mode: off, auto (self-signed), file (default: off)")
	fs.String("server.tls_cert_file", "", "Path to TLS certificate file (for file mode)")
	fs.String("server.tls_key_file", "", "Path to TLS private key file (for file mode)")
	fs.String("server.tls_auto_cert_dir", "", "Directory for auto-generated certificates (default: .tls)")

	// Audit flags
	fs.Bool("audit.enabled", false, "Record tool invocations in MySQL/TiDB")
	fs.String("audit.dsn", "", "Audit store MySQL DSN (user:pass@tcp(host:port)/db)")
	fs.String("audit.dsn_file", "", "Path to file containing the audit DSN (use @- for stdin)")
	fs.String("audit.table", "", "Audit table name")
	fs.Duration("audit.timeout", 0, "Per-write audit timeout")
	fs.Int("audit.max_open", 0, "Maximum open audit connections")
	fs.Int("audit.max_idle", 0, "Maximum idle audit connections")
	fs.Bool("audit.create_table", false, "Create the audit table at startup if missing")

	// Observability flags
	fs.String("observability.service_name", "", "Service name for observability")
	fs.String("observability.service_version", "", "Service version for observability")
	fs.String("observability.environment", "", "Environment name (dev, staging, prod)")
	fs.Bool("observability.metrics_enabled", false, "Enable metrics collection")
	fs.Bool("observability.tracing_enabled", false, "Enable distributed tracing")
	fs.Float64("observability.trace_sample_ratio", 0, "Trace sampling ratio from 0.0 to 1.0")

	// Logging flags (under observability)
	fs.String("observability.logging.level", "", "Log level (debug, info, warn, error)")
	fs.String("observability.logging.format", "", "Log format (json, text)")
	fs.Bool("observability.logging.exports_enabled", false, "Enable OTLP log export")

	// Global OTLP flags
	fs.String("observability.otlp.endpoint", "", "OTLP endpoint for all signals (e.g., localhost:4317)")
	fs.String("observability.otlp.protocol", "", "OTLP protocol for all signals (grpc, http/protobuf)")
	fs.Bool("observability.otlp.insecure", false, "Use insecure connection (no TLS)")
	fs.String("observability.otlp.tls_cert_file", "", "Path to TLS certificate file for server verification")
	fs.String("observability.otlp.tls_client_cert_file", "", "Path to client certificate file for mTLS")
	fs.String("observability.otlp.tls_client_key_file", "", "Path to client key file for mTLS")
	fs.Duration("observability.otlp.timeout", 0, "OTLP export timeout")
	fs.String("observability.otlp.compression", "", "OTLP compression (none, gzip)")
	fs.Bool("observability.otlp.retry_enabled", false, "Enable retry on transient errors")
	fs.Int("observability.otlp.retry_max_attempts", 0, "Maximum retry attempts")

	// Signal-specific OTLP flags (traces)
	fs.String("observability.traces.endpoint", "", "OTLP endpoint for traces only")
	fs.String("observability.traces.protocol", "", "OTLP protocol for traces (grpc, http/protobuf)")
	fs.Bool("observability.traces.insecure", false, "Use insecure connection for traces")
	fs.Duration("observability.traces.timeout", 0, "Timeout for trace exports")

	// Signal-specific OTLP flags (logs)
	fs.String("observability.logs.endpoint", "", "OTLP endpoint for logs only")
	fs.String("observability.logs.protocol", "", "OTLP protocol for logs (grpc, http/protobuf)")
	fs.Bool("observability.logs.insecure", false, "Use insecure connection for logs")
	fs.Duration("observability.logs.timeout", 0, "Timeout for log exports")

	// Signal-specific OTLP flags (metrics)
	fs.String("observability.metrics.endpoint", "", "OTLP endpoint for metrics only")
	fs.Bool("observability.metrics.insecure", false, "Use insecure connection for metrics")
	fs.Duration("observability.metrics.timeout", 0, "Timeout for metric exports")

	// Config file flag
	fs.StringP("config", "c", "", "Config file path")
}

// setDefaults sets default values (lowest precedence).
func setDefaults(v *viper.Viper) {
	// Upstream defaults
	v.SetDefault("upstream.endpoint", "")
	v.SetDefault("upstream.subscription_key", "")
	v.SetDefault("upstream.subscription_key_file", "")
	v.SetDefault("upstream.subscription_key_prompt", false)
	v.SetDefault("upstream.subscription_key_header", "Ocp-Apim-Subscription-Key")
	v.SetDefault("upstream.timeout", 30*time.Second)
	v.SetDefault("upstream.max_page_size", 1000)
	v.SetDefault("upstream.default_page_size", 50)
	v.SetDefault("upstream.debug_query_max_chars", 500)
	v.SetDefault("upstream.max_query_depth", 10)

	v.SetDefault("registry.overlay_file", "")

	// Server defaults
	v.SetDefault("server.transport", TransportHTTP)
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mcp_path", "/mcp")
	v.SetDefault("server.catalog_enabled", true)
	v.SetDefault("server.graphiql_enabled", false)
	v.SetDefault("server.auth.oidc_enabled", false)
	v.SetDefault("server.auth.oidc_issuer_url", "")
	v.SetDefault("server.auth.oidc_audience", "")
	v.SetDefault("server.auth.oidc_clock_skew", 2*time.Minute)
	v.SetDefault("server.auth.oidc_ca_file", "")
	v.SetDefault("server.admin.enabled", false)
	v.SetDefault("server.admin.auth_token", "")
	v.SetDefault("server.admin.auth_token_file", "")
	v.SetDefault("server.rate_limit_enabled", false)
	v.SetDefault("server.rate_limit_rps", 0.0)
	v.SetDefault("server.rate_limit_burst", 0)
	v.SetDefault("server.cors_enabled", false)
	v.SetDefault("server.cors_allowed_origins", []string{})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Content-Type", "Authorization", "Mcp-Session-Id", "Mcp-Protocol-Version"})
	v.SetDefault("server.cors_expose_headers", []string{"Mcp-Session-Id"})
	v.SetDefault("server.cors_allow_credentials", false)
	v.SetDefault("server.cors_max_age", 86400)
	v.SetDefault("server.read_timeout", 15*time.Second)
	// Streamable HTTP responses may stream for as long as a tool call runs.
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.health_check_timeout", 2*time.Second)

	// TLS defaults
	v.SetDefault("server.tls_mode", "off")
	v.SetDefault("server.tls_cert_file", "")
	v.SetDefault("server.tls_key_file", "")
	v.SetDefault("server.tls_auto_cert_dir", ".tls")

	// Audit defaults
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.dsn", "")
	v.SetDefault("audit.dsn_file", "")
	v.SetDefault("audit.table", "tool_invocations")
	v.SetDefault("audit.timeout", 2*time.Second)
	v.SetDefault("audit.max_open", 4)
	v.SetDefault("audit.max_idle", 2)
	v.SetDefault("audit.create_table", false)

	// Observability defaults
	v.SetDefault("observability.service_name", "trade-graphql-mcp")
	v.SetDefault("observability.service_version", "")
	v.SetDefault("observability.environment", "development")
	v.SetDefault("observability.metrics_enabled", true)
	v.SetDefault("observability.tracing_enabled", false)
	v.SetDefault("observability.trace_sample_ratio", 1.0)

	// Logging defaults (under observability)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.logging.exports_enabled", false)

	// Global OTLP defaults
	v.SetDefault("observability.otlp.endpoint", "localhost:4317")
	v.SetDefault("observability.otlp.protocol", "grpc")
	v.SetDefault("observability.otlp.insecure", false)
	v.SetDefault("observability.otlp.tls_cert_file", "")
	v.SetDefault("observability.otlp.tls_client_cert_file", "")
	v.SetDefault("observability.otlp.tls_client_key_file", "")
	v.SetDefault("observability.otlp.timeout", 10*time.Second)
	v.SetDefault("observability.otlp.compression", "gzip")
	v.SetDefault("observability.otlp.retry_enabled", true)
	v.SetDefault("observability.otlp.retry_max_attempts", 3)
}

// promptSubscriptionKey prompts for the key without echoing to the terminal.
// The prompt goes to stderr so stdio transport output stays clean.
func promptSubscriptionKey() (string, error) {
	fmt.Fprint(os.Stderr, "Enter upstream subscription key: ")
	key, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(key)), nil
}

// stdin is read by "@-" secret files. Replaced in tests.
var stdin io.Reader = os.Stdin

func readSecretFile(path string) (string, error) {
	var data []byte
	var err error

	if path == "@-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// stdinSecretKeys are the *_file settings that accept "@-".
var stdinSecretKeys = []string{
	"upstream.subscription_key_file",
	"audit.dsn_file",
	"server.admin.auth_token_file",
}

// validateStdinUse allows at most one "@-" secret. In stdio mode stdin
// carries MCP frames, so neither "@-" nor the key prompt may touch it.
func validateStdinUse(v *viper.Viper) error {
	var configured []string
	for _, key := range stdinSecretKeys {
		if strings.TrimSpace(v.GetString(key)) == "@-" {
			configured = append(configured, key)
		}
	}

	if strings.EqualFold(strings.TrimSpace(v.GetString("server.transport")), TransportStdio) {
		if len(configured) > 0 {
			return fmt.Errorf("%s cannot read from stdin (@-) with the stdio transport", strings.Join(configured, ", "))
		}
		if v.GetBool("upstream.subscription_key_prompt") && v.GetString("upstream.subscription_key") == "" {
			return fmt.Errorf("upstream.subscription_key_prompt cannot be used with the stdio transport")
		}
	}

	if len(configured) > 1 {
		return fmt.Errorf(
			"multiple stdin-backed file settings use @- (%s); only one @- source is allowed",
			strings.Join(configured, ", "),
		)
	}
	return nil
}

func stringToStringSliceHookFunc(sep string) mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
			return data, nil
		}

		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return []string{}, nil
		}

		parts := strings.Split(raw, sep)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	}
}
