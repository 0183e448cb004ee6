package serverapp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"trade-graphql-mcp/internal/config"
	"trade-graphql-mcp/internal/logging"
	"trade-graphql-mcp/internal/middleware"
	"trade-graphql-mcp/internal/observability"
	"trade-graphql-mcp/internal/registry"
	"trade-graphql-mcp/internal/upstream"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	healthPath          = "/health"
	metricsPath         = "/metrics"
	catalogPath         = "/catalog"
	verifyResolversPath = "/admin/verify-resolvers"

	verifyTimeout        = 15 * time.Second
	defaultHealthTimeout = 2 * time.Second
)

func oidcAuthConfig(cfg *config.Config) middleware.OIDCAuthConfig {
	return middleware.OIDCAuthConfig{
		Enabled:   cfg.Server.Auth.OIDCEnabled,
		IssuerURL: cfg.Server.Auth.OIDCIssuerURL,
		Audience:  cfg.Server.Auth.OIDCAudience,
		ClockSkew: cfg.Server.Auth.OIDCClockSkew,
		CAFile:    cfg.Server.Auth.OIDCCAFile,
	}
}

// protect applies OIDC bearer auth when enabled.
func protect(cfg *config.Config, logger *logging.Logger, securityMetrics *observability.SecurityMetrics, h http.Handler) (http.Handler, error) {
	if !cfg.Server.Auth.OIDCEnabled {
		return h, nil
	}
	authMiddleware, err := middleware.OIDCAuthMiddleware(oidcAuthConfig(cfg), logger, securityMetrics)
	if err != nil {
		return nil, err
	}
	return authMiddleware(h), nil
}

func buildMCPHandler(cfg *config.Config, logger *logging.Logger, srv *mcp.Server, securityMetrics *observability.SecurityMetrics) (http.Handler, error) {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
	handler, err := protect(cfg, logger, securityMetrics, streamable)
	if err != nil {
		return nil, err
	}
	if cfg.Server.Auth.OIDCEnabled {
		logger.Info("MCP endpoint requires bearer authentication", slog.String("path", cfg.Server.MCPPath))
	}
	return handler, nil
}

func buildCatalogHandler(cfg *config.Config, logger *logging.Logger, catalog http.Handler, securityMetrics *observability.SecurityMetrics) (http.Handler, error) {
	handler := middleware.GraphQLRequestAnalysisMiddleware(cfg.Upstream.MaxQueryDepth)(catalog)
	return protect(cfg, logger, securityMetrics, handler)
}

type registryVerifier interface {
	VerifyRegistry(ctx context.Context, reg *registry.Registry) (upstream.Verification, error)
}

// buildAdminHandler guards the admin routes with OIDC when enabled and the
// shared admin token otherwise.
func buildAdminHandler(cfg *config.Config, logger *logging.Logger, verifier registryVerifier, reg *registry.Registry, registryMetrics *observability.RegistryMetrics, securityMetrics *observability.SecurityMetrics) (http.Handler, error) {
	var handler http.Handler = verifyResolversHandler(verifier, reg, registryMetrics, securityMetrics)
	if cfg.Server.Auth.OIDCEnabled {
		logger.Info("admin endpoints require OIDC authentication")
		return protect(cfg, logger, securityMetrics, handler)
	}

	tokenMiddleware, err := middleware.AdminTokenAuthMiddleware(middleware.AdminTokenAuthConfig{
		Token:   cfg.Server.Admin.AuthToken,
		Metrics: securityMetrics,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("admin endpoints require the admin token")
	return tokenMiddleware(handler), nil
}

type routes struct {
	mcp     http.Handler
	catalog http.Handler
	admin   http.Handler
	health  http.Handler
	metrics bool
}

func buildRouter(cfg *config.Config, logger *logging.Logger, r routes) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(cfg.Server.MCPPath, r.mcp)
	mux.Handle(healthPath, r.health)

	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/" && r.catalog != nil {
			http.Redirect(w, req, catalogPath, http.StatusFound)
			return
		}
		http.NotFound(w, req)
	})

	if r.catalog != nil {
		mux.Handle(catalogPath, r.catalog)
		logger.Info("catalog endpoint enabled", slog.String("path", catalogPath))
	}
	if r.admin != nil {
		mux.Handle(verifyResolversPath, r.admin)
		logger.Info("admin endpoint enabled", slog.String("path", verifyResolversPath))
	}
	if r.metrics {
		mux.Handle(metricsPath, promhttp.Handler())
		logger.Info("metrics endpoint enabled", slog.String("path", metricsPath))
	}
	return mux
}

func wrapHTTPHandler(cfg *config.Config, logger *logging.Logger, handler http.Handler) http.Handler {
	handler = middleware.LoggingMiddleware(logger)(handler)

	if cfg.Observability.MetricsEnabled || cfg.Observability.TracingEnabled {
		mcpPath := cfg.Server.MCPPath
		handler = otelhttp.NewHandler(handler, "http.server",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return httpRootSpanName(mcpPath, r)
			}),
		)
		logger.Info("HTTP instrumentation enabled")
	}

	if cfg.Server.CORSEnabled {
		handler = middleware.CORSMiddleware(middleware.CORSConfig{
			Enabled:          cfg.Server.CORSEnabled,
			AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   cfg.Server.CORSAllowedMethods,
			AllowedHeaders:   cfg.Server.CORSAllowedHeaders,
			ExposeHeaders:    cfg.Server.CORSExposeHeaders,
			AllowCredentials: cfg.Server.CORSAllowCredentials,
			MaxAge:           cfg.Server.CORSMaxAge,
		})(handler)
	}

	if cfg.Server.RateLimitEnabled {
		handler = middleware.RateLimitMiddleware(middleware.RateLimitConfig{
			Enabled: cfg.Server.RateLimitEnabled,
			RPS:     cfg.Server.RateLimitRPS,
			Burst:   cfg.Server.RateLimitBurst,
			Exempt:  []string{healthPath},
		})(handler)
	}

	return handler
}

func httpRootSpanName(mcpPath string, r *http.Request) string {
	if r == nil {
		return "HTTP /*"
	}
	method := strings.TrimSpace(r.Method)
	if method == "" {
		method = "HTTP"
	}
	return method + " " + normalizeHTTPSpanRoute(mcpPath, r.URL.Path)
}

// normalizeHTTPSpanRoute keeps span names low-cardinality.
func normalizeHTTPSpanRoute(mcpPath, rawPath string) string {
	switch rawPath {
	case "/", mcpPath, healthPath, metricsPath, catalogPath, verifyResolversPath:
		if rawPath == "" {
			return "/*"
		}
		return rawPath
	default:
		return "/*"
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

type healthInfo struct {
	version         string
	toolNames       []string
	resolverCount   int
	endpointPresent bool
	// audit is nil when the audit store is disabled.
	audit   pinger
	timeout time.Duration
}

type healthResponse struct {
	Status    string `json:"status"`
	Server    string `json:"server"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Tools     struct {
		Count int      `json:"count"`
		Names []string `json:"names"`
	} `json:"tools"`
	Resolvers struct {
		Count int `json:"count"`
	} `json:"resolvers"`
	Upstream struct {
		Endpoint string `json:"endpoint"`
	} `json:"upstream"`
	Audit string `json:"audit"`
}

// healthHandler reports readiness. It returns 503 only when the audit store
// is enabled and unreachable; the gateway is not probed.
func healthHandler(info healthInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logging.FromContext(r.Context())

		resp := healthResponse{
			Status:    "healthy",
			Server:    serverName,
			Version:   info.version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Audit:     "disabled",
		}
		resp.Tools.Count = len(info.toolNames)
		resp.Tools.Names = info.toolNames
		resp.Resolvers.Count = info.resolverCount
		resp.Upstream.Endpoint = "missing"
		if info.endpointPresent {
			resp.Upstream.Endpoint = "configured"
		}

		status := http.StatusOK
		if info.audit != nil {
			resp.Audit = "enabled"
			timeout := info.timeout
			if timeout <= 0 {
				timeout = defaultHealthTimeout
			}
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			if err := info.audit.Ping(ctx); err != nil {
				reqLogger.Error("health check failed",
					slog.String("error", err.Error()),
					slog.String("check", "audit"),
				)
				resp.Status = "unhealthy"
				status = http.StatusServiceUnavailable
			}
		}

		if status == http.StatusOK {
			reqLogger.Debug("health check passed")
		}
		writeJSON(w, status, resp)
	}
}

func verifyResolversHandler(verifier registryVerifier, reg *registry.Registry, registryMetrics *observability.RegistryMetrics, securityMetrics *observability.SecurityMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logging.FromContext(r.Context())

		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}

		authCtx, authenticated := middleware.AuthFromContext(r.Context())
		logAttrs := []any{
			slog.String("operation", "verify_resolvers"),
			slog.String("remote_addr", r.RemoteAddr),
			slog.Bool("authenticated", authenticated),
		}
		if authenticated {
			logAttrs = append(logAttrs,
				slog.String("authenticated_user", authCtx.Subject),
				slog.String("issuer", authCtx.Issuer),
			)
		}
		reqLogger.Info("admin endpoint accessed", logAttrs...)

		ctx, cancel := context.WithTimeout(r.Context(), verifyTimeout)
		defer cancel()

		start := time.Now()
		result, err := verifier.VerifyRegistry(ctx, reg)
		registryMetrics.RecordVerify(r.Context(), time.Since(start), len(result.Missing), "admin", err)
		securityMetrics.RecordAdminEndpointAccess(r.Context(), "verify_resolvers", authenticated, err == nil)

		if err != nil {
			reqLogger.Error("resolver verification failed",
				slog.String("error", err.Error()),
				slog.String("error_kind", upstream.ErrorKind(err)),
			)
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"status":  "error",
				"message": "gateway introspection failed",
			})
			return
		}

		status := "ok"
		if !result.OK() {
			status = "mismatch"
			reqLogger.Warn("registry resolvers missing upstream", slog.Any("missing", result.Missing))
		}
		writeJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
			upstream.Verification
		}{Status: status, Verification: result})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
