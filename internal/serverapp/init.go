package serverapp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"trade-graphql-mcp/internal/catalog"
	"trade-graphql-mcp/internal/observability"
)

// Init initializes all runtime resources. It is idempotent.
func (a *App) Init(ctx context.Context) error {
	a.stateMu.Lock()
	if a.initialized {
		a.stateMu.Unlock()
		return nil
	}
	a.stateMu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	cleanup := cleanupStack{}
	success := false
	defer func() {
		if !success {
			_ = cleanup.run(context.Background(), a.logger)
		}
	}()

	if a.loggerProvider != nil {
		cleanup.push("logger provider", func(shutdownCtx context.Context) error {
			return a.loggerProvider.Shutdown(shutdownCtx, a.logger.Logger)
		})
	}

	metrics, err := initMetrics(a.cfg, a.logger)
	if metrics.provider != nil {
		cleanup.push("meter provider", func(shutdownCtx context.Context) error {
			return metrics.provider.Shutdown(shutdownCtx, a.logger.Logger)
		})
	}
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry metrics: %w", err)
	}

	tracerProvider, err := initTracing(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry tracing: %w", err)
	}
	if tracerProvider != nil {
		cleanup.push("tracer provider", func(shutdownCtx context.Context) error {
			return tracerProvider.Shutdown(shutdownCtx, a.logger.Logger)
		})
	}

	reg, err := loadRegistry(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to load resolver registry: %w", err)
	}
	var registryMetrics *observability.RegistryMetrics
	if metrics.provider != nil {
		registryMetrics, err = observability.InitRegistryMetrics(a.logger.Logger, reg.Len())
		if err != nil {
			return fmt.Errorf("failed to initialize registry metrics: %w", err)
		}
	}

	gateway, err := buildGateway(a.cfg, a.logger, metrics.upstream)
	if err != nil {
		return fmt.Errorf("failed to initialize gateway client: %w", err)
	}

	audit, err := openAudit(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open audit store: %w", err)
	}
	if audit != nil {
		cleanup.push("audit store", func(_ context.Context) error {
			return audit.Close()
		})
	}

	toolServer, err := buildToolServer(a.cfg, a.logger, reg, gateway, metrics.tools, audit)
	if err != nil {
		return fmt.Errorf("failed to build tool catalogue: %w", err)
	}
	mcpServer, err := newMCPServer(a.cfg, toolServer)
	if err != nil {
		return err
	}
	a.logger.Info("MCP tools registered", slog.Int("count", len(toolServer.Names())))

	a.stateMu.Lock()
	a.meterProvider = metrics.provider
	a.toolMetrics = metrics.tools
	a.upstreamMetrics = metrics.upstream
	a.securityMetrics = metrics.security
	a.registryMetrics = registryMetrics
	a.tracerProvider = tracerProvider
	a.registry = reg
	a.gateway = gateway
	a.audit = audit
	a.toolServer = toolServer
	a.mcpServer = mcpServer
	a.stateMu.Unlock()

	if a.stdio() {
		stdioCtx, stdioCancel := context.WithCancel(context.Background())
		cleanup.push("stdio session", func(_ context.Context) error {
			stdioCancel()
			return nil
		})
		a.stateMu.Lock()
		a.stdioCtx, a.stdioCancel = stdioCtx, stdioCancel
		a.stateMu.Unlock()
	} else if err := a.initHTTP(&cleanup); err != nil {
		return err
	}

	a.stateMu.Lock()
	a.cleanup = cleanup
	a.initialized = true
	a.stateMu.Unlock()

	success = true
	return nil
}

func (a *App) initHTTP(cleanup *cleanupStack) error {
	mcpHandler, err := buildMCPHandler(a.cfg, a.logger, a.mcpServer, a.securityMetrics)
	if err != nil {
		return fmt.Errorf("failed to initialize MCP handler: %w", err)
	}

	r := routes{
		mcp:     mcpHandler,
		metrics: a.cfg.Observability.MetricsEnabled && a.meterProvider != nil,
		health: healthHandler(healthInfo{
			version:         a.cfg.Observability.ServiceVersion,
			toolNames:       a.toolServer.Names(),
			resolverCount:   a.registry.Len(),
			endpointPresent: strings.TrimSpace(a.cfg.Upstream.Endpoint) != "",
			audit:           auditPinger(a),
			timeout:         a.cfg.Server.HealthCheckTimeout,
		}),
	}

	if a.cfg.Server.CatalogEnabled {
		cat, err := catalog.New(a.toolServer, catalog.Config{GraphiQL: a.cfg.Server.GraphiQLEnabled})
		if err != nil {
			return fmt.Errorf("failed to build catalog schema: %w", err)
		}
		a.catalog = cat
		r.catalog, err = buildCatalogHandler(a.cfg, a.logger, cat, a.securityMetrics)
		if err != nil {
			return fmt.Errorf("failed to initialize catalog handler: %w", err)
		}
	}

	if a.cfg.Server.Admin.Enabled {
		r.admin, err = buildAdminHandler(a.cfg, a.logger, a.gateway, a.registry, a.registryMetrics, a.securityMetrics)
		if err != nil {
			return fmt.Errorf("failed to initialize admin handler: %w", err)
		}
	}

	mux := buildRouter(a.cfg, a.logger, r)
	handler := wrapHTTPHandler(a.cfg, a.logger, mux)

	serverAddr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	srv, tlsSource, err := buildServer(a.cfg, a.logger, handler, serverAddr)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	cleanup.push("HTTP server", func(shutdownCtx context.Context) error {
		return srv.Shutdown(shutdownCtx)
	})

	a.stateMu.Lock()
	a.mux = mux
	a.handler = handler
	a.serverAddr = serverAddr
	a.srv = srv
	a.tlsSource = tlsSource
	a.stateMu.Unlock()
	return nil
}

// auditPinger avoids storing a typed nil in the interface.
func auditPinger(a *App) pinger {
	if a.audit == nil {
		return nil
	}
	return a.audit
}
