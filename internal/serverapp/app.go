// Package serverapp wires configuration into a running MCP server: telemetry,
// the resolver registry, the gateway client, the optional audit store and
// either the HTTP listener or the stdio transport.
package serverapp

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"trade-graphql-mcp/internal/auditlog"
	"trade-graphql-mcp/internal/catalog"
	"trade-graphql-mcp/internal/config"
	"trade-graphql-mcp/internal/logging"
	"trade-graphql-mcp/internal/observability"
	"trade-graphql-mcp/internal/registry"
	"trade-graphql-mcp/internal/tlscert"
	"trade-graphql-mcp/internal/tools"
	"trade-graphql-mcp/internal/upstream"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// App owns runtime resources for the server lifecycle.
type App struct {
	cfg    *config.Config
	logger *logging.Logger

	loggerProvider *observability.LoggerProvider

	meterProvider   *observability.MeterProvider
	toolMetrics     *observability.ToolMetrics
	upstreamMetrics *observability.UpstreamMetrics
	registryMetrics *observability.RegistryMetrics
	securityMetrics *observability.SecurityMetrics
	tracerProvider  *observability.TracerProvider

	registry   *registry.Registry
	gateway    *upstream.Client
	audit      *auditlog.Store
	toolServer *tools.Server
	mcpServer  *mcp.Server
	catalog    *catalog.Catalog

	mux     *http.ServeMux
	handler http.Handler

	serverAddr string
	srv        *http.Server
	tlsSource  *tlscert.Source

	// stdioCancel stops the stdio session; nil in HTTP mode.
	stdioCtx    context.Context
	stdioCancel context.CancelFunc

	cleanup cleanupStack

	stateMu      sync.Mutex
	initialized  bool
	started      bool
	serverErrors chan error

	shutdownOnce sync.Once
}

// New creates an App lifecycle wrapper.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &App{cfg: cfg, logger: logger}, nil
}

// AttachLoggerProvider registers an optional logger provider for shutdown cleanup.
func (a *App) AttachLoggerProvider(provider *observability.LoggerProvider) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.loggerProvider = provider
}

func (a *App) stdio() bool {
	return a.cfg.Server.Transport == config.TransportStdio
}
