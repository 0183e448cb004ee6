package serverapp

import (
	"context"
	"fmt"
	"log/slog"

	"trade-graphql-mcp/internal/auditlog"
	"trade-graphql-mcp/internal/config"
	"trade-graphql-mcp/internal/gqlrequest"
	"trade-graphql-mcp/internal/logging"
	"trade-graphql-mcp/internal/normalize"
	"trade-graphql-mcp/internal/observability"
	"trade-graphql-mcp/internal/registry"
	"trade-graphql-mcp/internal/tools"
	"trade-graphql-mcp/internal/upstream"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "trade-graphql-mcp"

func loadRegistry(cfg *config.Config, logger *logging.Logger) (*registry.Registry, error) {
	reg, err := registry.Load(cfg.Registry.OverlayFile)
	if err != nil {
		return nil, err
	}
	logger.Info("resolver registry loaded",
		slog.Int("resolvers", reg.Len()),
		slog.String("overlay_file", cfg.Registry.OverlayFile),
	)
	return reg, nil
}

func buildGateway(cfg *config.Config, logger *logging.Logger, metrics *observability.UpstreamMetrics) (*upstream.Client, error) {
	if cfg.Upstream.SubscriptionKey == "" {
		logger.Warn("no gateway subscription key configured; requests will be sent without one")
	}
	return upstream.NewClient(upstream.Config{
		Endpoint:              cfg.Upstream.Endpoint,
		SubscriptionKey:       cfg.Upstream.SubscriptionKey,
		SubscriptionKeyHeader: cfg.Upstream.SubscriptionKeyHeader,
		Timeout:               cfg.Upstream.Timeout,
		DebugQueryMaxChars:    cfg.Upstream.DebugQueryMaxChars,
	}, upstream.WithLogger(logger), upstream.WithMetrics(metrics))
}

func openAudit(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*auditlog.Store, error) {
	if !cfg.Audit.Enabled {
		return nil, nil
	}
	store, err := auditlog.Open(ctx, auditlog.Config{
		DSN:         cfg.Audit.DSN,
		Table:       cfg.Audit.Table,
		Timeout:     cfg.Audit.Timeout,
		MaxOpen:     cfg.Audit.MaxOpen,
		MaxIdle:     cfg.Audit.MaxIdle,
		CreateTable: cfg.Audit.CreateTable,
		Metrics:     cfg.Observability.MetricsEnabled,
		Tracing:     cfg.Observability.TracingEnabled,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("audit store connected", slog.String("table", store.Table()))
	return store, nil
}

func buildToolServer(cfg *config.Config, logger *logging.Logger, reg *registry.Registry, gateway tools.Gateway, metrics *observability.ToolMetrics, audit *auditlog.Store) (*tools.Server, error) {
	opts := []tools.Option{
		tools.WithLimits(normalize.Limits{
			DefaultPageSize: cfg.Upstream.DefaultPageSize,
			MaxPageSize:     cfg.Upstream.MaxPageSize,
		}),
		tools.WithInlinePolicy(gqlrequest.InlinePolicy{MaxDepth: cfg.Upstream.MaxQueryDepth}),
		tools.WithLogger(logger),
		tools.WithMetrics(metrics),
	}
	if audit != nil {
		opts = append(opts, tools.WithAuditor(audit))
	}
	return tools.New(reg, gateway, opts...)
}

func newMCPServer(cfg *config.Config, toolServer *tools.Server) (*mcp.Server, error) {
	version := cfg.Observability.ServiceVersion
	if version == "" {
		version = "dev"
	}
	srv := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	if err := toolServer.Register(srv); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	return srv, nil
}
