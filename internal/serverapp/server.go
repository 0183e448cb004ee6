package serverapp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"trade-graphql-mcp/internal/config"
	"trade-graphql-mcp/internal/logging"
	"trade-graphql-mcp/internal/tlscert"
)

func buildServer(cfg *config.Config, logger *logging.Logger, handler http.Handler, serverAddr string) (*http.Server, *tlscert.Source, error) {
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	if !cfg.Server.TLSEnabled() {
		return srv, nil, nil
	}

	source, err := tlscert.Load(tlscert.Config{
		Mode:        tlscert.Mode(cfg.Server.TLSMode),
		CertFile:    cfg.Server.TLSCertFile,
		KeyFile:     cfg.Server.TLSKeyFile,
		AutoCertDir: cfg.Server.TLSAutoCertDir,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	srv.TLSConfig = source.TLSConfig()

	logger.Info("TLS enabled",
		slog.String("mode", cfg.Server.TLSMode),
		slog.String("cert_source", source.Description()))
	return srv, source, nil
}

func startServer(cfg *config.Config, logger *logging.Logger, srv *http.Server, serverAddr string) chan error {
	serverErrors := make(chan error, 1)
	tlsEnabled := cfg.Server.TLSEnabled()
	go func() {
		protocol := "http"
		if tlsEnabled {
			protocol = "https"
		}

		logAttrs := []any{
			slog.String("protocol", protocol),
			slog.String("address", serverAddr),
			slog.String("mcp_endpoint", cfg.Server.MCPPath),
			slog.String("health_endpoint", healthPath),
			slog.String("upstream_endpoint", cfg.Upstream.Endpoint),
			slog.Int("max_page_size", cfg.Upstream.MaxPageSize),
			slog.String("log_level", cfg.Observability.Logging.Level),
			slog.Bool("tls_enabled", tlsEnabled),
		}
		if cfg.Server.CatalogEnabled {
			logAttrs = append(logAttrs, slog.String("catalog_endpoint", catalogPath))
		}
		if cfg.Observability.MetricsEnabled {
			logAttrs = append(logAttrs, slog.String("metrics_endpoint", metricsPath))
		}
		if cfg.Server.RateLimitEnabled {
			logAttrs = append(logAttrs,
				slog.Float64("rate_limit_rps", cfg.Server.RateLimitRPS),
				slog.Int("rate_limit_burst", cfg.Server.RateLimitBurst),
			)
		}
		logger.Info("server starting", logAttrs...)

		var err error
		if tlsEnabled {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed: %w", err)
		}
	}()
	return serverErrors
}
