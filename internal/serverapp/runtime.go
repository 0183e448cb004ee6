package serverapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// errTransportClosed reports that the stdio client went away.
var errTransportClosed = errors.New("mcp transport closed")

// Start launches the HTTP server or the stdio session. It requires Init to
// have completed.
func (a *App) Start() (<-chan error, error) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	if !a.initialized {
		return nil, fmt.Errorf("app is not initialized")
	}
	if a.started {
		return a.serverErrors, nil
	}

	if a.stdio() {
		a.serverErrors = startStdio(a.stdioCtx, a.mcpServer, &mcp.StdioTransport{}, a)
	} else {
		a.serverErrors = startServer(a.cfg, a.logger, a.srv, a.serverAddr)
	}
	a.started = true
	return a.serverErrors, nil
}

func startStdio(ctx context.Context, srv *mcp.Server, transport mcp.Transport, a *App) chan error {
	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("MCP server running on stdio", slog.Int("tools", len(a.toolServer.Names())))
		err := srv.Run(ctx, transport)
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			err = errTransportClosed
		}
		serverErrors <- err
	}()
	return serverErrors
}

// WaitForStop waits for an OS signal, a server error, or the stdio client
// disconnecting.
func (a *App) WaitForStop(stop <-chan os.Signal, serverErrors <-chan error) (reason string, err error) {
	if serverErrors == nil {
		a.stateMu.Lock()
		serverErrors = a.serverErrors
		a.stateMu.Unlock()
	}

	if stop == nil && serverErrors == nil {
		return "", fmt.Errorf("both stop and serverErrors channels are nil")
	}

	select {
	case err := <-serverErrors:
		return a.serverStopped(err)
	case sig := <-stop:
		if a.logger != nil {
			a.logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		}
		return "signal", nil
	}
}

func (a *App) serverStopped(err error) (string, error) {
	switch {
	case errors.Is(err, errTransportClosed):
		if a.logger != nil {
			a.logger.Info("MCP client disconnected")
		}
		return "transport_closed", nil
	case err == nil:
		return "server_error", fmt.Errorf("server stopped unexpectedly")
	default:
		return "server_error", fmt.Errorf("server failed: %w", err)
	}
}
