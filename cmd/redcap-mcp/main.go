package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/redcap-mcp/internal/config"
	"github.com/usestring/redcap-mcp/pkg/client"
	"github.com/usestring/redcap-mcp/pkg/mcpsrv"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// REDCAP_HOST and REDCAP_TOKEN select the project; see internal/config
	// for the remaining variables and the REDCAP_CONFIG file overlay.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireJSON(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if cfg.Host == "" || cfg.Token == "" {
		slog.Warn("REDCAP_HOST or REDCAP_TOKEN is not set; every tool call will fail")
	}

	// nil logger: client logs follow the default installed by the server
	rc := client.New(cfg.ClientConfig(nil), client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPClientTimeout}))

	server, err := mcpsrv.NewServer(rc, mcpsrv.WithConfig(cfg))
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}
	defer server.Close()

	slog.Info("starting REDCap MCP server on stdio", "host", cfg.Host, "cache", cfg.CacheEnabled)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
