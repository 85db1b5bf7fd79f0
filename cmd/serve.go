package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxagent/internal/agents"
	"github.com/teemow/inboxagent/internal/config"
	"github.com/teemow/inboxagent/internal/logging"
	"github.com/teemow/inboxagent/internal/resources"
	"github.com/teemow/inboxagent/internal/server"
	"github.com/teemow/inboxagent/internal/tools/gmail_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		transport      string
		httpAddr       string
		metricsEnabled bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server. It exposes the read-only
Gmail operations as tools, every agent as a prompt, and the agent catalog
and mailbox labels as resources.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp

Gmail access needs GMAIL_APP_CREDENTIALS_FILE and a token created with the
auth command. Without them the server still starts and tools report errors.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, transport, httpAddr, metricsEnabled)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (streamable-http only)")
	cmd.Flags().String("metrics-addr", config.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// newMCPServer builds the MCP server with every tool and agent prompt.
func newMCPServer(rt *runtime) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("inboxagent", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
	)
	if err := gmail_tools.RegisterGmailTools(mcpSrv, rt.sc); err != nil {
		return nil, fmt.Errorf("failed to register Gmail tools: %w", err)
	}
	agents.RegisterPrompts(mcpSrv, rt.registry, rt.classifier())
	resources.RegisterResources(mcpSrv, rt.registry, rt.toolbox())
	return mcpSrv, nil
}

func runServe(cmd *cobra.Command, transport, httpAddr string, metricsEnabled bool) error {
	if transport != transportStdio && transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(shutdownCtx, cmd, runtimeOptions{
		instrument: true,
		flags:      map[string]string{config.KeyMetricsAddr: "metrics-addr"},
	})
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	mcpSrv, err := newMCPServer(rt)
	if err != nil {
		return err
	}

	if transport == transportStdio {
		return runStdioServer(mcpSrv)
	}

	healthChecker := server.NewHealthChecker(rt.sc, server.WithTokenFile(rt.cfg.TokenFile))
	metricsConfig := MetricsConfig{Enabled: metricsEnabled, Addr: rt.cfg.MetricsAddr}
	stopMetrics, err := startMetricsServer(rt, metricsConfig, healthChecker)
	if err != nil {
		return err
	}
	defer stopMetrics()

	return runStreamableHTTPServer(shutdownCtx, rt, mcpSrv, httpAddr, healthChecker)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// startMetricsServer starts the Prometheus endpoint when enabled. The
// returned function stops it.
func startMetricsServer(rt *runtime, cfg MetricsConfig, health *server.HealthChecker) (func(), error) {
	if !cfg.Enabled || !rt.provider.UsesPrometheus() {
		return func() {}, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Addr,
		InstrumentationProvider: rt.provider,
		HealthChecker:           health,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	ln, err := net.Listen("tcp", metricsServer.Addr())
	if err != nil {
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	}
	go func() {
		if err := metricsServer.Serve(ln); err != nil {
			rt.logger.Error("metrics server stopped", logging.Err(err))
		}
	}()
	rt.logger.Info("metrics server started", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			rt.logger.Warn("metrics server shutdown failed", logging.Err(err))
		}
	}, nil
}

func runStreamableHTTPServer(ctx context.Context, rt *runtime, mcpSrv *mcpserver.MCPServer, addr string, health *server.HealthChecker) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv, mcpserver.WithEndpointPath("/mcp")))
	health.RegisterHealthEndpoints(mux)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		rt.logger.Info("MCP server listening",
			"addr", addr, "endpoint", "/mcp", "health", "/healthz, /readyz")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		rt.logger.Info("shutdown signal received, stopping MCP server")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
	}
	return nil
}
