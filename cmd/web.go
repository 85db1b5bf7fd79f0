package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxagent/internal/bridge"
	"github.com/teemow/inboxagent/internal/config"
	"github.com/teemow/inboxagent/internal/server"
)

func newWebCmd() *cobra.Command {
	var metricsEnabled bool

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Start the realtime web bridge",
		Long: `Start the realtime web bridge. A browser opens /events/<clientId> to
receive server-sent events and posts messages to /send/<clientId>.

Every text message is routed to an agent and answered with one read-only
Gmail operation. The bundled page at / is a minimal chat client.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeb(cmd, metricsEnabled)
		},
	}

	cmd.Flags().String("addr", config.DefaultBridgeAddr, "Bridge listen address. Can also use BRIDGE_ADDR env var.")
	cmd.Flags().String("metrics-addr", config.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port")

	return cmd
}

func runWeb(cmd *cobra.Command, metricsEnabled bool) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(shutdownCtx, cmd, runtimeOptions{
		instrument: true,
		flags: map[string]string{
			config.KeyBridgeAddr:  "addr",
			config.KeyMetricsAddr: "metrics-addr",
		},
	})
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	healthChecker := server.NewHealthChecker(rt.sc, server.WithTokenFile(rt.cfg.TokenFile))
	srv, err := bridge.NewServer(bridge.Config{
		Runner:        bridge.NewRulesRunner(rt.toolbox(), rt.classifier(), rt.logger),
		Metrics:       rt.sc.Metrics(),
		Logger:        rt.logger,
		HealthChecker: healthChecker,
	})
	if err != nil {
		return fmt.Errorf("failed to create bridge server: %w", err)
	}

	stopMetrics, err := startMetricsServer(rt, MetricsConfig{Enabled: metricsEnabled, Addr: rt.cfg.MetricsAddr}, healthChecker)
	if err != nil {
		return err
	}
	defer stopMetrics()

	ln, err := net.Listen("tcp", rt.cfg.BridgeAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", rt.cfg.BridgeAddr, err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		rt.logger.Info("web bridge listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		rt.logger.Info("shutdown signal received, stopping web bridge")
		healthChecker.SetReady(false)
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("error shutting down web bridge: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("web bridge stopped with error: %w", err)
		}
	}
	return nil
}
