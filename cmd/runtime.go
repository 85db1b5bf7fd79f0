package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxagent/internal/agents"
	"github.com/teemow/inboxagent/internal/config"
	"github.com/teemow/inboxagent/internal/gmail"
	"github.com/teemow/inboxagent/internal/google"
	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/logging"
	"github.com/teemow/inboxagent/internal/server"
	"github.com/teemow/inboxagent/internal/tools/gmail_tools"
)

// runtimeOptions selects what newRuntime sets up.
type runtimeOptions struct {
	// instrument enables the OpenTelemetry provider.
	instrument bool
	// requireGmail fails when no Gmail client can be built instead of
	// continuing without one.
	requireGmail bool
	// offline skips the Gmail client entirely.
	offline bool
	// flags maps config keys to command flag names.
	flags map[string]string
	// logWriter overrides stderr.
	logWriter io.Writer
}

// runtime holds the process-wide dependencies of a command.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	sc       *server.ServerContext
	registry *agents.Registry
	location *time.Location
}

func loadConfig(cmd *cobra.Command, flags map[string]string) (*config.Config, error) {
	opts := []config.Option{
		config.WithEnvFile(envFile),
		config.WithFlag(config.KeyDebug, cmd.Flags().Lookup("debug")),
	}
	for key, name := range flags {
		opts = append(opts, config.WithFlag(key, cmd.Flags().Lookup(name)))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newRuntime(ctx context.Context, cmd *cobra.Command, opts runtimeOptions) (*runtime, error) {
	cfg, err := loadConfig(cmd, opts.flags)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Options{
		Debug:   cfg.Debug,
		Format:  logging.ParseFormat(logFormat),
		Writer:  opts.logWriter,
		AppName: cfg.AppName,
	})
	slog.SetDefault(logger)

	loc := time.Local
	if cfg.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
		}
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if !opts.instrument {
		instrConfig.Enabled = false
	}
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	metrics := provider.Metrics()

	registry := agents.NewDefaultRegistry(agents.Models{Root: cfg.AgentModelsRoot})
	if err := registry.Validate(gmail_tools.ToolNames()); err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("invalid agent catalog: %w", err)
	}

	var client *gmail.Client
	if !opts.offline {
		client, err = newGmailClient(ctx, cfg, metrics, logger, loc)
		if err != nil {
			if opts.requireGmail {
				_ = provider.Shutdown(ctx)
				return nil, err
			}
			logger.Warn("gmail unavailable, tools will report errors", logging.Err(err))
		}
	}

	scOpts := []server.Option{
		server.WithMetrics(metrics),
		server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)),
		server.WithLogger(logger),
		server.WithLocation(loc),
	}
	if client != nil {
		scOpts = append(scOpts, server.WithGmailClient(client))
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		sc:       server.NewServerContext(ctx, scOpts...),
		registry: registry,
		location: loc,
	}, nil
}

func newGmailClient(ctx context.Context, cfg *config.Config, metrics *instrumentation.Metrics, logger *slog.Logger, loc *time.Location) (*gmail.Client, error) {
	if err := cfg.RequireGmail(); err != nil {
		return nil, err
	}
	conf, err := google.LoadConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	httpClient, err := google.NewHTTPClient(ctx, conf, cfg.TokenFile, metrics)
	if err != nil {
		if errors.Is(err, google.ErrTokenNotFound) {
			return nil, fmt.Errorf("%w (token file %s)", err, cfg.TokenFile)
		}
		return nil, err
	}
	return gmail.NewClient(ctx, httpClient,
		gmail.WithUserID(cfg.UserID),
		gmail.WithLocation(loc),
		gmail.WithMetrics(metrics),
		gmail.WithLogger(logger),
	)
}

// toolbox returns a toolbox bound to the server context.
func (rt *runtime) toolbox() *gmail_tools.Toolbox {
	return gmail_tools.NewToolboxFromContext(rt.sc)
}

// classifier returns a request classifier that records routing metrics.
func (rt *runtime) classifier() *agents.Classifier {
	return agents.NewClassifier(
		agents.WithClock(func() time.Time { return time.Now().In(rt.location) }),
		agents.WithMetrics(rt.sc.Metrics()),
		agents.WithLogger(rt.logger),
	)
}

func (rt *runtime) close(ctx context.Context) {
	if err := rt.sc.Shutdown(); err != nil {
		rt.logger.Warn("server context shutdown failed", logging.Err(err))
	}
	if err := rt.provider.Shutdown(ctx); err != nil {
		rt.logger.Warn("instrumentation shutdown failed", logging.Err(err))
	}
}
