package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/inboxagent/internal/gmail"
	"github.com/teemow/inboxagent/internal/instrumentation"
)

// ServerContext holds the dependencies shared by the MCP server, the
// realtime bridge and the CLI: the Gmail client, instrumentation and the
// shutdown state.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	gmailClient *gmail.Client
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger
	location    *time.Location
	mu          sync.RWMutex
	shutdown    bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithGmailClient sets the Gmail client used by every operation.
func WithGmailClient(c *gmail.Client) Option {
	return func(sc *ServerContext) { sc.gmailClient = c }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger sets the tool invocation audit logger.
func WithAuditLogger(a *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.auditLogger = a }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = l }
}

// WithLocation sets the time zone used for "today" and email dates.
func WithLocation(loc *time.Location) Option {
	return func(sc *ServerContext) { sc.location = loc }
}

// NewServerContext creates a new server context. A missing Gmail client is
// allowed so the server can start before the user has authorized; tools
// then answer with error envelopes.
func NewServerContext(ctx context.Context, opts ...Option) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		logger:   slog.Default(),
		location: time.Local,
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.gmailClient == nil {
		sc.logger.Warn("no Gmail client configured, run the auth command to create a token")
	}
	return sc
}

// Context returns the server context. It is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// GmailClient returns the Gmail client, or nil when none is configured.
func (sc *ServerContext) GmailClient() *gmail.Client {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.gmailClient
}

// SetGmailClient replaces the Gmail client.
func (sc *ServerContext) SetGmailClient(client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClient = client
}

// Metrics returns the metrics recorder. It may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger. It may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Logger returns the base logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Location returns the configured time zone.
func (sc *ServerContext) Location() *time.Location {
	return sc.location
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
