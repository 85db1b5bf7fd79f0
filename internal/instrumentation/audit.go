package instrumentation

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// ToolInvocation captures one tool call for the audit trail.
type ToolInvocation struct {
	Tool   string
	Source string
	Agent  string

	// Arguments holds already sanitized argument values. They are only
	// emitted when the audit logger is configured to include them.
	Arguments map[string]string

	StartTime time.Time
	Duration  time.Duration
	Status    string
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
func NewToolInvocation(tool, source string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		Source:    source,
		StartTime: time.Now(),
	}
}

// WithAgent records the agent the call was routed to.
func (ti *ToolInvocation) WithAgent(agent string) *ToolInvocation {
	ti.Agent = agent
	return ti
}

// WithArguments attaches sanitized argument values.
func (ti *ToolInvocation) WithArguments(args map[string]string) *ToolInvocation {
	ti.Arguments = args
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete stamps the duration and the final envelope status.
func (ti *ToolInvocation) Complete(status, errMessage string) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Status = status
	ti.Error = errMessage
	return ti
}

// Succeeded reports whether the call ended with a non-error status.
func (ti *ToolInvocation) Succeeded() bool {
	return ti.Status != StatusError
}

// LogAttrs returns the slog attributes for the invocation.
func (ti *ToolInvocation) LogAttrs(includeArguments bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.String("source", ti.Source),
		slog.String("status", ti.Status),
		slog.Duration("duration", ti.Duration),
	}
	if ti.Agent != "" {
		attrs = append(attrs, slog.String("agent", ti.Agent))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID), slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	if includeArguments && len(ti.Arguments) > 0 {
		keys := make([]string, 0, len(ti.Arguments))
		for k := range ti.Arguments {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		args := make([]any, 0, len(keys))
		for _, k := range keys {
			args = append(args, slog.String(k, ti.Arguments[k]))
		}
		attrs = append(attrs, slog.Group("arguments", args...))
	}
	return attrs
}

// AuditLogger writes one structured record per tool invocation.
type AuditLogger struct {
	logger           *slog.Logger
	includeArguments bool
	enabled          bool
}

// NewAuditLogger creates an enabled AuditLogger that omits arguments.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:           logger.With(slog.String("component", "audit")),
		includeArguments: config.IncludeArguments,
		enabled:          config.Enabled,
	}
}

// LogToolInvocation logs ti at info level, or warn level when it failed.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.includeArguments)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Succeeded() {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
