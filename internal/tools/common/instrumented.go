package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/logging"
	"github.com/teemow/inboxagent/internal/server"
)

type agentKey struct{}

// WithAgent records on ctx the agent a request was routed to, so tool
// calls made on its behalf are attributed to it.
func WithAgent(ctx context.Context, agent string) context.Context {
	return context.WithValue(ctx, agentKey{}, agent)
}

// AgentFromContext returns the agent set by WithAgent, or "".
func AgentFromContext(ctx context.Context) string {
	agent, _ := ctx.Value(agentKey{}).(string)
	return agent
}

// Outcome is the result of one tool call as seen by instrumentation.
type Outcome struct {
	Status string
	Error  string
}

// InstrumentedCall runs call inside a tool span and records its duration
// and outcome in metrics and the audit log. sc may be nil.
//
// Usage:
//
//	common.InstrumentedCall(ctx, sc, "list_labels", instrumentation.SourceMCP, args,
//		func(ctx context.Context) common.Outcome { ... })
func InstrumentedCall(
	ctx context.Context,
	sc *server.ServerContext,
	toolName string,
	source string,
	args map[string]any,
	call func(ctx context.Context) Outcome,
) Outcome {
	var (
		metrics     *instrumentation.Metrics
		auditLogger *instrumentation.AuditLogger
	)
	if sc != nil {
		metrics = sc.Metrics()
		auditLogger = sc.AuditLogger()
	}

	agent := AgentFromContext(ctx)
	ctx, span := instrumentation.StartToolSpan(ctx, toolName, source,
		attribute.String(instrumentation.SpanAttrAgent, agent))
	defer span.End()

	start := time.Now()
	invocation := instrumentation.NewToolInvocation(toolName, source).
		WithAgent(agent).
		WithArguments(SanitizeArguments(args)).
		WithSpanContext(ctx)

	out := call(ctx)
	duration := time.Since(start)

	status := instrumentation.NormalizeStatus(out.Status)
	span.SetAttributes(attribute.String(instrumentation.SpanAttrStatus, status))
	if status == instrumentation.StatusError {
		instrumentation.SetSpanError(span, errors.New(out.Error))
	} else {
		instrumentation.SetSpanSuccess(span)
	}

	metrics.RecordToolInvocation(ctx, toolName, source, status, duration)
	auditLogger.LogToolInvocation(invocation.Complete(status, out.Error))

	return out
}

// SanitizeArguments renders tool arguments for the audit log. Queries are
// shortened and addresses are replaced by their hash.
func SanitizeArguments(args map[string]any) map[string]string {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]string, len(args))
	for k, v := range args {
		s := fmt.Sprint(v)
		switch {
		case k == "query":
			s = logging.SanitizeQuery(s)
		case strings.Contains(s, "@"):
			s = logging.AnonymizeEmail(s)
		}
		out[k] = s
	}
	return out
}
