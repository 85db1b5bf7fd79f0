package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrResult    = "result"
	attrTool      = "tool"
	attrSource    = "source"
	attrMimeType  = "mime_type"
	attrKind      = "kind"
	attrAgent     = "agent"
)

var latencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// Metrics records the process metrics. A zero Metrics is a valid no-op
// recorder, which is what a disabled Provider hands out.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	gmailCallsTotal   metric.Int64Counter
	gmailCallDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	tokenRefreshTotal metric.Int64Counter

	bridgeSessions      metric.Int64UpDownCounter
	bridgeMessagesTotal metric.Int64Counter
	routesTotal         metric.Int64Counter
}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.httpRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests served by the bridge"),
		metric.WithUnit("{request}")); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}
	if m.httpRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0)); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	if m.gmailCallsTotal, err = meter.Int64Counter("gmail_api_calls_total",
		metric.WithDescription("Total number of Gmail API calls"),
		metric.WithUnit("{call}")); err != nil {
		return nil, fmt.Errorf("failed to create gmail_api_calls_total counter: %w", err)
	}
	if m.gmailCallDuration, err = meter.Float64Histogram("gmail_api_call_duration_seconds",
		metric.WithDescription("Gmail API call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...)); err != nil {
		return nil, fmt.Errorf("failed to create gmail_api_call_duration_seconds histogram: %w", err)
	}

	if m.toolInvocationsTotal, err = meter.Int64Counter("tool_invocations_total",
		metric.WithDescription("Total number of mailbox tool invocations"),
		metric.WithUnit("{invocation}")); err != nil {
		return nil, fmt.Errorf("failed to create tool_invocations_total counter: %w", err)
	}
	if m.toolDuration, err = meter.Float64Histogram("tool_duration_seconds",
		metric.WithDescription("Mailbox tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...)); err != nil {
		return nil, fmt.Errorf("failed to create tool_duration_seconds histogram: %w", err)
	}

	if m.tokenRefreshTotal, err = meter.Int64Counter("oauth_token_refresh_total",
		metric.WithDescription("Total number of OAuth token refreshes persisted to the token file"),
		metric.WithUnit("{attempt}")); err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_refresh_total counter: %w", err)
	}

	if m.bridgeSessions, err = meter.Int64UpDownCounter("bridge_active_sessions",
		metric.WithDescription("Number of open realtime bridge sessions"),
		metric.WithUnit("{session}")); err != nil {
		return nil, fmt.Errorf("failed to create bridge_active_sessions gauge: %w", err)
	}
	if m.bridgeMessagesTotal, err = meter.Int64Counter("bridge_messages_total",
		metric.WithDescription("Total number of client messages accepted by the realtime bridge"),
		metric.WithUnit("{message}")); err != nil {
		return nil, fmt.Errorf("failed to create bridge_messages_total counter: %w", err)
	}
	if m.routesTotal, err = meter.Int64Counter("classifier_routes_total",
		metric.WithDescription("Total number of requests routed by the request classifier"),
		metric.WithUnit("{request}")); err != nil {
		return nil, fmt.Errorf("failed to create classifier_routes_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, route, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGmailCall records one Gmail API call, e.g. operation "messages.list".
func (m *Metrics) RecordGmailCall(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.gmailCallsTotal == nil || m.gmailCallDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, NormalizeStatus(status)),
	)
	m.gmailCallsTotal.Add(ctx, 1, attrs)
	m.gmailCallDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records a tool invocation. status is the envelope
// status; source says which surface made the call.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, source, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrSource, source),
		attribute.String(attrStatus, NormalizeStatus(status)),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordOAuthTokenRefresh records an OAuth token refresh with its result.
func (m *Metrics) RecordOAuthTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.tokenRefreshTotal == nil {
		return
	}
	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// IncrementBridgeSessions marks a realtime bridge session as opened.
func (m *Metrics) IncrementBridgeSessions(ctx context.Context) {
	if m == nil || m.bridgeSessions == nil {
		return
	}
	m.bridgeSessions.Add(ctx, 1)
}

// DecrementBridgeSessions marks a realtime bridge session as closed.
func (m *Metrics) DecrementBridgeSessions(ctx context.Context) {
	if m == nil || m.bridgeSessions == nil {
		return
	}
	m.bridgeSessions.Add(ctx, -1)
}

// RecordBridgeMessage counts an inbound client message by mime type.
func (m *Metrics) RecordBridgeMessage(ctx context.Context, mimeType string) {
	if m == nil || m.bridgeMessagesTotal == nil {
		return
	}
	m.bridgeMessagesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrMimeType, MimeTypeLabel(mimeType))))
}

// RecordRoute counts a classifier decision.
func (m *Metrics) RecordRoute(ctx context.Context, kind, agent string) {
	if m == nil || m.routesTotal == nil {
		return
	}
	m.routesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrKind, kind),
		attribute.String(attrAgent, agent),
	))
}
