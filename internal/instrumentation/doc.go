// Package instrumentation provides OpenTelemetry metrics, tracing and
// audit logging for inboxagent.
//
// # Metrics
//
//   - gmail_api_calls_total, gmail_api_call_duration_seconds: by operation and status
//   - tool_invocations_total, tool_duration_seconds: by tool, source (mcp, bridge, cli) and envelope status
//   - oauth_token_refresh_total: refreshed tokens written back to the token file
//   - http_requests_total, http_request_duration_seconds: realtime bridge HTTP traffic
//   - bridge_active_sessions, bridge_messages_total: realtime bridge sessions and inbound messages
//   - classifier_routes_total: request classifier decisions by kind and agent
//
// # Tracing
//
// Spans are created for tool invocations (tool.<name>) and Gmail API
// calls (gmail.<operation>).
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: inboxagent)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_ARGUMENTS: audit trail controls
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordGmailCall(ctx, instrumentation.OperationMessagesList, "success", time.Since(start))
package instrumentation
