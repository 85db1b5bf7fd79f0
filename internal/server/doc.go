// Package server provides the shared server context, health probes and
// the Prometheus metrics server for inboxagent.
//
// # Key Components
//
// ServerContext owns the Gmail client, the metrics recorder, the audit
// logger and the shutdown state. The MCP server, the realtime bridge and
// the CLI all read their dependencies from it.
//
// HealthChecker serves Kubernetes style probes:
//   - /healthz: liveness
//   - /readyz: readiness, failing while shutting down, with the token
//     cache state and the live bridge session count
//   - /healthz/detailed: uptime and dependency checks
//
// MetricsServer exposes /metrics on a dedicated address so operational
// metrics stay off the application port.
package server
