// Package common provides shared utilities for tool implementations.
// It wraps tool invocations with tracing, metrics and audit logging so the
// MCP server, the realtime bridge and the CLI record calls the same way.
package common
