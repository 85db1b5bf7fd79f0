// Package logging provides structured logging utilities for inboxagent.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Build the process logger once and scope it per component:
//
//	logger := logging.New(logging.Options{Debug: cfg.Debug, AppName: cfg.AppName})
//	toolLogger := logging.WithTool(logger, "search_emails")
//	toolLogger.Info("search completed", logging.Query(q), logging.Count(n))
//
// # Security Considerations
//
// Mailbox contents and addresses are personal data:
//   - Sender addresses are hashed with AnonymizeEmail before logging
//   - Search queries are masked and truncated with SanitizeQuery
//   - Tokens are never logged directly
package logging
