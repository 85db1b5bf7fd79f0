// Package cmd implements the command-line interface for inboxagent.
//
// This package provides the following commands:
//   - web: Start the realtime web bridge (default when no subcommand is given)
//   - serve: Start the MCP server with the Gmail tools and agent prompts
//   - tool: List or invoke single read-only Gmail operations
//   - agents: Inspect the agent catalog and request routing
//   - auth: Authorize Gmail access and save the OAuth token
//   - generate-docs: Generate markdown documentation for tools and agents
//   - version: Display version information
//
// Settings come from an optional dotenv file, the environment and command
// flags. Later sources win.
package cmd
