// Package resources publishes read-only MCP resources: the agent catalog,
// each agent's instruction text and the mailbox label listing.
package resources
