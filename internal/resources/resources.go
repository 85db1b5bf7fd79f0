package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxagent/internal/agents"
	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/tools/gmail_tools"
)

// Resource URIs.
const (
	CatalogURI = "agent://catalog"
	LabelsURI  = "gmail://labels"
)

const (
	mimeJSON     = "application/json"
	mimeMarkdown = "text/markdown"
)

// AgentURI returns the resource URI of an agent's instruction.
func AgentURI(name string) string {
	return "agent://" + name
}

// RegisterResources registers the agent catalog, one instruction resource
// per agent and the mailbox label listing.
func RegisterResources(s *mcpserver.MCPServer, reg *agents.Registry, tb *gmail_tools.Toolbox) {
	catalog := mcp.NewResource(
		CatalogURI,
		"Agent Catalog",
		mcp.WithResourceDescription("Every agent with its model, tools and sub-agents"),
		mcp.WithMIMEType(mimeJSON),
	)
	s.AddResource(catalog, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, reg.All())
	})

	for _, a := range reg.All() {
		res := mcp.NewResource(
			AgentURI(a.Name),
			a.Name+" instruction",
			mcp.WithResourceDescription(a.Description),
			mcp.WithMIMEType(mimeMarkdown),
		)
		instruction := a.Instruction
		s.AddResource(res, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return []mcp.ResourceContents{
				&mcp.TextResourceContents{
					URI:      request.Params.URI,
					MIMEType: mimeMarkdown,
					Text:     instruction,
				},
			}, nil
		})
	}

	labels := mcp.NewResource(
		LabelsURI,
		"Gmail Labels",
		mcp.WithResourceDescription("Labels of the connected mailbox with message counts"),
		mcp.WithMIMEType(mimeJSON),
	)
	s.AddResource(labels, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		env := tb.Call(ctx, instrumentation.SourceMCP, "list_labels", nil)
		if env.Status == gmail_tools.StatusError {
			return nil, fmt.Errorf("failed to list labels: %s", env.ErrorMessage)
		}
		return jsonContents(request.Params.URI, env)
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		},
	}, nil
}
