package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// PromptArgRequest is the optional prompt argument carrying the user's request.
const PromptArgRequest = "request"

// RegisterPrompts exposes every agent in reg as an MCP prompt. Hosts fetch the
// prompt to obtain the agent's instruction and tool list; when a request is
// supplied the classifier's routing decision is appended.
func RegisterPrompts(s *mcpserver.MCPServer, reg *Registry, cl *Classifier) {
	for _, a := range reg.All() {
		prompt := mcp.NewPrompt(a.Name,
			mcp.WithPromptDescription(a.Description),
			mcp.WithArgument(PromptArgRequest,
				mcp.ArgumentDescription("Optional user request to route and answer"),
			),
		)
		s.AddPrompt(prompt, promptHandler(reg, cl, a.Name))
	}
}

func promptHandler(reg *Registry, cl *Classifier, name string) mcpserver.PromptHandlerFunc {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		a, ok := reg.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown agent %q", name)
		}

		text := strings.TrimSpace(request.Params.Arguments[PromptArgRequest])
		description := a.Description
		var route *Request
		if text != "" && cl != nil {
			r := cl.Route(ctx, text)
			route = &r
			description = fmt.Sprintf("%s (routed to %s)", a.Description, r.Agent)
		}

		return mcp.NewGetPromptResult(description, []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(RenderPrompt(a, text, route))),
		}), nil
	}
}

// RenderPrompt builds the prompt text for an agent.
func RenderPrompt(a Agent, text string, route *Request) string {
	var b strings.Builder
	b.WriteString(a.Instruction)
	b.WriteString("\n\nAvailable tools: ")
	b.WriteString(strings.Join(a.Tools, ", "))
	if len(a.SubAgents) > 0 {
		b.WriteString("\nSub-agents: ")
		b.WriteString(strings.Join(a.SubAgents, ", "))
	}
	if text == "" {
		return b.String()
	}

	b.WriteString("\n\nUser request: ")
	b.WriteString(text)
	if route != nil {
		fmt.Fprintf(&b, "\nSuggested route: %s via %s", route.Agent, route.Tool)
		if len(route.Args) > 0 {
			b.WriteString(" with ")
			b.WriteString(formatArgs(route.Args))
		}
	}
	return b.String()
}

func formatArgs(args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return strings.Join(parts, " ")
}
