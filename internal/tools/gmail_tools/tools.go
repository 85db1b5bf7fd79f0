package gmail_tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/server"
)

// RegisterGmailTools registers every catalog operation with the MCP server.
// All tools are read-only.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	tb := NewToolboxFromContext(sc)
	for _, tool := range Tools() {
		s.AddTool(newMCPTool(tool), newMCPHandler(tb, tool.Name))
	}
	return nil
}

func newMCPTool(t Tool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(t.Description),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	for _, p := range t.Params {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch p.Type {
		case ParamNumber:
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}
	return mcp.NewTool(t.Name, opts...)
}

func newMCPHandler(tb *Toolbox, name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env := tb.Call(ctx, instrumentation.SourceMCP, name, Args(request.GetArguments()))
		return envelopeResult(env)
	}
}

// envelopeResult renders an envelope as a tool result. Error envelopes are
// flagged as tool errors so the calling model sees them as failures.
func envelopeResult(env Envelope) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to encode result: " + err.Error()), nil
	}
	if env.Status == StatusError {
		return mcp.NewToolResultError(string(b)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
