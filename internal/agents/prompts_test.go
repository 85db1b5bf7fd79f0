package agents

import (
	"context"
	"encoding/json"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromptServer(t *testing.T) *mcpserver.MCPServer {
	t.Helper()
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithPromptCapabilities(false))
	RegisterPrompts(s, NewDefaultRegistry(Models{}), newTestClassifier())
	return s
}

func handle(t *testing.T, s *mcpserver.MCPServer, msg string, out any) {
	t.Helper()
	resp := s.HandleMessage(context.Background(), []byte(msg))
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, out))
}

type getPromptResponse struct {
	Result struct {
		Description string `json:"description"`
		Messages    []struct {
			Role    string `json:"role"`
			Content struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	} `json:"result"`
}

func TestRegisterPrompts_List(t *testing.T) {
	s := newPromptServer(t)

	var decoded struct {
		Result struct {
			Prompts []struct {
				Name      string `json:"name"`
				Arguments []struct {
					Name     string `json:"name"`
					Required bool   `json:"required"`
				} `json:"arguments"`
			} `json:"prompts"`
		} `json:"result"`
	}
	handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"prompts/list"}`, &decoded)

	names := make([]string, 0, len(decoded.Result.Prompts))
	for _, p := range decoded.Result.Prompts {
		names = append(names, p.Name)
		require.Len(t, p.Arguments, 1, p.Name)
		assert.Equal(t, PromptArgRequest, p.Arguments[0].Name)
		assert.False(t, p.Arguments[0].Required)
	}
	assert.ElementsMatch(t, []string{
		RootAgent, TimeIntelligence, ContentAnalyzer, SearchSpecialist,
		LabelOrganizer, PriorityManager, DigestGenerator, SecurityMonitor, FlatManager,
	}, names)
}

func TestRegisterPrompts_Get(t *testing.T) {
	s := newPromptServer(t)

	var plain getPromptResponse
	handle(t, s, `{"jsonrpc":"2.0","id":2,"method":"prompts/get","params":{"name":"label_organizer"}}`, &plain)
	require.Len(t, plain.Result.Messages, 1)
	msg := plain.Result.Messages[0]
	assert.Equal(t, "user", msg.Role)
	assert.Equal(t, "text", msg.Content.Type)
	assert.Contains(t, msg.Content.Text, "Available tools: list_labels, get_label_details")
	assert.NotContains(t, msg.Content.Text, "User request")
	assert.NotContains(t, plain.Result.Description, "routed to")

	var routed getPromptResponse
	handle(t, s, `{"jsonrpc":"2.0","id":3,"method":"prompts/get","params":{"name":"gmail_manager","arguments":{"request":"emails from the last 3 days"}}}`, &routed)
	require.Len(t, routed.Result.Messages, 1)
	text := routed.Result.Messages[0].Content.Text
	assert.Contains(t, routed.Result.Description, "routed to time_intelligence")
	assert.Contains(t, text, "Sub-agents: time_intelligence")
	assert.Contains(t, text, "User request: emails from the last 3 days")
	assert.Contains(t, text, "Suggested route: time_intelligence via get_recent_emails with days=3")
}

func TestRenderPrompt(t *testing.T) {
	a := Agent{Name: "x", Instruction: "Do things.", Tools: []string{"a", "b"}}

	assert.Equal(t, "Do things.\n\nAvailable tools: a, b", RenderPrompt(a, "", nil))

	route := &Request{Agent: "y", Tool: "b", Args: map[string]any{"z": 1, "k": "v"}}
	assert.Equal(t,
		"Do things.\n\nAvailable tools: a, b\n\nUser request: hi\nSuggested route: y via b with k=v z=1",
		RenderPrompt(a, "hi", route))
}
