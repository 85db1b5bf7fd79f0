package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxagent/internal/tools/gmail_tools"
)

func TestCatalog_Valid(t *testing.T) {
	reg := NewDefaultRegistry(Models{})
	require.NoError(t, reg.Validate(gmail_tools.ToolNames()))

	names := make([]string, 0)
	for _, a := range reg.All() {
		names = append(names, a.Name)
		assert.NotEmpty(t, a.Instruction, a.Name)
		assert.NotEmpty(t, a.Description, a.Name)
	}
	assert.Equal(t, []string{
		RootAgent, TimeIntelligence, ContentAnalyzer, SearchSpecialist,
		LabelOrganizer, PriorityManager, DigestGenerator, SecurityMonitor, FlatManager,
	}, names)
}

func TestCatalog_Models(t *testing.T) {
	tests := []struct {
		name      string
		models    Models
		wantRoot  string
		agent     string
		wantModel string
	}{
		{name: "default root", models: Models{}, wantRoot: DefaultRootModel, agent: TimeIntelligence, wantModel: DefaultRootModel},
		{name: "configured root", models: Models{Root: "gemini-x"}, wantRoot: "gemini-x", agent: TimeIntelligence, wantModel: "gemini-x"},
		{name: "sub-agent model", models: Models{Root: "gemini-x"}, wantRoot: "gemini-x", agent: LabelOrganizer, wantModel: DefaultSubAgentModel},
		{name: "flat manager follows root", models: Models{Root: "gemini-x"}, wantRoot: "gemini-x", agent: FlatManager, wantModel: "gemini-x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewDefaultRegistry(tt.models)
			root, ok := reg.Get(RootAgent)
			require.True(t, ok)
			assert.Equal(t, tt.wantRoot, root.Model)

			a, ok := reg.Get(tt.agent)
			require.True(t, ok)
			assert.Equal(t, tt.wantModel, a.Model)
		})
	}
}

func TestCatalog_FlatManagerHasEveryTool(t *testing.T) {
	reg := NewDefaultRegistry(Models{})
	m, ok := reg.Get(FlatManager)
	require.True(t, ok)
	assert.ElementsMatch(t, gmail_tools.ToolNames(), m.Tools)
}

func TestCatalog_RootDelegatesToSpecialists(t *testing.T) {
	reg := NewDefaultRegistry(Models{})
	root, _ := reg.Get(RootAgent)
	assert.Len(t, root.SubAgents, 7)
	assert.NotContains(t, root.SubAgents, FlatManager)
}

func TestNewRegistry_Errors(t *testing.T) {
	_, err := NewRegistry(Agent{Name: "a"}, Agent{Name: "a"})
	assert.ErrorContains(t, err, "duplicate agent")

	_, err = NewRegistry(Agent{})
	assert.ErrorContains(t, err, "name is required")
}

func TestRegistry_Validate(t *testing.T) {
	reg, err := NewRegistry(
		Agent{Name: "root", Tools: []string{"list_labels", "send_email"}, SubAgents: []string{"ghost"}},
		Agent{Name: "empty"},
	)
	require.NoError(t, err)

	err = reg.Validate([]string{"list_labels"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `agent root: unknown tool "send_email"`)
	assert.Contains(t, err.Error(), `agent root: unknown sub-agent "ghost"`)
	assert.Contains(t, err.Error(), "agent empty: no tools")
}
