package agents

import (
	"embed"
	"errors"
	"fmt"
	"strings"
)

// Agent names.
const (
	RootAgent        = "gmail_manager"
	TimeIntelligence = "time_intelligence"
	ContentAnalyzer  = "content_analyzer"
	SearchSpecialist = "search_specialist"
	LabelOrganizer   = "label_organizer"
	PriorityManager  = "priority_manager"
	DigestGenerator  = "digest_generator"
	SecurityMonitor  = "security_monitor"
	FlatManager      = "manager"
)

const (
	// DefaultRootModel is used when no root model is configured.
	DefaultRootModel = "gemini-2.0-flash-exp"

	// DefaultSubAgentModel is the model of every specialised sub-agent.
	DefaultSubAgentModel = "gemini-2.5-flash"
)

//go:embed instructions/*.md
var instructionFS embed.FS

// Agent is a static agent declaration. Nothing in this package calls a model;
// the declarations are served to MCP hosts as prompts and drive routing.
type Agent struct {
	Name        string   `json:"name"`
	Model       string   `json:"model"`
	Description string   `json:"description"`
	Instruction string   `json:"instruction"`
	Tools       []string `json:"tools"`
	SubAgents   []string `json:"sub_agents,omitempty"`
}

// Models selects the model identifiers of the catalog.
type Models struct {
	Root string
}

func (m Models) root() string {
	if m.Root == "" {
		return DefaultRootModel
	}
	return m.Root
}

func instruction(name string) string {
	b, err := instructionFS.ReadFile("instructions/" + name + ".md")
	if err != nil {
		panic(fmt.Sprintf("agents: missing instruction for %s", name))
	}
	return strings.TrimSpace(string(b))
}

// Catalog returns the root agent, its seven sub-agents and the flat manager.
func Catalog(models Models) []Agent {
	root := models.root()
	return []Agent{
		{
			Name:        RootAgent,
			Model:       root,
			Description: "Gmail management coordinator that delegates to specialised sub-agents",
			Instruction: instruction(RootAgent),
			Tools: []string{
				"get_current_datetime",
				"list_messages",
				"get_unread_emails",
				"get_important_emails",
			},
			SubAgents: []string{
				TimeIntelligence,
				ContentAnalyzer,
				SearchSpecialist,
				LabelOrganizer,
				PriorityManager,
				DigestGenerator,
				SecurityMonitor,
			},
		},
		{
			Name:        TimeIntelligence,
			Model:       root,
			Description: "Time-aware email queries and date calculations",
			Instruction: instruction(TimeIntelligence),
			Tools: []string{
				"get_current_datetime",
				"get_today_emails",
				"get_emails_by_date_range",
				"get_recent_emails",
				"search_emails",
				"get_emails_with_attachments",
			},
		},
		{
			Name:        ContentAnalyzer,
			Model:       DefaultSubAgentModel,
			Description: "Email content analysis, summarisation and extraction",
			Instruction: instruction(ContentAnalyzer),
			Tools: []string{
				"get_email_by_id",
				"search_emails",
				"get_emails_from_sender",
				"get_important_emails",
				"get_emails_with_attachments",
			},
		},
		{
			Name:        SearchSpecialist,
			Model:       DefaultSubAgentModel,
			Description: "Search and filtering with sender resolution",
			Instruction: instruction(SearchSpecialist),
			Tools: []string{
				"search_emails",
				"search_emails_with_labels",
				"get_emails_from_sender",
				"get_emails_by_subject",
				"get_emails_with_attachments",
				"get_unread_emails",
				"get_important_emails",
			},
		},
		{
			Name:        LabelOrganizer,
			Model:       DefaultSubAgentModel,
			Description: "Labels, categorisation and mailbox structure",
			Instruction: instruction(LabelOrganizer),
			Tools: []string{
				"list_labels",
				"get_label_details",
				"find_label_by_name",
				"get_system_labels",
				"get_user_labels",
				"get_labels_with_unread_count",
				"get_emails_by_label",
				"get_label_statistics",
			},
		},
		{
			Name:        PriorityManager,
			Model:       DefaultSubAgentModel,
			Description: "Priority assessment and triage",
			Instruction: instruction(PriorityManager),
			Tools: []string{
				"get_unread_emails",
				"get_important_emails",
				"get_recent_emails",
				"search_emails",
				"get_emails_from_sender",
				"list_messages",
			},
		},
		{
			Name:        DigestGenerator,
			Model:       DefaultSubAgentModel,
			Description: "Periodic digests, reports and mailbox insights",
			Instruction: instruction(DigestGenerator),
			Tools: []string{
				"get_current_datetime",
				"get_today_emails",
				"get_recent_emails",
				"get_unread_emails",
				"get_important_emails",
				"list_messages",
				"get_label_statistics",
				"search_emails",
			},
		},
		{
			Name:        SecurityMonitor,
			Model:       DefaultSubAgentModel,
			Description: "Security monitoring and phishing detection",
			Instruction: instruction(SecurityMonitor),
			Tools: []string{
				"get_recent_emails",
				"search_emails",
				"get_unread_emails",
				"get_emails_with_attachments",
				"get_emails_from_sender",
			},
		},
		{
			Name:        FlatManager,
			Model:       root,
			Description: "Single agent with every read-only Gmail operation",
			Instruction: instruction(FlatManager),
			Tools: []string{
				"get_current_datetime",
				"search_emails",
				"get_email_by_id",
				"list_messages",
				"get_emails_by_date_range",
				"get_today_emails",
				"get_recent_emails",
				"get_emails_from_sender",
				"get_unread_emails",
				"get_important_emails",
				"get_emails_with_attachments",
				"get_emails_by_subject",
				"list_labels",
				"get_label_details",
				"find_label_by_name",
				"get_system_labels",
				"get_user_labels",
				"get_labels_with_unread_count",
				"get_emails_by_label",
				"search_emails_with_labels",
				"get_label_statistics",
			},
		},
	}
}

// Registry indexes agents by name and keeps catalog order.
type Registry struct {
	agents map[string]Agent
	order  []string
}

// NewRegistry builds a registry. Names must be unique and non-empty.
func NewRegistry(agents ...Agent) (*Registry, error) {
	r := &Registry{agents: make(map[string]Agent, len(agents))}
	for _, a := range agents {
		if a.Name == "" {
			return nil, errors.New("agent name is required")
		}
		if _, dup := r.agents[a.Name]; dup {
			return nil, fmt.Errorf("duplicate agent %q", a.Name)
		}
		r.agents[a.Name] = a
		r.order = append(r.order, a.Name)
	}
	return r, nil
}

// NewDefaultRegistry returns a registry over Catalog(models).
func NewDefaultRegistry(models Models) *Registry {
	r, err := NewRegistry(Catalog(models)...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the named agent.
func (r *Registry) Get(name string) (Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// All returns the agents in registration order.
func (r *Registry) All() []Agent {
	out := make([]Agent, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.agents[name])
	}
	return out
}

// Validate checks that every referenced tool is in toolNames and every
// sub-agent is registered.
func (r *Registry) Validate(toolNames []string) error {
	known := make(map[string]bool, len(toolNames))
	for _, n := range toolNames {
		known[n] = true
	}

	var errs []error
	for _, a := range r.All() {
		if len(a.Tools) == 0 {
			errs = append(errs, fmt.Errorf("agent %s: no tools", a.Name))
		}
		for _, t := range a.Tools {
			if !known[t] {
				errs = append(errs, fmt.Errorf("agent %s: unknown tool %q", a.Name, t))
			}
		}
		for _, sub := range a.SubAgents {
			if _, ok := r.agents[sub]; !ok {
				errs = append(errs, fmt.Errorf("agent %s: unknown sub-agent %q", a.Name, sub))
			}
		}
	}
	return errors.Join(errs...)
}
