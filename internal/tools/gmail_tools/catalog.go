package gmail_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/teemow/inboxagent/internal/tools/common"
)

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	ParamString ParamType = "string"
	ParamNumber ParamType = "number"
)

// Param describes one tool argument.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// Tool is one entry of the operation catalog. The catalog drives MCP
// registration, the CLI and the realtime bridge runner.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Invoke      func(ctx context.Context, tb *Toolbox, args Args) Envelope
}

// Args holds tool arguments as decoded from JSON, or as strings from the
// command line.
type Args map[string]any

// String returns the named argument as a string, or "".
func (a Args) String(name string) string {
	switch v := a[name].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the named argument as an int, or def when it is absent.
func (a Args) Int(name string, def int) (int, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		// float64(math.MaxInt) rounds up to 2^63, which int cannot hold.
		if n != math.Trunc(n) || n < math.MinInt || n >= math.MaxInt {
			return 0, fmt.Errorf("argument %q must be an integer, got %v", name, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("argument %q must be an integer: %w", name, err)
		}
		return int(i), nil
	case string:
		if strings.TrimSpace(n) == "" {
			return def, nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("argument %q must be an integer, got %q", name, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer, got %T", name, v)
	}
}

// intArg is Int for arguments already checked by validate.
func (a Args) intArg(name string, def int) int {
	n, _ := a.Int(name, def)
	return n
}

// validate checks required arguments and numeric types.
func (t Tool) validate(args Args) error {
	for _, p := range t.Params {
		switch p.Type {
		case ParamNumber:
			if _, err := args.Int(p.Name, 0); err != nil {
				return err
			}
			if p.Required {
				if _, ok := args[p.Name]; !ok {
					return fmt.Errorf("missing required argument %q", p.Name)
				}
			}
		default:
			if p.Required && strings.TrimSpace(args.String(p.Name)) == "" {
				return fmt.Errorf("missing required argument %q", p.Name)
			}
		}
	}
	return nil
}

func maxResultsParam(def int) Param {
	return Param{
		Name:        "max_results",
		Type:        ParamNumber,
		Description: fmt.Sprintf("Maximum number of results (default: %d, max: 50)", def),
	}
}

func daysParam(def int) Param {
	return Param{
		Name:        "days",
		Type:        ParamNumber,
		Description: fmt.Sprintf("Number of days to look back (default: %d)", def),
	}
}

var catalog = []Tool{
	{
		Name:        "get_current_datetime",
		Description: "Get the current date and time, including Gmail search date tokens for today, yesterday and tomorrow",
		Invoke: func(ctx context.Context, tb *Toolbox, _ Args) Envelope {
			return tb.CurrentDatetime(ctx)
		},
	},
	{
		Name:        "search_emails",
		Description: "Search emails using Gmail search syntax (e.g. 'from:boss@company.com', 'subject:meeting', 'has:attachment')",
		Params: []Param{
			{Name: "query", Type: ParamString, Description: "Gmail search query", Required: true},
			maxResultsParam(DefaultSearchResults),
		},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.SearchEmails(ctx, a.String("query"), a.intArg("max_results", DefaultSearchResults))
		},
	},
	{
		Name:        "get_email_by_id",
		Description: "Get a specific email by its Gmail message ID",
		Params: []Param{
			{Name: "message_id", Type: ParamString, Description: "Gmail message ID", Required: true},
		},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.GetEmailByID(ctx, a.String("message_id"))
		},
	},
	{
		Name:        "list_messages",
		Description: "List messages from a label such as INBOX, SENT, DRAFT, SPAM, TRASH, UNREAD or IMPORTANT",
		Params: []Param{
			maxResultsParam(DefaultListResults),
			{Name: "label", Type: ParamString, Description: "Label ID to filter by (default: INBOX)"},
		},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.ListMessages(ctx, a.intArg("max_results", DefaultListResults), a.String("label"))
		},
	},
	{
		Name:        "get_emails_by_date_range",
		Description: "Get emails received between two dates. The start defaults to today and the end to the day after the start",
		Params: []Param{
			{Name: "start_date", Type: ParamString, Description: "Start date in YYYY-MM-DD format (default: today)"},
			{Name: "end_date", Type: ParamString, Description: "End date in YYYY-MM-DD format, exclusive (default: start date plus one day)"},
			maxResultsParam(DefaultDateResults),
		},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.GetEmailsByDateRange(ctx, a.String("start_date"), a.String("end_date"),
				a.intArg("max_results", DefaultDateResults))
		},
	},
	{
		Name:        "get_today_emails",
		Description: "Get emails received today",
		Params:      []Param{maxResultsParam(DefaultDateResults)},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.GetTodayEmails(ctx, a.intArg("max_results", DefaultDateResults))
		},
	},
	{
		Name:        "get_recent_emails",
		Description: "Get emails received in the last N days",
		Params:      []Param{daysParam(DefaultRecentDays), maxResultsParam(DefaultDateResults)},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.GetRecentEmails(ctx, a.intArg("days", DefaultRecentDays), a.intArg("max_results", DefaultDateResults))
		},
	},
	{
		Name:        "get_emails_from_sender",
		Description: "Get emails from a sender, given as an address, a name or a domain. A multi-word name is searched as a group, as in from:(Alice Smith)",
		Params: []Param{
			{Name: "sender_email", Type: ParamString, Description: "Sender address, name or domain", Required: true},
			maxResultsParam(DefaultSearchResults),
		},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.GetEmailsFromSender(ctx, a.String("sender_email"), a.intArg("max_results", DefaultSearchResults))
		},
	},
	{
		Name:        "get_unread_emails",
		Description: "Get unread emails",
		Params:      []Param{maxResultsParam(DefaultUnreadResults)},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.GetUnreadEmails(ctx, a.intArg("max_results", DefaultUnreadResults))
		},
	},
	{
		Name:        "get_important_emails",
		Description: "Get emails Gmail marked as important",
		Params:      []Param{maxResultsParam(DefaultImportantResults)},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.GetImportantEmails(ctx, a.intArg("max_results", DefaultImportantResults))
		},
	},
	{
		Name:        "get_emails_with_attachments",
		Description: "Get emails with attachments from the last N days",
		Params:      []Param{daysParam(DefaultAttachmentDays), maxResultsParam(DefaultAttachmentResults)},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.GetEmailsWithAttachments(ctx, a.intArg("days", DefaultAttachmentDays),
				a.intArg("max_results", DefaultAttachmentResults))
		},
	},
	{
		Name:        "get_emails_by_subject",
		Description: "Get emails whose subject contains a keyword. Multiple words are searched as a group, as in subject:(quarterly report), and match in any order",
		Params: []Param{
			{Name: "subject_keyword", Type: ParamString, Description: "Keyword to search in the subject line", Required: true},
			maxResultsParam(DefaultSearchResults),
		},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.GetEmailsBySubject(ctx, a.String("subject_keyword"), a.intArg("max_results", DefaultSearchResults))
		},
	},
	{
		Name:        "list_labels",
		Description: "List all labels in the mailbox with message and thread counts",
		Invoke: func(ctx context.Context, tb *Toolbox, _ Args) Envelope {
			return tb.ListLabels(ctx)
		},
	},
	{
		Name:        "get_label_details",
		Description: "Get details of a label by its ID, including its color",
		Params: []Param{
			{Name: "label_id", Type: ParamString, Description: "Label ID", Required: true},
		},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.GetLabelDetails(ctx, a.String("label_id"))
		},
	},
	{
		Name:        "find_label_by_name",
		Description: "Find a label by its name, ignoring case",
		Params: []Param{
			{Name: "label_name", Type: ParamString, Description: "Label name", Required: true},
		},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.FindLabelByName(ctx, a.String("label_name"))
		},
	},
	{
		Name:        "get_system_labels",
		Description: "Get Gmail's system labels (INBOX, SENT, DRAFT, ...)",
		Invoke: func(ctx context.Context, tb *Toolbox, _ Args) Envelope {
			return tb.GetSystemLabels(ctx)
		},
	},
	{
		Name:        "get_user_labels",
		Description: "Get user-created labels",
		Invoke: func(ctx context.Context, tb *Toolbox, _ Args) Envelope {
			return tb.GetUserLabels(ctx)
		},
	},
	{
		Name:        "get_labels_with_unread_count",
		Description: "Get labels that have unread messages, sorted by unread count",
		Invoke: func(ctx context.Context, tb *Toolbox, _ Args) Envelope {
			return tb.GetLabelsWithUnreadCount(ctx)
		},
	},
	{
		Name:        "get_label_statistics",
		Description: "Get aggregate statistics over all labels",
		Invoke: func(ctx context.Context, tb *Toolbox, _ Args) Envelope {
			return tb.GetLabelStatistics(ctx)
		},
	},
	{
		Name:        "get_emails_by_label",
		Description: "Get emails under a label given by name; unknown names are used as label IDs",
		Params: []Param{
			{Name: "label_name", Type: ParamString, Description: "Label name or ID (e.g. INBOX, Work)", Required: true},
			maxResultsParam(DefaultLabelResults),
		},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.GetEmailsByLabel(ctx, a.String("label_name"), a.intArg("max_results", DefaultLabelResults))
		},
	},
	{
		Name:        "search_emails_with_labels",
		Description: "Search emails and include human-readable label names in the results",
		Params: []Param{
			{Name: "query", Type: ParamString, Description: "Gmail search query", Required: true},
			maxResultsParam(DefaultSearchResults),
		},
		Invoke: func(ctx context.Context, tb *Toolbox, a Args) Envelope {
			return tb.SearchEmailsWithLabels(ctx, a.String("query"), a.intArg("max_results", DefaultSearchResults))
		},
	},
}

// Tools returns the operation catalog in declaration order.
func Tools() []Tool {
	out := make([]Tool, len(catalog))
	copy(out, catalog)
	return out
}

// ToolNames returns the names of every catalog tool.
func ToolNames() []string {
	names := make([]string, len(catalog))
	for i, t := range catalog {
		names[i] = t.Name
	}
	return names
}

// Lookup finds a tool by name.
func Lookup(name string) (Tool, bool) {
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Call invokes the named tool and records the invocation. source is one
// of the instrumentation Source values.
func (tb *Toolbox) Call(ctx context.Context, source, name string, args Args) Envelope {
	tool, ok := Lookup(name)
	if !ok {
		return Errorf("Unknown tool: %s", name)
	}
	if args == nil {
		args = Args{}
	}

	var env Envelope
	common.InstrumentedCall(ctx, tb.sc, name, source, args, func(ctx context.Context) common.Outcome {
		if err := tool.validate(args); err != nil {
			env = Errorf("Invalid arguments for %s: %v", name, err)
		} else {
			env = tool.Invoke(ctx, tb, args)
		}
		return common.Outcome{Status: env.Status, Error: env.ErrorMessage}
	})
	return env
}
