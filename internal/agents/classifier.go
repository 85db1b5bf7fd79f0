package agents

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/inboxagent/internal/gmail"
	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/logging"
)

// Kind tags a classified request.
type Kind string

const (
	KindDateTime    Kind = "datetime"
	KindToday       Kind = "today"
	KindYesterday   Kind = "yesterday"
	KindRecent      Kind = "recent"
	KindDateRange   Kind = "date_range"
	KindSender      Kind = "sender"
	KindSubject     Kind = "subject"
	KindUnread      Kind = "unread"
	KindImportant   Kind = "important"
	KindAttachments Kind = "attachments"
	KindLabels      Kind = "labels"
	KindLabelEmails Kind = "label_emails"
	KindStatistics  Kind = "statistics"
	KindSecurity    Kind = "security"
	KindContent     Kind = "content"
	KindSearch      Kind = "search"
	KindFallback    Kind = "fallback"
)

// Request is the routing decision for one user utterance: the agent that
// owns it and the tool call that answers it.
type Request struct {
	Kind  Kind           `json:"kind"`
	Agent string         `json:"agent"`
	Tool  string         `json:"tool"`
	Args  map[string]any `json:"args,omitempty"`
}

func (r Request) String() string {
	return fmt.Sprintf("%s -> %s.%s%v", r.Kind, r.Agent, r.Tool, r.Args)
}

// Rule maps a pattern to a request. Args builds the tool arguments from the
// submatches; returning false rejects the match and the next rule is tried.
// A Compose rule whose request names further constraints is answered with
// one search_emails query carrying all of them.
type Rule struct {
	Kind    Kind
	Agent   string
	Tool    string
	Pattern *regexp.Regexp
	Args    func(m []string, text string, now time.Time) (map[string]any, bool)
	Compose bool
}

var (
	lastNDaysRe  = regexp.MustCompile(`(?i)\b(?:last|past)\s+(\d{1,3})\s+days?\b`)
	lastNWeeksRe = regexp.MustCompile(`(?i)\b(?:last|past)\s+(\d{1,2})\s+weeks?\b`)
	weekRe       = regexp.MustCompile(`(?i)\b(?:this|last|past)\s+week\b`)
	monthRe      = regexp.MustCompile(`(?i)\b(?:this|last|past)\s+month\b`)

	attachmentRe  = regexp.MustCompile(`(?i)\b(attachments?|attached|files?)\b`)
	yesterdayRe   = regexp.MustCompile(`(?i)\byesterday\b`)
	todayRe       = regexp.MustCompile(`(?i)\b(today|this\s+morning|tonight)\b`)
	labelInRe     = regexp.MustCompile(`(?i)\b(?:in|under|from)\s+(?:the\s+|my\s+)?["']?([\w/-]+(?:\s[\w/-]+)?)["']?\s+(?:label|folder)\b`)
	labelTaggedRe = regexp.MustCompile(`(?i)\b(?:labell?ed|tagged)\s+(?:as\s+)?["']?([\w/-]+)`)
	senderRe      = regexp.MustCompile(`(?i)\b(?:from|sent\s+by)\s+([\w.+-]+@[\w-]+(?:\.[\w-]+)+|[\w][\w.&'-]*)`)
	subjectRe     = regexp.MustCompile(`(?i)\b(?:with\s+(?:the\s+)?subject|subject:?|titled|regarding|about)\s+["']?([^"'?!]+)`)
	unreadRe      = regexp.MustCompile(`(?i)\b(unread|unopened|haven'?t\s+read|new\s+(?:e-?mails?|messages?|mail))\b`)
	importantRe   = regexp.MustCompile(`(?i)\b(important|urgent|priority|priorities|needs?\s+attention|triage)\b`)

	// Sender and time phrases that end a subject keyword.
	subjectTailRe = regexp.MustCompile(`(?i)(?:^|\s+)(?:from|sent\s+by|in|during|within|over|since|on|after|before|today|yesterday|tonight|this|last|past)\b.*$`)
)

// daysIn extracts a look-back window in days from text.
func daysIn(text string, def int) int {
	if m := lastNDaysRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	if m := lastNWeeksRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n * 7
		}
	}
	switch {
	case weekRe.MatchString(text):
		return 7
	case monthRe.MatchString(text):
		return 30
	}
	return def
}

// Words that follow "from" without naming a sender.
var senderStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "my": true, "me": true, "this": true,
	"last": true, "past": true, "today": true, "yesterday": true, "anyone": true,
	"everyone": true, "here": true, "there": true,
}

// senderIn returns the first "from X" in text that names a sender.
func senderIn(text string) string {
	for _, m := range senderRe.FindAllStringSubmatch(text, -1) {
		sender := cleanTerm(m[1])
		if sender != "" && !senderStopwords[strings.ToLower(sender)] {
			return sender
		}
	}
	return ""
}

func labelIn(text string) string {
	if m := labelInRe.FindStringSubmatch(text); m != nil {
		return cleanTerm(m[1])
	}
	if m := labelTaggedRe.FindStringSubmatch(text); m != nil {
		return cleanTerm(m[1])
	}
	return ""
}

func subjectIn(text string) string {
	m := subjectRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return cleanTerm(subjectTailRe.ReplaceAllString(cleanTerm(m[1]), ""))
}

// filters are the constraints one request names.
type filters struct {
	sender      string
	label       string
	subject     string
	unread      bool
	important   bool
	attachments bool
	days        int
	window      string
}

func parseFilters(text string, now time.Time) filters {
	f := filters{
		sender:      senderIn(text),
		label:       labelIn(text),
		subject:     subjectIn(text),
		unread:      unreadRe.MatchString(text),
		important:   importantRe.MatchString(text),
		attachments: attachmentRe.MatchString(text),
		days:        daysIn(text, 0),
	}
	// "from the Work label" names a label, not a sender.
	if f.label != "" && strings.EqualFold(f.sender, f.label) {
		f.sender = ""
	}

	switch {
	case f.days > 0:
		f.window = gmail.RecentQuery(f.days, now)
	case yesterdayRe.MatchString(text):
		today := gmail.StartOfDay(now)
		f.window = gmail.DateRange{Start: today.AddDate(0, 0, -1), End: today}.Query()
	case todayRe.MatchString(text):
		f.window = gmail.TodayQuery(now)
	}
	return f
}

// query joins the constraints into one Gmail query. ok is false when a
// single constraint remains, which the matched rule's own tool answers. A
// day count does not count for attachment requests because that tool takes
// it as an argument.
func (f filters) query(kind Kind) (string, bool) {
	var terms []string
	if f.sender != "" {
		terms = append(terms, gmail.SenderQuery(f.sender))
	}
	if f.label != "" {
		terms = append(terms, gmail.LabelQuery(f.label))
	}
	if f.subject != "" {
		terms = append(terms, gmail.SubjectQuery(f.subject))
	}
	if f.unread {
		terms = append(terms, gmail.UnreadQuery)
	}
	if f.important {
		terms = append(terms, gmail.ImportantQuery)
	}
	if f.attachments {
		terms = append(terms, gmail.AttachmentQuery)
	}
	if f.window != "" {
		terms = append(terms, f.window)
	}

	n := len(terms)
	if kind == KindAttachments && f.days > 0 {
		n--
	}
	if n < 2 {
		return "", false
	}
	return strings.Join(terms, " "), true
}

// composedAgent is the agent answering a composed search. The label
// organizer cannot search, so its requests move to the search specialist.
func composedAgent(agent string) string {
	if agent == LabelOrganizer {
		return SearchSpecialist
	}
	return agent
}

func noArgs(_ []string, _ string, _ time.Time) (map[string]any, bool) {
	return nil, true
}

func cleanTerm(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'?!.,`)
}

var searchNoise = regexp.MustCompile(`(?i)^(?:(?:all|my|the|any)\s+)*(?:e-?mails?|messages?|mail)?\s*(?:(?:with|containing|mentioning|that mention)\s+)?`)

func labelArgs(m []string, _ string, _ time.Time) (map[string]any, bool) {
	label := cleanTerm(m[1])
	if label == "" {
		return nil, false
	}
	return map[string]any{"label_name": label}, true
}

// DefaultRules returns the routing table. Order matters: the first match
// wins, so rules naming a concrete constraint come before the bare time
// windows that would otherwise swallow "from last week".
func DefaultRules() []Rule {
	return []Rule{
		{
			Kind:    KindSecurity,
			Agent:   SecurityMonitor,
			Tool:    "get_recent_emails",
			Pattern: regexp.MustCompile(`(?i)\b(suspicious|phishing|scams?|security|malicious|safe)\b`),
			Args: func(_ []string, text string, _ time.Time) (map[string]any, bool) {
				return map[string]any{"days": daysIn(text, 7)}, true
			},
		},
		{
			Kind:    KindDateTime,
			Agent:   TimeIntelligence,
			Tool:    "get_current_datetime",
			Pattern: regexp.MustCompile(`(?i)\b(what\s+(?:time|day|date)\s+is\s+it|current\s+(?:date|time)|today'?s\s+date|what'?s\s+the\s+(?:date|time))\b`),
			Args:    noArgs,
		},
		{
			Kind:    KindDateRange,
			Agent:   TimeIntelligence,
			Tool:    "get_emails_by_date_range",
			Pattern: regexp.MustCompile(`(?i)\b(?:between|from)\s+(\d{4}-\d{2}-\d{2})\s+(?:and|to|until)\s+(\d{4}-\d{2}-\d{2})\b`),
			Args: func(m []string, _ string, _ time.Time) (map[string]any, bool) {
				return map[string]any{"start_date": m[1], "end_date": m[2]}, true
			},
		},
		{
			Kind:    KindDateRange,
			Agent:   TimeIntelligence,
			Tool:    "get_emails_by_date_range",
			Pattern: regexp.MustCompile(`(?i)\b(?:on|since|after)\s+(\d{4}-\d{2}-\d{2})\b`),
			Args: func(m []string, _ string, _ time.Time) (map[string]any, bool) {
				return map[string]any{"start_date": m[1]}, true
			},
		},
		{
			Kind:    KindLabelEmails,
			Agent:   LabelOrganizer,
			Tool:    "get_emails_by_label",
			Pattern: labelInRe,
			Args:    labelArgs,
			Compose: true,
		},
		{
			Kind:    KindLabelEmails,
			Agent:   LabelOrganizer,
			Tool:    "get_emails_by_label",
			Pattern: labelTaggedRe,
			Args:    labelArgs,
			Compose: true,
		},
		{
			Kind:    KindAttachments,
			Agent:   SearchSpecialist,
			Tool:    "get_emails_with_attachments",
			Pattern: attachmentRe,
			Args: func(_ []string, text string, _ time.Time) (map[string]any, bool) {
				return map[string]any{"days": daysIn(text, 7)}, true
			},
			Compose: true,
		},
		{
			Kind:    KindSender,
			Agent:   SearchSpecialist,
			Tool:    "get_emails_from_sender",
			Pattern: senderRe,
			Args: func(_ []string, text string, _ time.Time) (map[string]any, bool) {
				sender := senderIn(text)
				if sender == "" {
					return nil, false
				}
				return map[string]any{"sender_email": sender}, true
			},
			Compose: true,
		},
		{
			Kind:    KindSubject,
			Agent:   SearchSpecialist,
			Tool:    "get_emails_by_subject",
			Pattern: subjectRe,
			Args: func(_ []string, text string, _ time.Time) (map[string]any, bool) {
				keyword := subjectIn(text)
				if keyword == "" {
					return nil, false
				}
				return map[string]any{"subject_keyword": keyword}, true
			},
			Compose: true,
		},
		{
			Kind:    KindUnread,
			Agent:   PriorityManager,
			Tool:    "get_unread_emails",
			Pattern: unreadRe,
			Args:    noArgs,
			Compose: true,
		},
		{
			Kind:    KindImportant,
			Agent:   PriorityManager,
			Tool:    "get_important_emails",
			Pattern: importantRe,
			Args:    noArgs,
			Compose: true,
		},
		{
			Kind:    KindYesterday,
			Agent:   TimeIntelligence,
			Tool:    "get_emails_by_date_range",
			Pattern: yesterdayRe,
			Args: func(_ []string, _ string, now time.Time) (map[string]any, bool) {
				today := gmail.StartOfDay(now)
				return map[string]any{
					"start_date": gmail.ISODate(today.AddDate(0, 0, -1)),
					"end_date":   gmail.ISODate(today),
				}, true
			},
		},
		{
			Kind:    KindToday,
			Agent:   TimeIntelligence,
			Tool:    "get_today_emails",
			Pattern: todayRe,
			Args:    noArgs,
		},
		{
			Kind:    KindRecent,
			Agent:   TimeIntelligence,
			Tool:    "get_recent_emails",
			Pattern: regexp.MustCompile(`(?i)\b(recent(?:ly)?|latest|newest|last|past|this\s+week|this\s+month)\b`),
			Args: func(_ []string, text string, _ time.Time) (map[string]any, bool) {
				return map[string]any{"days": daysIn(text, 1)}, true
			},
		},
		{
			Kind:    KindStatistics,
			Agent:   DigestGenerator,
			Tool:    "get_label_statistics",
			Pattern: regexp.MustCompile(`(?i)\b(digest|report|overview|analytics|statistics|stats|summary)\b`),
			Args:    noArgs,
		},
		{
			Kind:    KindLabels,
			Agent:   LabelOrganizer,
			Tool:    "list_labels",
			Pattern: regexp.MustCompile(`(?i)\b(labels?|folders?|categor(?:y|ies)|organi[sz]e[ds]?)\b`),
			Args:    noArgs,
		},
		{
			Kind:    KindContent,
			Agent:   ContentAnalyzer,
			Tool:    "get_important_emails",
			Pattern: regexp.MustCompile(`(?i)\b(summari[sz]e|action\s+items?|extract|key\s+points)\b`),
			Args:    noArgs,
		},
		{
			Kind:    KindSearch,
			Agent:   SearchSpecialist,
			Tool:    "search_emails",
			Pattern: regexp.MustCompile(`(?i)\b(?:find|search(?:\s+for)?|look\s+(?:for|up)|show\s+me)\s+(.+)`),
			Args: func(m []string, _ string, _ time.Time) (map[string]any, bool) {
				q := cleanTerm(searchNoise.ReplaceAllString(strings.TrimSpace(m[1]), ""))
				if q == "" {
					return nil, false
				}
				return map[string]any{"query": q}, true
			},
		},
	}
}

// Classifier routes free-form requests through an ordered rules table.
type Classifier struct {
	rules   []Rule
	now     func() time.Time
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithRules replaces the default rules table.
func WithRules(rules []Rule) ClassifierOption {
	return func(c *Classifier) { c.rules = rules }
}

// WithClock sets the time source used for relative dates.
func WithClock(now func() time.Time) ClassifierOption {
	return func(c *Classifier) { c.now = now }
}

// WithMetrics records routing decisions.
func WithMetrics(m *instrumentation.Metrics) ClassifierOption {
	return func(c *Classifier) { c.metrics = m }
}

// WithLogger sets the logger for routing decisions.
func WithLogger(l *slog.Logger) ClassifierOption {
	return func(c *Classifier) { c.logger = l }
}

// NewClassifier returns a classifier over DefaultRules.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		rules:  DefaultRules(),
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the first matching rule's request, or the fallback to the
// root agent's unread listing. Compound requests such as "unread emails from
// Alice this week" become a single search query.
func (c *Classifier) Classify(text string) Request {
	text = strings.TrimSpace(text)
	now := c.now()
	for _, r := range c.rules {
		m := r.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		args, ok := r.Args(m, text, now)
		if !ok {
			continue
		}
		if r.Compose {
			if q, ok := parseFilters(text, now).query(r.Kind); ok {
				return Request{
					Kind:  r.Kind,
					Agent: composedAgent(r.Agent),
					Tool:  "search_emails",
					Args:  map[string]any{"query": q},
				}
			}
		}
		return Request{Kind: r.Kind, Agent: r.Agent, Tool: r.Tool, Args: args}
	}
	return Request{Kind: KindFallback, Agent: RootAgent, Tool: "get_unread_emails"}
}

// Route classifies text and records the decision.
func (c *Classifier) Route(ctx context.Context, text string) Request {
	req := c.Classify(text)
	c.metrics.RecordRoute(ctx, string(req.Kind), req.Agent)
	c.logger.DebugContext(ctx, "request routed",
		slog.String("kind", string(req.Kind)),
		logging.Agent(req.Agent),
		logging.Tool(req.Tool),
		logging.Query(text))
	return req
}
