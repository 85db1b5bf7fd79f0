package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/inboxagent/internal/instrumentation"
)

var testNow = time.Date(2025, 7, 26, 15, 4, 5, 0, time.UTC)

func newTestClassifier(opts ...ClassifierOption) *Classifier {
	opts = append([]ClassifierOption{WithClock(func() time.Time { return testNow })}, opts...)
	return NewClassifier(opts...)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text  string
		kind  Kind
		agent string
		tool  string
		args  map[string]any
	}{
		{"What time is it?", KindDateTime, TimeIntelligence, "get_current_datetime", nil},
		{"emails between 2025-07-01 and 2025-07-10", KindDateRange, TimeIntelligence, "get_emails_by_date_range",
			map[string]any{"start_date": "2025-07-01", "end_date": "2025-07-10"}},
		{"anything since 2025-07-01", KindDateRange, TimeIntelligence, "get_emails_by_date_range",
			map[string]any{"start_date": "2025-07-01"}},
		{"show me attachments from last week", KindAttachments, SearchSpecialist, "get_emails_with_attachments",
			map[string]any{"days": 7}},
		{"any files this month", KindAttachments, SearchSpecialist, "get_emails_with_attachments",
			map[string]any{"days": 30}},
		{"what did I get yesterday", KindYesterday, TimeIntelligence, "get_emails_by_date_range",
			map[string]any{"start_date": "2025-07-25", "end_date": "2025-07-26"}},
		{"any emails today?", KindToday, TimeIntelligence, "get_today_emails", nil},
		{"emails from the last 3 days", KindRecent, TimeIntelligence, "get_recent_emails", map[string]any{"days": 3}},
		{"mail from the past 2 weeks", KindRecent, TimeIntelligence, "get_recent_emails", map[string]any{"days": 14}},
		{"recent emails", KindRecent, TimeIntelligence, "get_recent_emails", map[string]any{"days": 1}},
		{"emails in the Work label", KindLabelEmails, LabelOrganizer, "get_emails_by_label",
			map[string]any{"label_name": "Work"}},
		{"messages labeled Receipts", KindLabelEmails, LabelOrganizer, "get_emails_by_label",
			map[string]any{"label_name": "Receipts"}},
		{"emails from alice@example.com", KindSender, SearchSpecialist, "get_emails_from_sender",
			map[string]any{"sender_email": "alice@example.com"}},
		{"messages from Alice", KindSender, SearchSpecialist, "get_emails_from_sender",
			map[string]any{"sender_email": "Alice"}},
		{"emails with subject quarterly report", KindSubject, SearchSpecialist, "get_emails_by_subject",
			map[string]any{"subject_keyword": "quarterly report"}},
		{"show me unread emails", KindUnread, PriorityManager, "get_unread_emails", nil},
		{"anything urgent?", KindImportant, PriorityManager, "get_important_emails", nil},
		{"give me a digest", KindStatistics, DigestGenerator, "get_label_statistics", nil},
		{"list my labels", KindLabels, LabelOrganizer, "list_labels", nil},
		{"is this email safe?", KindSecurity, SecurityMonitor, "get_recent_emails", map[string]any{"days": 7}},
		{"summarize my inbox", KindContent, ContentAnalyzer, "get_important_emails", nil},
		{"find invoices", KindSearch, SearchSpecialist, "search_emails", map[string]any{"query": "invoices"}},
		{"search for emails containing invoice", KindSearch, SearchSpecialist, "search_emails",
			map[string]any{"query": "invoice"}},
		{"emails from alice@example.com in the last 3 days", KindSender, SearchSpecialist, "search_emails",
			map[string]any{"query": "from:alice@example.com after:2025/07/23"}},
		{"unread emails from last week", KindUnread, PriorityManager, "search_emails",
			map[string]any{"query": "is:unread after:2025/07/19"}},
		{"show me the last email from Sarah", KindSender, SearchSpecialist, "get_emails_from_sender",
			map[string]any{"sender_email": "Sarah"}},
		{"emails in the Work label from the past week", KindLabelEmails, SearchSpecialist, "search_emails",
			map[string]any{"query": "label:Work after:2025/07/19"}},
		{"important emails from the last 2 days", KindImportant, PriorityManager, "search_emails",
			map[string]any{"query": "is:important after:2025/07/24"}},
		{"unread messages from bob@example.com yesterday", KindSender, SearchSpecialist, "search_emails",
			map[string]any{"query": "from:bob@example.com is:unread after:2025/07/25 before:2025/07/26"}},
		{"attachments from alice@example.com this week", KindAttachments, SearchSpecialist, "search_emails",
			map[string]any{"query": "from:alice@example.com has:attachment after:2025/07/19"}},
		{"attachments received today", KindAttachments, SearchSpecialist, "search_emails",
			map[string]any{"query": "has:attachment after:2025/07/26 before:2025/07/27"}},
		{"emails about budget from last week", KindSubject, SearchSpecialist, "search_emails",
			map[string]any{"query": "subject:budget after:2025/07/19"}},
		{"messages tagged Receipts from amazon.com", KindLabelEmails, SearchSpecialist, "search_emails",
			map[string]any{"query": "from:amazon.com label:Receipts"}},
		{"emails from my boss", KindFallback, RootAgent, "get_unread_emails", nil},
		{"hello there", KindFallback, RootAgent, "get_unread_emails", nil},
		{"", KindFallback, RootAgent, "get_unread_emails", nil},
	}

	c := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := c.Classify(tt.text)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.agent, got.Agent)
			assert.Equal(t, tt.tool, got.Tool)
			assert.Equal(t, tt.args, got.Args)
		})
	}
}

func TestClassify_RoutesOnlyToDeclaredTools(t *testing.T) {
	reg := NewDefaultRegistry(Models{})
	for _, r := range DefaultRules() {
		a, ok := reg.Get(r.Agent)
		require.True(t, ok, r.Agent)
		assert.Contains(t, a.Tools, r.Tool, "%s routes to %s", r.Kind, r.Agent)

		if r.Compose {
			composed, ok := reg.Get(composedAgent(r.Agent))
			require.True(t, ok)
			assert.Contains(t, composed.Tools, "search_emails", "%s composes on %s", r.Kind, composed.Name)
		}
	}
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		text string
		want filters
	}{
		{"emails from the Work label", filters{label: "Work"}},
		{"from Work label", filters{label: "Work"}},
		{"mail from the team from Carol", filters{sender: "Carol"}},
		{"about the offsite in Berlin", filters{subject: "the offsite"}},
		{"new mail today", filters{unread: true, window: "after:2025/07/26 before:2025/07/27"}},
		{"urgent files past 4 days", filters{important: true, attachments: true, days: 4, window: "after:2025/07/22"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, parseFilters(tt.text, testNow))
		})
	}
}

func TestClassify_CustomRules(t *testing.T) {
	c := newTestClassifier(WithRules(nil))
	assert.Equal(t, KindFallback, c.Classify("find invoices").Kind)
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		text string
		def  int
		want int
	}{
		{"last 5 days", 1, 5},
		{"past 1 day", 7, 1},
		{"last 0 days", 3, 3},
		{"last 2 weeks", 1, 14},
		{"this week", 1, 7},
		{"past month", 1, 30},
		{"whenever", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, daysIn(tt.text, tt.def))
		})
	}
}

func TestRoute_RecordsMetric(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := instrumentation.NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	c := newTestClassifier(WithMetrics(metrics))
	req := c.Route(context.Background(), "list my labels")
	assert.Equal(t, KindLabels, req.Kind)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				kind, _ := dp.Attributes.Value("kind")
				agent, _ := dp.Attributes.Value("agent")
				if kind.AsString() == string(KindLabels) && agent.AsString() == LabelOrganizer {
					found = true
					assert.Equal(t, int64(1), dp.Value)
				}
			}
		}
	}
	assert.True(t, found, "route metric not recorded")
}

func TestRoute_NilMetrics(t *testing.T) {
	c := newTestClassifier()
	assert.NotPanics(t, func() {
		c.Route(context.Background(), "anything urgent")
	})
}
