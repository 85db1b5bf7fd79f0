package gmail_tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxagent/internal/gmail"
)

func TestSearchEmails(t *testing.T) {
	mb := &fakeMailbox{
		emails: map[string]gmail.EmailRecord{"a": email("a", "Lunch"), "b": email("b", "Build")},
		search: map[string][]string{"from:alice": {"a", "b"}},
	}
	tb := newTestToolbox(mb)

	env := tb.SearchEmails(context.Background(), "from:alice", 0)
	require.True(t, env.OK())
	list := env.Data.(EmailList)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "Found 2 emails", env.Message)
	assert.Equal(t, []int{DefaultSearchResults}, mb.limits)
}

func TestSearchEmails_NoResultsIsSuccess(t *testing.T) {
	tb := newTestToolbox(&fakeMailbox{})

	got := decode(t, tb.SearchEmails(context.Background(), "subject:nothing", 10))
	assert.Equal(t, "success", got["status"])
	assert.Equal(t, []any{}, got["emails"])
	assert.Equal(t, float64(0), got["count"])
	assert.Equal(t, "No emails found", got["message"])
}

func TestSearchEmails_ClampsMaxResults(t *testing.T) {
	mb := &fakeMailbox{}
	tb := newTestToolbox(mb)

	tb.SearchEmails(context.Background(), "is:unread", 500)
	tb.GetUnreadEmails(context.Background(), 51)
	tb.ListMessages(context.Background(), 1000, "")
	assert.Equal(t, []int{50, 50, 50}, mb.limits)
}

func TestSearchEmails_ProviderError(t *testing.T) {
	tb := newTestToolbox(&fakeMailbox{err: errors.New("failed to list messages: googleapi: Error 429: rate limited")})

	got := decode(t, tb.SearchEmails(context.Background(), "is:unread", 10))
	assert.Equal(t, map[string]any{
		"status":        "error",
		"error_message": "Search failed: failed to list messages: googleapi: Error 429: rate limited",
	}, got)
}

func TestGetEmailByID(t *testing.T) {
	tb := newTestToolbox(&fakeMailbox{emails: map[string]gmail.EmailRecord{"a": email("a", "Lunch")}})

	env := tb.GetEmailByID(context.Background(), "a")
	require.True(t, env.OK())
	assert.Equal(t, "Lunch", env.Data.(EmailDetail).Email.Subject)

	env = tb.GetEmailByID(context.Background(), "bad-id")
	assert.Equal(t, StatusError, env.Status)
	assert.Contains(t, env.ErrorMessage, "Failed to get email")
	assert.Nil(t, env.Data)
}

func TestListMessages(t *testing.T) {
	mb := &fakeMailbox{
		emails:  map[string]gmail.EmailRecord{"a": email("a", "Hi", "INBOX")},
		byLabel: map[string][]string{"INBOX": {"a"}},
	}
	tb := newTestToolbox(mb)

	env := tb.ListMessages(context.Background(), 0, "")
	assert.Equal(t, "Found 1 messages in INBOX", env.Message)

	env = tb.ListMessages(context.Background(), 5, "SPAM")
	assert.Equal(t, "No messages found in SPAM", env.Message)
	assert.Equal(t, []string{"INBOX", "SPAM"}, mb.labelIDs)
	assert.Equal(t, []int{DefaultListResults, 5}, mb.limits)

	mb.err = errors.New("boom")
	env = tb.ListMessages(context.Background(), 5, "INBOX")
	assert.Equal(t, "List failed: boom", env.ErrorMessage)
}

func TestGetEmailsByDateRange(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		wantQuery string
		wantErr   bool
	}{
		{name: "defaults to today", wantQuery: "after:2025/07/26 before:2025/07/27"},
		{name: "start only spans one day", start: "2025-01-15", wantQuery: "after:2025/01/15 before:2025/01/16"},
		{name: "explicit range", start: "2025-01-01", end: "2025-02-01", wantQuery: "after:2025/01/01 before:2025/02/01"},
		{name: "end only starts today", end: "2025-08-01", wantQuery: "after:2025/07/26 before:2025/08/01"},
		{name: "invalid start", start: "15/01/2025", wantErr: true},
		{name: "invalid end", start: "2025-01-15", end: "tomorrow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mb := &fakeMailbox{}
			env := newTestToolbox(mb).GetEmailsByDateRange(context.Background(), tt.start, tt.end, 0)

			if tt.wantErr {
				assert.Equal(t, StatusError, env.Status)
				assert.Contains(t, env.ErrorMessage, "Failed to get emails by date range")
				assert.Empty(t, mb.queries)
				return
			}
			require.True(t, env.OK())
			assert.Equal(t, []string{tt.wantQuery}, mb.queries)
			assert.Equal(t, []int{DefaultDateResults}, mb.limits)
		})
	}
}

func TestQueryTemplates(t *testing.T) {
	tests := []struct {
		name      string
		call      func(*Toolbox) Envelope
		wantQuery string
		wantLimit int
	}{
		{"today", func(tb *Toolbox) Envelope { return tb.GetTodayEmails(context.Background(), 0) },
			"after:2025/07/26 before:2025/07/27", DefaultDateResults},
		{"recent default", func(tb *Toolbox) Envelope { return tb.GetRecentEmails(context.Background(), 0, 0) },
			"after:2025/07/25", DefaultDateResults},
		{"recent week", func(tb *Toolbox) Envelope { return tb.GetRecentEmails(context.Background(), 7, 5) },
			"after:2025/07/19", 5},
		{"sender", func(tb *Toolbox) Envelope { return tb.GetEmailsFromSender(context.Background(), "boss@example.com", 0) },
			"from:boss@example.com", DefaultSearchResults},
		{"sender name", func(tb *Toolbox) Envelope { return tb.GetEmailsFromSender(context.Background(), "Jane Doe", 0) },
			"from:(Jane Doe)", DefaultSearchResults},
		{"unread", func(tb *Toolbox) Envelope { return tb.GetUnreadEmails(context.Background(), 0) },
			"is:unread", DefaultUnreadResults},
		{"important", func(tb *Toolbox) Envelope { return tb.GetImportantEmails(context.Background(), 0) },
			"is:important", DefaultImportantResults},
		{"attachments", func(tb *Toolbox) Envelope { return tb.GetEmailsWithAttachments(context.Background(), 0, 0) },
			"has:attachment after:2025/07/19", DefaultAttachmentResults},
		{"subject", func(tb *Toolbox) Envelope { return tb.GetEmailsBySubject(context.Background(), "quarterly report", 3) },
			"subject:(quarterly report)", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mb := &fakeMailbox{}
			env := tt.call(newTestToolbox(mb))
			require.True(t, env.OK(), env.ErrorMessage)
			assert.Equal(t, []string{tt.wantQuery}, mb.queries)
			assert.Equal(t, []int{tt.wantLimit}, mb.limits)
		})
	}
}

func TestGetTodayEmails_Message(t *testing.T) {
	mb := &fakeMailbox{
		emails: map[string]gmail.EmailRecord{"a": email("a", "Hi")},
		search: map[string][]string{"after:2025/07/26 before:2025/07/27": {"a"}},
	}
	env := newTestToolbox(mb).GetTodayEmails(context.Background(), 0)
	assert.Equal(t, "Found 1 emails from today (2025-07-26)", env.Message)

	env = newTestToolbox(&fakeMailbox{}).GetTodayEmails(context.Background(), 0)
	assert.Equal(t, "Found 0 emails from today (2025-07-26)", env.Message)
}

func TestSearchEmailsWithLabels(t *testing.T) {
	mb := &fakeMailbox{
		emails: map[string]gmail.EmailRecord{"a": email("a", "Invoice", "INBOX", "Label_1", "Label_gone")},
		search: map[string][]string{"invoice": {"a"}},
		labels: []gmail.LabelRecord{
			label("INBOX", "INBOX", gmail.LabelTypeSystem, 10, 2),
			label("Label_1", "Finance", gmail.LabelTypeUser, 4, 0),
		},
	}

	got := decode(t, newTestToolbox(mb).SearchEmailsWithLabels(context.Background(), "invoice", 0))
	assert.Equal(t, "success", got["status"])
	assert.Equal(t, map[string]any{"INBOX": "INBOX", "Label_1": "Finance"}, got["label_mapping"])
	emails := got["emails"].([]any)
	require.Len(t, emails, 1)
	assert.Equal(t, []any{"INBOX", "Finance", "Label_gone"}, emails[0].(map[string]any)["label_names"])
	assert.Equal(t, "Found 1 emails", got["message"])
}

func TestSearchEmailsWithLabels_LabelFailureDegrades(t *testing.T) {
	mb := &fakeMailbox{
		emails:    map[string]gmail.EmailRecord{"a": email("a", "Invoice", "INBOX")},
		search:    map[string][]string{"invoice": {"a"}},
		labelsErr: errors.New("labels unavailable"),
	}

	got := decode(t, newTestToolbox(mb).SearchEmailsWithLabels(context.Background(), "invoice", 0))
	assert.Equal(t, "success", got["status"])
	assert.Equal(t, map[string]any{}, got["label_mapping"])
	emails := got["emails"].([]any)
	assert.Equal(t, []any{"INBOX"}, emails[0].(map[string]any)["label_names"])
}

func TestSearchEmailsWithLabels_SearchError(t *testing.T) {
	mb := &fakeMailbox{err: errors.New("boom")}
	env := newTestToolbox(mb).SearchEmailsWithLabels(context.Background(), "invoice", 0)
	assert.Equal(t, "Search failed: boom", env.ErrorMessage)
}

func TestCurrentDatetime(t *testing.T) {
	env := newTestToolbox(&fakeMailbox{}).CurrentDatetime(context.Background())
	require.True(t, env.OK())
	assert.Equal(t, "Current time: 2025-07-26 15:04:05", env.Message)

	dt := env.Data.(DateTimeInfo).CurrentDateTime
	assert.Equal(t, "2025-07-26T15:04:05Z", dt.Timestamp)
	assert.Equal(t, "2025-07-26", dt.Date)
	assert.Equal(t, "15:04:05", dt.Time)
	assert.Equal(t, "Saturday", dt.Weekday)
	assert.Equal(t, "July", dt.MonthName)
	assert.Equal(t, 7, dt.Month)
	assert.Equal(t, "Saturday, July 26, 2025 at 03:04 PM", dt.HumanReadable)
	assert.Equal(t, "2025-07-25", dt.YesterdayDate)
	assert.Equal(t, "2025-07-27", dt.TomorrowDate)
	assert.Equal(t, GmailSearchDates{Today: "2025/07/26", Yesterday: "2025/07/25", Tomorrow: "2025/07/27"}, dt.GmailSearchFormat)
	assert.Equal(t, "UTC", dt.Timezone)
}

func TestNilMailbox(t *testing.T) {
	tb := NewToolbox(nil)

	assert.Contains(t, tb.SearchEmails(context.Background(), "x", 1).ErrorMessage, "gmail client not configured")
	assert.Contains(t, tb.GetEmailByID(context.Background(), "x").ErrorMessage, "Failed to get email")
	assert.Contains(t, tb.ListLabels(context.Background()).ErrorMessage, "Failed to list labels")
	assert.True(t, tb.CurrentDatetime(context.Background()).OK())
}
