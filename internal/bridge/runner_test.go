package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxagent/internal/agents"
	"github.com/teemow/inboxagent/internal/gmail"
	"github.com/teemow/inboxagent/internal/gmail/gmailtest"
	"github.com/teemow/inboxagent/internal/tools/gmail_tools"
)

var testNow = time.Date(2025, 7, 26, 15, 4, 5, 0, time.UTC)

func newTestRunner(t *testing.T, f gmailtest.Fixture) *RulesRunner {
	t.Helper()
	srv := gmailtest.NewServer(t, f)
	client, err := gmail.NewClient(context.Background(), srv.Client(),
		gmail.WithEndpoint(srv.Endpoint()),
		gmail.WithLocation(time.UTC),
	)
	require.NoError(t, err)

	clock := func() time.Time { return testNow }
	tb := gmail_tools.NewToolbox(client, gmail_tools.WithClock(clock), gmail_tools.WithLocation(time.UTC))
	return NewRulesRunner(tb, agents.NewClassifier(agents.WithClock(clock)), nil)
}

// nextTurn collects events until the turn completes.
func nextTurn(t *testing.T, sess Session) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-sess.Events():
			require.True(t, ok, "session ended mid-turn")
			events = append(events, ev)
			if ev.TurnComplete {
				return events
			}
		case <-timeout:
			t.Fatal("timed out waiting for turn")
		}
	}
}

func TestRulesRunner_TextTurn(t *testing.T) {
	r := newTestRunner(t, gmailtest.Fixture{
		Labels: []*gmailapi.Label{
			gmailtest.Label("INBOX", "INBOX", "system", 10, 2),
			gmailtest.Label("Label_1", "Work", "user", 4, 1),
		},
	})
	ctx := context.Background()

	sess, err := r.Start(ctx, "42", false)
	require.NoError(t, err)
	defer sess.Close()
	assert.NotEmpty(t, sess.ID())

	require.NoError(t, sess.SendText(ctx, "list my labels"))
	events := nextTurn(t, sess)
	require.Len(t, events, 3)

	assert.Equal(t, "[label_organizer] list_labels: Found 2 labels\n", events[0].Text)
	assert.True(t, events[0].Partial)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(events[1].Text), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["count"])

	assert.True(t, events[2].TurnComplete)
}

func TestRulesRunner_ErrorTurn(t *testing.T) {
	r := newTestRunner(t, gmailtest.Fixture{})
	ctx := context.Background()

	sess, err := r.Start(ctx, "42", false)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.SendText(ctx, "emails between 2025-13-45 and 2025-07-01"))
	events := nextTurn(t, sess)
	require.Len(t, events, 3)
	assert.Contains(t, events[0].Text, "[time_intelligence] get_emails_by_date_range: Failed to get emails by date range")
}

func TestRulesRunner_AudioInput(t *testing.T) {
	r := newTestRunner(t, gmailtest.Fixture{})
	ctx := context.Background()

	sess, err := r.Start(ctx, "42", true)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.SendRealtime(ctx, "audio/pcm", []byte{1, 2, 3, 4}))
	events := nextTurn(t, sess)
	require.Len(t, events, 2)
	assert.Contains(t, events[0].Text, "Received 4 bytes of audio/pcm")
}

func TestRulesRunner_Close(t *testing.T) {
	r := newTestRunner(t, gmailtest.Fixture{})
	ctx := context.Background()

	sess, err := r.Start(ctx, "42", false)
	require.NoError(t, err)
	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())

	assert.ErrorIs(t, sess.SendText(ctx, "hi"), ErrSessionClosed)
	select {
	case _, ok := <-sess.Events():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("events not closed")
	}
}

func TestRulesRunner_ContextCancel(t *testing.T) {
	r := newTestRunner(t, gmailtest.Fixture{})
	ctx, cancel := context.WithCancel(context.Background())

	sess, err := r.Start(ctx, "42", false)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-sess.Events():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("events not closed after cancel")
	}
}
