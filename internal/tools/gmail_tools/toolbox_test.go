package gmail_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxagent/internal/gmail"
)

// testNow is Saturday 2025-07-26 15:04:05 UTC.
var testNow = time.Date(2025, 7, 26, 15, 4, 5, 0, time.UTC)

type fakeMailbox struct {
	emails    map[string]gmail.EmailRecord
	search    map[string][]string
	byLabel   map[string][]string
	labels    []gmail.LabelRecord
	err       error
	labelsErr error

	queries  []string
	labelIDs []string
	limits   []int
}

func (f *fakeMailbox) collect(ids []string, max int) []gmail.EmailRecord {
	out := []gmail.EmailRecord{}
	for _, id := range ids {
		if len(out) == max {
			break
		}
		out = append(out, f.emails[id])
	}
	return out
}

func (f *fakeMailbox) SearchMessages(_ context.Context, query string, max int) ([]gmail.EmailRecord, error) {
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, max)
	if f.err != nil {
		return nil, f.err
	}
	return f.collect(f.search[query], max), nil
}

func (f *fakeMailbox) ListMessagesByLabel(_ context.Context, labelID string, max int) ([]gmail.EmailRecord, error) {
	f.labelIDs = append(f.labelIDs, labelID)
	f.limits = append(f.limits, max)
	if f.err != nil {
		return nil, f.err
	}
	return f.collect(f.byLabel[labelID], max), nil
}

func (f *fakeMailbox) GetMessage(_ context.Context, id string) (gmail.EmailRecord, error) {
	if f.err != nil {
		return gmail.EmailRecord{}, f.err
	}
	e, ok := f.emails[id]
	if !ok {
		return gmail.EmailRecord{}, fmt.Errorf("failed to get message %s: googleapi: Error 404: Requested entity was not found., notFound", id)
	}
	return e, nil
}

func (f *fakeMailbox) ListLabels(context.Context) ([]gmail.LabelRecord, error) {
	if f.labelsErr != nil {
		return nil, f.labelsErr
	}
	return f.labels, nil
}

func (f *fakeMailbox) GetLabel(_ context.Context, id string) (gmail.LabelRecord, error) {
	for _, l := range f.labels {
		if l.ID == id {
			return l, nil
		}
	}
	return gmail.LabelRecord{}, errors.New("failed to get label " + id + ": googleapi: Error 404")
}

func email(id, subject string, labels ...string) gmail.EmailRecord {
	return gmail.EmailRecord{
		ID:          id,
		ThreadID:    "t-" + id,
		Subject:     subject,
		Sender:      gmail.Sender{Name: "Alice", Email: "alice@example.com"},
		Labels:      labels,
		Attachments: []gmail.Attachment{},
	}
}

func label(id, name, typ string, total, unread int64) gmail.LabelRecord {
	return gmail.LabelRecord{ID: id, Name: name, Type: typ, MessagesTotal: total, MessagesUnread: unread}
}

func newTestToolbox(mb Mailbox) *Toolbox {
	return NewToolbox(mb, WithClock(func() time.Time { return testNow }), WithLocation(time.UTC))
}

// decode renders env the way clients see it.
func decode(t *testing.T, env Envelope) map[string]any {
	t.Helper()
	b, err := json.Marshal(env)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}
