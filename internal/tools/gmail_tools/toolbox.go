package gmail_tools

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teemow/inboxagent/internal/gmail"
	"github.com/teemow/inboxagent/internal/server"
)

// ErrNoMailbox is reported when no Gmail client has been configured.
var ErrNoMailbox = errors.New("gmail client not configured, run the auth command first")

// Mailbox is the read-only Gmail surface the operations need.
// *gmail.Client implements it.
type Mailbox interface {
	SearchMessages(ctx context.Context, query string, max int) ([]gmail.EmailRecord, error)
	ListMessagesByLabel(ctx context.Context, labelID string, max int) ([]gmail.EmailRecord, error)
	GetMessage(ctx context.Context, id string) (gmail.EmailRecord, error)
	ListLabels(ctx context.Context) ([]gmail.LabelRecord, error)
	GetLabel(ctx context.Context, id string) (gmail.LabelRecord, error)
}

// Toolbox implements the Gmail operations on top of a Mailbox. Every
// operation returns an Envelope; errors never cross this boundary.
type Toolbox struct {
	mailbox Mailbox
	now     func() time.Time
	loc     *time.Location
	sc      *server.ServerContext
	logger  *slog.Logger
}

// ToolboxOption configures a Toolbox.
type ToolboxOption func(*Toolbox)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ToolboxOption {
	return func(tb *Toolbox) { tb.now = now }
}

// WithLocation sets the time zone "today" is computed in.
func WithLocation(loc *time.Location) ToolboxOption {
	return func(tb *Toolbox) {
		if loc != nil {
			tb.loc = loc
		}
	}
}

// WithServerContext records invocations through the metrics and audit
// logger of sc.
func WithServerContext(sc *server.ServerContext) ToolboxOption {
	return func(tb *Toolbox) { tb.sc = sc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ToolboxOption {
	return func(tb *Toolbox) {
		if l != nil {
			tb.logger = l
		}
	}
}

// NewToolbox creates a Toolbox. A nil mailbox is allowed; every Gmail
// operation then answers with an error envelope.
func NewToolbox(mailbox Mailbox, opts ...ToolboxOption) *Toolbox {
	tb := &Toolbox{
		mailbox: mailbox,
		now:     time.Now,
		loc:     time.Local,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(tb)
	}
	return tb
}

// NewToolboxFromContext creates a Toolbox backed by the Gmail client,
// location and instrumentation of sc.
func NewToolboxFromContext(sc *server.ServerContext, opts ...ToolboxOption) *Toolbox {
	var mailbox Mailbox
	if c := sc.GmailClient(); c != nil {
		mailbox = c
	}
	base := []ToolboxOption{
		WithLocation(sc.Location()),
		WithServerContext(sc),
		WithLogger(sc.Logger()),
	}
	return NewToolbox(mailbox, append(base, opts...)...)
}

// Now returns the current time in the toolbox location.
func (tb *Toolbox) Now() time.Time {
	return tb.now().In(tb.loc)
}

func (tb *Toolbox) box() (Mailbox, error) {
	if tb.mailbox == nil {
		return nil, ErrNoMailbox
	}
	return tb.mailbox, nil
}
