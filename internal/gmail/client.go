package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/logging"
)

const (
	// MaxResultsLimit is the largest page the tools ever request from Gmail.
	MaxResultsLimit = 50

	// DefaultUserID addresses the authenticated user.
	DefaultUserID = "me"

	formatFull = "full"
)

// Client wraps the Gmail Users service.
type Client struct {
	svc     *gmail.UsersService
	userID  string
	loc     *time.Location
	metrics *instrumentation.Metrics
	logger  *slog.Logger
	apiOpts []option.ClientOption
}

// Option configures a Client.
type Option func(*Client)

// WithUserID overrides the Gmail user ID (default "me").
func WithUserID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.userID = id
		}
	}
}

// WithLocation sets the zone used to render message dates.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithMetrics records every Gmail call on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEndpoint points the client at a different API root, used against
// fake Gmail servers in tests.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.apiOpts = append(c.apiOpts, option.WithEndpoint(url))
	}
}

func newClient(opts ...Option) *Client {
	c := &Client{
		userID:  DefaultUserID,
		loc:     time.Local,
		metrics: &instrumentation.Metrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.WithService(c.logger, "gmail")
	if c.userID != DefaultUserID {
		c.logger = c.logger.With(logging.UserHash(c.userID))
	}
	return c
}

// NewClient creates a client that authenticates every request through
// httpClient, normally the OAuth client built by the google package.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...Option) (*Client, error) {
	c := newClient(opts...)
	apiOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.apiOpts...)
	svc, err := gmail.NewService(ctx, apiOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	c.svc = svc.Users
	return c, nil
}

// NewClientFromService wraps an existing Gmail service.
func NewClientFromService(svc *gmail.Service, opts ...Option) *Client {
	c := newClient(opts...)
	c.svc = svc.Users
	return c
}

// Location returns the zone used for message dates.
func (c *Client) Location() *time.Location {
	return c.loc
}

// ClampMaxResults maps a requested page size onto 1..MaxResultsLimit,
// substituting def for non-positive requests.
func ClampMaxResults(n, def int) int {
	if n <= 0 {
		n = def
	}
	if n > MaxResultsLimit {
		return MaxResultsLimit
	}
	if n <= 0 {
		return 1
	}
	return n
}

// IsNotFound reports whether err is a Gmail 404.
func IsNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

// observe runs one Gmail call inside a span and records its outcome.
func (c *Client) observe(ctx context.Context, op string, call func(context.Context) error) error {
	ctx, span := instrumentation.StartGmailSpan(ctx, op)
	defer span.End()

	start := time.Now()
	err := call(ctx)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		if IsNotFound(err) {
			status = instrumentation.StatusNotFound
		}
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGmailCall(ctx, op, status, time.Since(start))
	c.logger.Debug("gmail call",
		logging.Operation(op),
		logging.Status(status),
		slog.Duration(logging.KeyDuration, time.Since(start)),
		logging.Err(err))
	return err
}

// SearchMessages lists up to max messages matching query and fetches
// each of them in full.
func (c *Client) SearchMessages(ctx context.Context, query string, max int) ([]EmailRecord, error) {
	var resp *gmail.ListMessagesResponse
	err := c.observe(ctx, instrumentation.OperationMessagesList, func(ctx context.Context) error {
		var err error
		resp, err = c.svc.Messages.List(c.userID).
			Q(query).
			MaxResults(int64(ClampMaxResults(max, MaxResultsLimit))).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return c.fetchAll(ctx, resp.Messages)
}

// ListMessagesByLabel lists up to max messages carrying labelID and
// fetches each of them in full.
func (c *Client) ListMessagesByLabel(ctx context.Context, labelID string, max int) ([]EmailRecord, error) {
	var resp *gmail.ListMessagesResponse
	err := c.observe(ctx, instrumentation.OperationMessagesList, func(ctx context.Context) error {
		var err error
		resp, err = c.svc.Messages.List(c.userID).
			LabelIds(labelID).
			MaxResults(int64(ClampMaxResults(max, MaxResultsLimit))).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages in %s: %w", labelID, err)
	}
	return c.fetchAll(ctx, resp.Messages)
}

func (c *Client) fetchAll(ctx context.Context, refs []*gmail.Message) ([]EmailRecord, error) {
	emails := make([]EmailRecord, 0, len(refs))
	for _, ref := range refs {
		if ref == nil {
			continue
		}
		email, err := c.GetMessage(ctx, ref.Id)
		if err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, nil
}

// GetMessage fetches a single message in full.
func (c *Client) GetMessage(ctx context.Context, id string) (EmailRecord, error) {
	var msg *gmail.Message
	err := c.observe(ctx, instrumentation.OperationMessagesGet, func(ctx context.Context) error {
		var err error
		msg, err = c.svc.Messages.Get(c.userID, id).Format(formatFull).Context(ctx).Do()
		return err
	})
	if err != nil {
		return EmailRecord{}, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return ExtractEmail(msg, c.loc), nil
}

// ListLabels returns every label in the mailbox.
func (c *Client) ListLabels(ctx context.Context) ([]LabelRecord, error) {
	var resp *gmail.ListLabelsResponse
	err := c.observe(ctx, instrumentation.OperationLabelsList, func(ctx context.Context) error {
		var err error
		resp, err = c.svc.Labels.List(c.userID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	labels := make([]LabelRecord, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		if l == nil {
			continue
		}
		labels = append(labels, NewLabelRecord(l))
	}
	return labels, nil
}

// GetLabel fetches one label including its counts and color.
func (c *Client) GetLabel(ctx context.Context, id string) (LabelRecord, error) {
	var label *gmail.Label
	err := c.observe(ctx, instrumentation.OperationLabelsGet, func(ctx context.Context) error {
		var err error
		label, err = c.svc.Labels.Get(c.userID, id).Context(ctx).Do()
		return err
	})
	if err != nil {
		return LabelRecord{}, fmt.Errorf("failed to get label %s: %w", id, err)
	}
	return NewLabelRecord(label), nil
}
