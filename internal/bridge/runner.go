package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxagent/internal/agents"
	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/logging"
	"github.com/teemow/inboxagent/internal/tools/common"
	"github.com/teemow/inboxagent/internal/tools/gmail_tools"
)

// ErrSessionClosed is returned when sending to a closed session.
var ErrSessionClosed = errors.New("session closed")

// Session is a live conversation. Events is closed when the session ends.
type Session interface {
	ID() string
	Events() <-chan Event
	SendText(ctx context.Context, text string) error
	SendRealtime(ctx context.Context, mimeType string, data []byte) error
	Close() error
}

// Runner starts live sessions.
type Runner interface {
	Start(ctx context.Context, clientID string, audio bool) (Session, error)
}

const sessionBuffer = 16

// RulesRunner answers each text turn by routing it through the agents
// classifier and running the selected Gmail operation. It stands in for a
// model-backed runner and has no speech support.
type RulesRunner struct {
	toolbox    *gmail_tools.Toolbox
	classifier *agents.Classifier
	logger     *slog.Logger
}

// NewRulesRunner returns a runner over tb. A nil logger discards output.
func NewRulesRunner(tb *gmail_tools.Toolbox, cl *agents.Classifier, logger *slog.Logger) *RulesRunner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RulesRunner{toolbox: tb, classifier: cl, logger: logger}
}

type input struct {
	mimeType string
	text     string
	data     []byte
}

type rulesSession struct {
	id       string
	clientID string
	runner   *RulesRunner
	audio    bool
	events   chan Event
	inbox    chan input
	done     chan struct{}
	once     sync.Once
	logger   *slog.Logger
}

// Start begins a session that lives until Close is called or ctx ends.
func (r *RulesRunner) Start(ctx context.Context, clientID string, audio bool) (Session, error) {
	s := &rulesSession{
		id:       uuid.NewString(),
		clientID: clientID,
		runner:   r,
		audio:    audio,
		events:   make(chan Event, sessionBuffer),
		inbox:    make(chan input, sessionBuffer),
		done:     make(chan struct{}),
	}
	s.logger = r.logger.With(logging.ClientID(clientID), slog.String("session_id", s.id))
	go s.loop(ctx)
	return s, nil
}

func (s *rulesSession) ID() string { return s.id }

func (s *rulesSession) Events() <-chan Event { return s.events }

func (s *rulesSession) SendText(ctx context.Context, text string) error {
	return s.send(ctx, input{mimeType: instrumentation.MimeTextPlain, text: text})
}

func (s *rulesSession) SendRealtime(ctx context.Context, mimeType string, data []byte) error {
	return s.send(ctx, input{mimeType: mimeType, data: data})
}

func (s *rulesSession) send(ctx context.Context, in input) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.inbox <- in:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *rulesSession) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *rulesSession) loop(ctx context.Context) {
	defer close(s.events)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case in := <-s.inbox:
			if !s.handle(ctx, in) {
				return
			}
		}
	}
}

// handle answers one input. It returns false once the session is gone.
func (s *rulesSession) handle(ctx context.Context, in input) bool {
	if in.mimeType != instrumentation.MimeTextPlain {
		notice := fmt.Sprintf("Received %d bytes of %s. Speech input is not available, please type your request.", len(in.data), in.mimeType)
		return s.emit(ctx, TextEvent(notice)) && s.emit(ctx, TurnComplete())
	}

	ctx, span := instrumentation.StartSpan(ctx, "bridge.turn",
		attribute.String(instrumentation.SpanAttrClientID, s.clientID))
	defer span.End()

	req := s.runner.classifier.Route(ctx, in.text)
	span.SetAttributes(attribute.String(instrumentation.SpanAttrAgent, req.Agent))
	s.logger.DebugContext(ctx, "running turn", logging.Agent(req.Agent), logging.Tool(req.Tool),
		slog.String("trace_id", instrumentation.GetTraceID(ctx)))

	env := s.runner.toolbox.Call(common.WithAgent(ctx, req.Agent), instrumentation.SourceBridge, req.Tool, gmail_tools.Args(req.Args))

	if !s.emit(ctx, TextEvent(summarize(req, env))) {
		return false
	}
	body, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode result", logging.Err(err))
	} else if !s.emit(ctx, TextEvent(string(body))) {
		return false
	}
	return s.emit(ctx, TurnComplete())
}

func (s *rulesSession) emit(ctx context.Context, ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func summarize(req agents.Request, env gmail_tools.Envelope) string {
	text := env.Message
	if env.Status == gmail_tools.StatusError {
		text = env.ErrorMessage
	}
	return fmt.Sprintf("[%s] %s: %s\n", req.Agent, req.Tool, text)
}
