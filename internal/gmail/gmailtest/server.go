// Package gmailtest serves a fake Gmail REST API for tests.
package gmailtest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	gmailapi "google.golang.org/api/gmail/v1"
)

// Operation names accepted in Fixture.Errors.
const (
	OpMessagesList = "messages.list"
	OpMessagesGet  = "messages.get"
	OpLabelsList   = "labels.list"
	OpLabelsGet    = "labels.get"
)

// Fixture is the mailbox served by a Server.
type Fixture struct {
	// Messages by ID, returned in full by messages.get.
	Messages map[string]*gmailapi.Message
	// Order fixes the order of list results. Defaults to no results
	// unless a Search entry or label filter matches.
	Order []string
	// Search maps an exact q parameter to message IDs.
	Search map[string][]string
	// Labels are returned by labels.list and labels.get.
	Labels []*gmailapi.Label
	// Errors forces an HTTP status for an operation.
	Errors map[string]int
}

// Server is a running fake Gmail API.
type Server struct {
	*httptest.Server

	fixture Fixture

	mu       sync.Mutex
	queries  []string
	labelIDs []string
	calls    map[string]int
}

// NewServer starts a fake Gmail API for f and closes it when t ends.
func NewServer(t testing.TB, f Fixture) *Server {
	t.Helper()

	s := &Server{fixture: f, calls: make(map[string]int)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/{user}/messages", s.listMessages)
	mux.HandleFunc("GET /gmail/v1/users/{user}/messages/{id}", s.getMessage)
	mux.HandleFunc("GET /gmail/v1/users/{user}/labels", s.listLabels)
	mux.HandleFunc("GET /gmail/v1/users/{user}/labels/{id}", s.getLabel)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Endpoint is the API root to hand to gmail.WithEndpoint.
func (s *Server) Endpoint() string {
	return s.URL + "/"
}

// Queries returns every q parameter received by messages.list.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// LabelFilters returns every labelIds parameter received by messages.list.
func (s *Server) LabelFilters() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.labelIDs...)
}

// Calls returns how often op was served.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Server) record(op string) bool {
	s.mu.Lock()
	s.calls[op]++
	s.mu.Unlock()
	_, fail := s.fixture.Errors[op]
	return fail
}

func (s *Server) fail(w http.ResponseWriter, op string) {
	code := s.fixture.Errors[op]
	writeError(w, code, http.StatusText(code))
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	if s.record(OpMessagesList) {
		s.fail(w, OpMessagesList)
		return
	}

	q := r.URL.Query().Get("q")
	labelID := r.URL.Query().Get("labelIds")

	s.mu.Lock()
	if q != "" {
		s.queries = append(s.queries, q)
	}
	if labelID != "" {
		s.labelIDs = append(s.labelIDs, labelID)
	}
	s.mu.Unlock()

	var ids []string
	switch {
	case q != "":
		ids = s.fixture.Search[q]
	case labelID != "":
		for _, id := range s.fixture.Order {
			if m := s.fixture.Messages[id]; m != nil && hasLabel(m, labelID) {
				ids = append(ids, id)
			}
		}
	default:
		ids = s.fixture.Order
	}

	if max, err := strconv.Atoi(r.URL.Query().Get("maxResults")); err == nil && max < len(ids) {
		ids = ids[:max]
	}

	resp := &gmailapi.ListMessagesResponse{ResultSizeEstimate: int64(len(ids))}
	for _, id := range ids {
		threadID := id
		if m := s.fixture.Messages[id]; m != nil {
			threadID = m.ThreadId
		}
		resp.Messages = append(resp.Messages, &gmailapi.Message{Id: id, ThreadId: threadID})
	}
	writeJSON(w, resp)
}

func (s *Server) getMessage(w http.ResponseWriter, r *http.Request) {
	if s.record(OpMessagesGet) {
		s.fail(w, OpMessagesGet)
		return
	}
	m, ok := s.fixture.Messages[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}
	writeJSON(w, m)
}

func (s *Server) listLabels(w http.ResponseWriter, _ *http.Request) {
	if s.record(OpLabelsList) {
		s.fail(w, OpLabelsList)
		return
	}
	writeJSON(w, &gmailapi.ListLabelsResponse{Labels: s.fixture.Labels})
}

func (s *Server) getLabel(w http.ResponseWriter, r *http.Request) {
	if s.record(OpLabelsGet) {
		s.fail(w, OpLabelsGet)
		return
	}
	id := r.PathValue("id")
	for _, l := range s.fixture.Labels {
		if l.Id == id {
			writeJSON(w, l)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Invalid label: "+id)
}

func hasLabel(m *gmailapi.Message, labelID string) bool {
	for _, l := range m.LabelIds {
		if l == labelID {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

// Message builds a simple single-part plain text message.
func Message(id, from, subject, body string, internalDate int64, labels ...string) *gmailapi.Message {
	return &gmailapi.Message{
		Id:           id,
		ThreadId:     "thread-" + id,
		LabelIds:     labels,
		Snippet:      subject,
		InternalDate: internalDate,
		SizeEstimate: int64(len(body)),
		Payload: &gmailapi.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: from},
				{Name: "To", Value: "me@example.com"},
				{Name: "Subject", Value: subject},
			},
			Body: &gmailapi.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte(body))},
		},
	}
}

// Label builds a label with counts.
func Label(id, name, typ string, total, unread int64) *gmailapi.Label {
	return &gmailapi.Label{
		Id:                    id,
		Name:                  name,
		Type:                  typ,
		MessagesTotal:         total,
		MessagesUnread:        unread,
		ThreadsTotal:          total,
		ThreadsUnread:         unread,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}
}
