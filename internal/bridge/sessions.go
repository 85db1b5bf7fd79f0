package bridge

import (
	"context"
	"errors"
	"sync"

	"github.com/teemow/inboxagent/internal/instrumentation"
)

// ErrSessionNotFound is returned for a client without a live session.
var ErrSessionNotFound = errors.New("session not found")

// Sessions maps client identifiers to their live session. Entries are added
// on connect and removed on disconnect; nothing expires.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]Session
	metrics  *instrumentation.Metrics
}

// NewSessions returns an empty registry. metrics may be nil.
func NewSessions(metrics *instrumentation.Metrics) *Sessions {
	return &Sessions{
		sessions: make(map[string]Session),
		metrics:  metrics,
	}
}

// Put registers sess for clientID. A session already registered for the
// client is replaced and closed.
func (s *Sessions) Put(ctx context.Context, clientID string, sess Session) {
	s.mu.Lock()
	old, existed := s.sessions[clientID]
	s.sessions[clientID] = sess
	s.mu.Unlock()

	if existed {
		_ = old.Close()
		return
	}
	s.metrics.IncrementBridgeSessions(ctx)
}

// Get returns the session of clientID.
func (s *Sessions) Get(clientID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[clientID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Remove deletes clientID if it is still mapped to sess. A session that was
// replaced by a reconnect leaves the newer entry alone.
func (s *Sessions) Remove(ctx context.Context, clientID string, sess Session) bool {
	s.mu.Lock()
	current, ok := s.sessions[clientID]
	if !ok || current != sess {
		s.mu.Unlock()
		return false
	}
	delete(s.sessions, clientID)
	s.mu.Unlock()

	s.metrics.DecrementBridgeSessions(ctx)
	return true
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CloseAll closes and forgets every session.
func (s *Sessions) CloseAll(ctx context.Context) {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		_ = sess.Close()
		s.metrics.DecrementBridgeSessions(ctx)
	}
}
