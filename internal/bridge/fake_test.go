package bridge

import (
	"context"
	"sync"
)

type sent struct {
	mimeType string
	text     string
	data     []byte
}

type fakeSession struct {
	id     string
	events chan Event

	mu      sync.Mutex
	sent    []sent
	closed  bool
	sendErr error
}

func newFakeSession(id string, events ...Event) *fakeSession {
	ch := make(chan Event, len(events)+1)
	for _, ev := range events {
		ch <- ev
	}
	return &fakeSession{id: id, events: ch}
}

func (f *fakeSession) ID() string           { return f.id }
func (f *fakeSession) Events() <-chan Event { return f.events }

func (f *fakeSession) SendText(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sent{mimeType: "text/plain", text: text})
	return nil
}

func (f *fakeSession) SendRealtime(_ context.Context, mimeType string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sent{mimeType: mimeType, data: data})
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSession) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSession) messages() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

type fakeRunner struct {
	session  *fakeSession
	err      error
	clientID string
	audio    bool
}

func (r *fakeRunner) Start(_ context.Context, clientID string, audio bool) (Session, error) {
	r.clientID = clientID
	r.audio = audio
	if r.err != nil {
		return nil, r.err
	}
	return r.session, nil
}
