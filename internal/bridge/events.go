package bridge

import (
	"encoding/base64"
	"strings"

	"github.com/teemow/inboxagent/internal/instrumentation"
)

// Event is one item produced by a live session.
type Event struct {
	TurnComplete bool
	Interrupted  bool

	// Partial marks streamed text. Only partial text reaches the client.
	Partial bool

	MimeType string
	Text     string
	Data     []byte
}

// TextEvent returns a partial text event.
func TextEvent(text string) Event {
	return Event{Partial: true, MimeType: instrumentation.MimeTextPlain, Text: text}
}

// TurnComplete returns the event that ends a turn.
func TurnComplete() Event {
	return Event{TurnComplete: true}
}

type turnMessage struct {
	TurnComplete bool `json:"turn_complete"`
	Interrupted  bool `json:"interrupted"`
}

type dataMessage struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// encodeEvent converts an event into its client message. The boolean is
// false for events that are not forwarded.
func encodeEvent(ev Event) (any, bool) {
	if ev.TurnComplete || ev.Interrupted {
		return turnMessage{TurnComplete: ev.TurnComplete, Interrupted: ev.Interrupted}, true
	}
	if strings.HasPrefix(ev.MimeType, instrumentation.MimeAudioPCM) {
		if len(ev.Data) == 0 {
			return nil, false
		}
		return dataMessage{
			MimeType: instrumentation.MimeAudioPCM,
			Data:     base64.StdEncoding.EncodeToString(ev.Data),
		}, true
	}
	if ev.Text != "" && ev.Partial {
		return dataMessage{MimeType: instrumentation.MimeTextPlain, Data: ev.Text}, true
	}
	return nil, false
}
