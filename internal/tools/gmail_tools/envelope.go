package gmail_tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/teemow/inboxagent/internal/gmail"
)

// Envelope statuses.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"
)

// Envelope is the uniform result of every Gmail operation. Data holds a
// payload struct whose JSON fields are flattened into the envelope, so a
// search result encodes as {"status":"success","emails":[...],"count":2,"message":"..."}.
type Envelope struct {
	Status       string
	Data         any
	Message      string
	ErrorMessage string
}

// Success builds a success envelope.
func Success(data any, message string) Envelope {
	return Envelope{Status: StatusSuccess, Data: data, Message: message}
}

// NotFound builds a not_found envelope.
func NotFound(message string) Envelope {
	return Envelope{Status: StatusNotFound, Message: message}
}

// Errorf builds an error envelope. Error envelopes carry no payload.
func Errorf(format string, args ...any) Envelope {
	return Envelope{Status: StatusError, ErrorMessage: fmt.Sprintf(format, args...)}
}

// OK reports whether the envelope is a success.
func (e Envelope) OK() bool {
	return e.Status == StatusSuccess
}

// MarshalJSON encodes status first, then the payload fields, then the
// message fields.
func (e Envelope) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"status":`)
	if err := writeJSON(&buf, e.Status); err != nil {
		return nil, err
	}

	if e.Data != nil {
		b, err := json.Marshal(e.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %T payload: %w", e.Data, err)
		}
		b = bytes.TrimSpace(b)
		if len(b) < 2 || b[0] != '{' || b[len(b)-1] != '}' {
			return nil, fmt.Errorf("payload %T does not encode as a JSON object", e.Data)
		}
		if inner := bytes.TrimSpace(b[1 : len(b)-1]); len(inner) > 0 {
			buf.WriteByte(',')
			buf.Write(inner)
		}
	}

	if e.Message != "" {
		buf.WriteString(`,"message":`)
		if err := writeJSON(&buf, e.Message); err != nil {
			return nil, err
		}
	}
	if e.ErrorMessage != "" {
		buf.WriteString(`,"error_message":`)
		if err := writeJSON(&buf, e.ErrorMessage); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// EmailList is the payload of every message listing.
type EmailList struct {
	Emails []gmail.EmailRecord `json:"emails"`
	Count  int                 `json:"count"`
}

func newEmailList(emails []gmail.EmailRecord) EmailList {
	if emails == nil {
		emails = []gmail.EmailRecord{}
	}
	return EmailList{Emails: emails, Count: len(emails)}
}

// LabeledEmailList is a search result enriched with label names.
type LabeledEmailList struct {
	EmailList
	LabelMapping map[string]string `json:"label_mapping"`
}

// EmailDetail is the payload of a single message lookup.
type EmailDetail struct {
	Email gmail.EmailRecord `json:"email"`
}

// LabelList is the payload of every label listing.
type LabelList struct {
	Labels []gmail.LabelRecord `json:"labels"`
	Count  int                 `json:"count"`
}

func newLabelList(labels []gmail.LabelRecord) LabelList {
	if labels == nil {
		labels = []gmail.LabelRecord{}
	}
	return LabelList{Labels: labels, Count: len(labels)}
}

// LabelDetail is the payload of a single label lookup.
type LabelDetail struct {
	Label gmail.LabelRecord `json:"label"`
}

// LabelStatistics wraps aggregate label counts.
type LabelStatistics struct {
	Statistics LabelStats `json:"statistics"`
}

// DateTimeInfo wraps the current date and time.
type DateTimeInfo struct {
	CurrentDateTime CurrentDateTime `json:"current_datetime"`
}
