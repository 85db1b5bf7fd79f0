package gmail

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
	gmail "google.golang.org/api/gmail/v1"
)

const (
	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"
)

// Body holds the first plain text and first HTML body found in a message.
type Body struct {
	Text string
	HTML string
}

func (b Body) complete() bool {
	return b.Text != "" && b.HTML != ""
}

// fill keeps already found bodies and takes the missing ones from o.
func (b Body) fill(o Body) Body {
	if b.Text == "" {
		b.Text = o.Text
	}
	if b.HTML == "" {
		b.HTML = o.HTML
	}
	return b
}

// ExtractEmail flattens a message fetched with format=full. Dates are
// rendered in loc, which defaults to time.Local.
func ExtractEmail(msg *gmail.Message, loc *time.Location) EmailRecord {
	if msg == nil {
		return EmailRecord{}
	}
	if loc == nil {
		loc = time.Local
	}

	headers := Headers(msg.Payload)
	body := WalkBody(msg.Payload)

	rec := EmailRecord{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		Subject:      headers["subject"],
		Sender:       ParseAddress(headers["from"]),
		Recipient:    headers["to"],
		Date:         time.UnixMilli(msg.InternalDate).In(loc).Format(time.RFC3339),
		Snippet:      msg.Snippet,
		BodyText:     body.Text,
		BodyHTML:     body.HTML,
		Labels:       msg.LabelIds,
		Attachments:  WalkAttachments(msg.Payload),
		SizeEstimate: msg.SizeEstimate,
	}
	if rec.Labels == nil {
		rec.Labels = []string{}
	}
	if rec.Attachments == nil {
		rec.Attachments = []Attachment{}
	}
	return rec
}

// Headers collects the top level headers of part keyed by lower-cased
// name. A repeated header keeps its last value.
func Headers(part *gmail.MessagePart) map[string]string {
	headers := make(map[string]string)
	if part == nil {
		return headers
	}
	for _, h := range part.Headers {
		if h == nil {
			continue
		}
		headers[strings.ToLower(h.Name)] = h.Value
	}
	return headers
}

// WalkBody returns the first text/plain and the first text/html body of
// the tree rooted at part, in depth-first order. A text part with data is
// a leaf; any other part is searched through its children. Parts that fail
// to decode are skipped so a later sibling can still supply the body.
func WalkBody(part *gmail.MessagePart) Body {
	if part == nil {
		return Body{}
	}

	kind := baseMimeType(part.MimeType)
	if (kind == mimeTextPlain || kind == mimeTextHTML) && part.Body != nil && part.Body.Data != "" {
		text, ok := decodePart(part)
		if !ok {
			return Body{}
		}
		if kind == mimeTextPlain {
			return Body{Text: text}
		}
		return Body{HTML: text}
	}

	var found Body
	for _, child := range part.Parts {
		found = found.fill(WalkBody(child))
		if found.complete() {
			break
		}
	}
	return found
}

// WalkAttachments returns every part that has both a filename and a
// provider attachment ID. Such a part is not searched further.
func WalkAttachments(part *gmail.MessagePart) []Attachment {
	if part == nil {
		return nil
	}
	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		return []Attachment{{
			Filename:     part.Filename,
			MimeType:     part.MimeType,
			Size:         part.Body.Size,
			AttachmentID: part.Body.AttachmentId,
		}}
	}

	var out []Attachment
	for _, child := range part.Parts {
		out = append(out, WalkAttachments(child)...)
	}
	return out
}

func baseMimeType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// decodePart decodes the body data of a text part into UTF-8.
func decodePart(part *gmail.MessagePart) (string, bool) {
	raw, ok := decodeBase64(part.Body.Data)
	if !ok {
		return "", false
	}

	if cs := partCharset(part); cs != "" && !isUTF8Charset(cs) {
		r, err := charset.Reader(cs, bytes.NewReader(raw))
		if err != nil {
			return "", false
		}
		if raw, err = io.ReadAll(r); err != nil {
			return "", false
		}
	}

	if !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

// decodeBase64 accepts the URL-safe alphabet Gmail uses, padded or not,
// and standard base64 as a last resort.
func decodeBase64(data string) ([]byte, bool) {
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding} {
		if out, err := enc.DecodeString(data); err == nil {
			return out, true
		}
	}
	return nil, false
}

func partCharset(part *gmail.MessagePart) string {
	for _, h := range part.Headers {
		if h == nil || !strings.EqualFold(h.Name, "Content-Type") {
			continue
		}
		_, params, err := mime.ParseMediaType(h.Value)
		if err != nil {
			return ""
		}
		return strings.ToLower(params["charset"])
	}
	return ""
}

func isUTF8Charset(cs string) bool {
	switch cs {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return true
	}
	return false
}
