package gmail

// Sender is a parsed From header.
type Sender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Attachment describes one attachment part of a message. The content
// itself is never downloaded.
type Attachment struct {
	Filename     string `json:"filename"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	AttachmentID string `json:"attachment_id"`
}

// EmailRecord is the flattened view of a Gmail message.
type EmailRecord struct {
	ID           string       `json:"id"`
	ThreadID     string       `json:"thread_id"`
	Subject      string       `json:"subject"`
	Sender       Sender       `json:"from"`
	Recipient    string       `json:"to"`
	Date         string       `json:"date"`
	Snippet      string       `json:"snippet"`
	BodyText     string       `json:"body_text"`
	BodyHTML     string       `json:"body_html"`
	Labels       []string     `json:"labels"`
	Attachments  []Attachment `json:"attachments"`
	SizeEstimate int64        `json:"size"`

	// LabelNames is only filled in by searches that join against the label set.
	LabelNames []string `json:"label_names,omitempty"`
}

// HasAttachments reports whether the message carries at least one attachment.
func (e EmailRecord) HasAttachments() bool {
	return len(e.Attachments) > 0
}

// Label types as reported by Gmail.
const (
	LabelTypeSystem = "system"
	LabelTypeUser   = "user"
)

// LabelColor is the optional color of a user label.
type LabelColor struct {
	TextColor       string `json:"text_color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
}

// LabelRecord is the flattened view of a Gmail label.
type LabelRecord struct {
	ID                    string      `json:"id"`
	Name                  string      `json:"name"`
	Type                  string      `json:"type"`
	MessagesTotal         int64       `json:"messages_total"`
	MessagesUnread        int64       `json:"messages_unread"`
	ThreadsTotal          int64       `json:"threads_total"`
	ThreadsUnread         int64       `json:"threads_unread"`
	LabelListVisibility   string      `json:"label_list_visibility"`
	MessageListVisibility string      `json:"message_list_visibility"`
	Color                 *LabelColor `json:"color,omitempty"`
}

// IsSystem reports whether the label is one of Gmail's built-in labels.
func (l LabelRecord) IsSystem() bool {
	return l.Type == LabelTypeSystem
}
