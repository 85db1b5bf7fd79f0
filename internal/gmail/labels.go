package gmail

import (
	gmail "google.golang.org/api/gmail/v1"
)

// NewLabelRecord flattens a provider label. Counts are only present when
// the label was fetched individually or Gmail chose to include them.
func NewLabelRecord(l *gmail.Label) LabelRecord {
	if l == nil {
		return LabelRecord{}
	}
	rec := LabelRecord{
		ID:                    l.Id,
		Name:                  l.Name,
		Type:                  l.Type,
		MessagesTotal:         l.MessagesTotal,
		MessagesUnread:        l.MessagesUnread,
		ThreadsTotal:          l.ThreadsTotal,
		ThreadsUnread:         l.ThreadsUnread,
		LabelListVisibility:   l.LabelListVisibility,
		MessageListVisibility: l.MessageListVisibility,
	}
	if l.Color != nil && (l.Color.TextColor != "" || l.Color.BackgroundColor != "") {
		rec.Color = &LabelColor{
			TextColor:       l.Color.TextColor,
			BackgroundColor: l.Color.BackgroundColor,
		}
	}
	return rec
}
