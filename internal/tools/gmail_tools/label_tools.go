package gmail_tools

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/teemow/inboxagent/internal/gmail"
)

// topLabelCount bounds the rankings in LabelStats.
const topLabelCount = 10

// LabelStats aggregates counts over every label in the mailbox.
type LabelStats struct {
	TotalLabels      int                 `json:"total_labels"`
	SystemLabels     int                 `json:"system_labels"`
	UserLabels       int                 `json:"user_labels"`
	TotalMessages    int64               `json:"total_messages"`
	TotalUnread      int64               `json:"total_unread"`
	TopLabelsByCount []gmail.LabelRecord `json:"top_labels_by_count"`
	LabelsWithUnread []gmail.LabelRecord `json:"labels_with_unread"`
}

// ComputeLabelStats aggregates labels. Rankings are stable, so labels with
// equal counts keep their listing order.
func ComputeLabelStats(labels []gmail.LabelRecord) LabelStats {
	stats := LabelStats{TotalLabels: len(labels)}
	for _, l := range labels {
		stats.TotalMessages += l.MessagesTotal
		stats.TotalUnread += l.MessagesUnread
		switch l.Type {
		case gmail.LabelTypeSystem:
			stats.SystemLabels++
		case gmail.LabelTypeUser:
			stats.UserLabels++
		}
	}

	byTotal := slices.Clone(labels)
	slices.SortStableFunc(byTotal, func(a, b gmail.LabelRecord) int {
		return cmp.Compare(b.MessagesTotal, a.MessagesTotal)
	})
	stats.TopLabelsByCount = truncate(byTotal, topLabelCount)
	stats.LabelsWithUnread = truncate(sortByUnread(labels), topLabelCount)
	return stats
}

// sortByUnread returns the labels with unread messages, most unread first.
func sortByUnread(labels []gmail.LabelRecord) []gmail.LabelRecord {
	out := make([]gmail.LabelRecord, 0, len(labels))
	for _, l := range labels {
		if l.MessagesUnread > 0 {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b gmail.LabelRecord) int {
		return cmp.Compare(b.MessagesUnread, a.MessagesUnread)
	})
	return out
}

func truncate(labels []gmail.LabelRecord, n int) []gmail.LabelRecord {
	if labels == nil {
		return []gmail.LabelRecord{}
	}
	if len(labels) > n {
		return labels[:n]
	}
	return labels
}

func (tb *Toolbox) listLabels(ctx context.Context) ([]gmail.LabelRecord, error) {
	mb, err := tb.box()
	if err != nil {
		return nil, err
	}
	return mb.ListLabels(ctx)
}

// labelsOrError lists labels, or returns the error envelope to hand back.
func (tb *Toolbox) labelsOrError(ctx context.Context) ([]gmail.LabelRecord, *Envelope) {
	labels, err := tb.listLabels(ctx)
	if err != nil {
		env := Errorf("Failed to list labels: %v", err)
		return nil, &env
	}
	return labels, nil
}

// ListLabels lists every label in the mailbox.
func (tb *Toolbox) ListLabels(ctx context.Context) Envelope {
	labels, errEnv := tb.labelsOrError(ctx)
	if errEnv != nil {
		return *errEnv
	}
	return Success(newLabelList(labels), fmt.Sprintf("Found %d labels", len(labels)))
}

// GetLabelDetails fetches one label including its color.
func (tb *Toolbox) GetLabelDetails(ctx context.Context, labelID string) Envelope {
	mb, err := tb.box()
	if err != nil {
		return Errorf("Failed to get label: %v", err)
	}
	label, err := mb.GetLabel(ctx, labelID)
	if err != nil {
		return Errorf("Failed to get label: %v", err)
	}
	return Success(LabelDetail{Label: label}, "")
}

// findLabel returns the label whose name equals name ignoring case.
func findLabel(labels []gmail.LabelRecord, name string) (gmail.LabelRecord, bool) {
	for _, l := range labels {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return gmail.LabelRecord{}, false
}

// FindLabelByName looks a label up by its name, ignoring case.
func (tb *Toolbox) FindLabelByName(ctx context.Context, name string) Envelope {
	labels, errEnv := tb.labelsOrError(ctx)
	if errEnv != nil {
		return *errEnv
	}
	label, ok := findLabel(labels, name)
	if !ok {
		return NotFound(fmt.Sprintf("No label found with name '%s'", name))
	}
	return Success(LabelDetail{Label: label}, fmt.Sprintf("Found label '%s'", label.Name))
}

// GetSystemLabels lists Gmail's built-in labels.
func (tb *Toolbox) GetSystemLabels(ctx context.Context) Envelope {
	return tb.filterLabels(ctx, func(l gmail.LabelRecord) bool { return l.IsSystem() }, "system labels")
}

// GetUserLabels lists user-created labels.
func (tb *Toolbox) GetUserLabels(ctx context.Context) Envelope {
	return tb.filterLabels(ctx, func(l gmail.LabelRecord) bool { return l.Type == gmail.LabelTypeUser }, "user-created labels")
}

func (tb *Toolbox) filterLabels(ctx context.Context, keep func(gmail.LabelRecord) bool, noun string) Envelope {
	labels, errEnv := tb.labelsOrError(ctx)
	if errEnv != nil {
		return *errEnv
	}
	out := make([]gmail.LabelRecord, 0, len(labels))
	for _, l := range labels {
		if keep(l) {
			out = append(out, l)
		}
	}
	return Success(newLabelList(out), fmt.Sprintf("Found %d %s", len(out), noun))
}

// GetLabelsWithUnreadCount lists labels with unread messages, most unread
// first.
func (tb *Toolbox) GetLabelsWithUnreadCount(ctx context.Context) Envelope {
	labels, errEnv := tb.labelsOrError(ctx)
	if errEnv != nil {
		return *errEnv
	}
	unread := sortByUnread(labels)
	return Success(newLabelList(unread), fmt.Sprintf("Found %d labels with unread messages", len(unread)))
}

// GetLabelStatistics aggregates message counts over all labels.
func (tb *Toolbox) GetLabelStatistics(ctx context.Context) Envelope {
	labels, errEnv := tb.labelsOrError(ctx)
	if errEnv != nil {
		return *errEnv
	}
	return Success(LabelStatistics{Statistics: ComputeLabelStats(labels)}, "")
}

// GetEmailsByLabel lists messages under a label given by name. A name
// that matches no label is used as a raw label ID.
func (tb *Toolbox) GetEmailsByLabel(ctx context.Context, name string, maxResults int) Envelope {
	labels, errEnv := tb.labelsOrError(ctx)
	if errEnv != nil {
		return *errEnv
	}
	labelID := name
	if label, ok := findLabel(labels, name); ok {
		labelID = label.ID
	}
	if maxResults <= 0 {
		maxResults = DefaultLabelResults
	}
	return tb.ListMessages(ctx, maxResults, labelID)
}
