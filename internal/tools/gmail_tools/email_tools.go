package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/inboxagent/internal/gmail"
	"github.com/teemow/inboxagent/internal/logging"
)

// Default page sizes per operation.
const (
	DefaultSearchResults     = 10
	DefaultListResults       = 10
	DefaultDateResults       = 20
	DefaultUnreadResults     = 20
	DefaultImportantResults  = 15
	DefaultAttachmentResults = 15
	DefaultLabelResults      = 20

	DefaultRecentDays     = 1
	DefaultAttachmentDays = 7

	DefaultListLabel = "INBOX"
)

// CurrentDatetime reports the current date and time.
func (tb *Toolbox) CurrentDatetime(_ context.Context) Envelope {
	now := tb.Now()
	return Success(DateTimeInfo{CurrentDateTime: NewCurrentDateTime(now)},
		"Current time: "+now.Format(formattedDatetimeLayout))
}

// SearchEmails runs a Gmail search query.
func (tb *Toolbox) SearchEmails(ctx context.Context, query string, maxResults int) Envelope {
	emails, err := tb.search(ctx, query, maxResults, DefaultSearchResults)
	if err != nil {
		return Errorf("Search failed: %v", err)
	}
	return emailListEnvelope(emails)
}

func (tb *Toolbox) search(ctx context.Context, query string, maxResults, def int) ([]gmail.EmailRecord, error) {
	mb, err := tb.box()
	if err != nil {
		return nil, err
	}
	limit := gmail.ClampMaxResults(maxResults, def)
	tb.logger.DebugContext(ctx, "searching messages", logging.Query(query), logging.Count(limit))
	return mb.SearchMessages(ctx, query, limit)
}

func emailListEnvelope(emails []gmail.EmailRecord) Envelope {
	if len(emails) == 0 {
		return Success(newEmailList(nil), "No emails found")
	}
	return Success(newEmailList(emails), fmt.Sprintf("Found %d emails", len(emails)))
}

// GetEmailByID fetches one message.
func (tb *Toolbox) GetEmailByID(ctx context.Context, id string) Envelope {
	mb, err := tb.box()
	if err != nil {
		return Errorf("Failed to get email: %v", err)
	}
	email, err := mb.GetMessage(ctx, id)
	if err != nil {
		return Errorf("Failed to get email: %v", err)
	}
	return Success(EmailDetail{Email: email}, "")
}

// ListMessages lists the newest messages carrying label, INBOX by default.
func (tb *Toolbox) ListMessages(ctx context.Context, maxResults int, label string) Envelope {
	if label == "" {
		label = DefaultListLabel
	}
	mb, err := tb.box()
	if err != nil {
		return Errorf("List failed: %v", err)
	}
	emails, err := mb.ListMessagesByLabel(ctx, label, gmail.ClampMaxResults(maxResults, DefaultListResults))
	if err != nil {
		return Errorf("List failed: %v", err)
	}
	if len(emails) == 0 {
		return Success(newEmailList(nil), "No messages found in "+label)
	}
	return Success(newEmailList(emails), fmt.Sprintf("Found %d messages in %s", len(emails), label))
}

// GetEmailsByDateRange lists messages received in [start, end). A missing
// start means today and a missing end means the day after start.
func (tb *Toolbox) GetEmailsByDateRange(ctx context.Context, start, end string, maxResults int) Envelope {
	query, err := gmail.DateRangeQuery(start, end, tb.Now())
	if err != nil {
		return Errorf("Failed to get emails by date range: %v", err)
	}
	emails, err := tb.search(ctx, query, maxResults, DefaultDateResults)
	if err != nil {
		return Errorf("Search failed: %v", err)
	}
	return emailListEnvelope(emails)
}

// GetTodayEmails lists messages received today.
func (tb *Toolbox) GetTodayEmails(ctx context.Context, maxResults int) Envelope {
	now := tb.Now()
	emails, err := tb.search(ctx, gmail.TodayQuery(now), maxResults, DefaultDateResults)
	if err != nil {
		return Errorf("Search failed: %v", err)
	}
	env := emailListEnvelope(emails)
	env.Message = fmt.Sprintf("Found %d emails from today (%s)", len(emails), gmail.ISODate(now))
	return env
}

// GetRecentEmails lists messages from the last days days.
func (tb *Toolbox) GetRecentEmails(ctx context.Context, days, maxResults int) Envelope {
	if days <= 0 {
		days = DefaultRecentDays
	}
	return tb.searchTemplate(ctx, gmail.RecentQuery(days, tb.Now()), maxResults, DefaultDateResults)
}

// GetEmailsFromSender lists messages from a name, address or domain.
func (tb *Toolbox) GetEmailsFromSender(ctx context.Context, sender string, maxResults int) Envelope {
	if strings.Contains(sender, "@") {
		tb.logger.DebugContext(ctx, "sender lookup", logging.Domain(sender))
	}
	return tb.searchTemplate(ctx, gmail.SenderQuery(sender), maxResults, DefaultSearchResults)
}

// GetUnreadEmails lists unread messages.
func (tb *Toolbox) GetUnreadEmails(ctx context.Context, maxResults int) Envelope {
	return tb.searchTemplate(ctx, gmail.UnreadQuery, maxResults, DefaultUnreadResults)
}

// GetImportantEmails lists messages Gmail marked important.
func (tb *Toolbox) GetImportantEmails(ctx context.Context, maxResults int) Envelope {
	return tb.searchTemplate(ctx, gmail.ImportantQuery, maxResults, DefaultImportantResults)
}

// GetEmailsWithAttachments lists messages with attachments from the last
// days days.
func (tb *Toolbox) GetEmailsWithAttachments(ctx context.Context, days, maxResults int) Envelope {
	if days <= 0 {
		days = DefaultAttachmentDays
	}
	return tb.searchTemplate(ctx, gmail.AttachmentsQuery(days, tb.Now()), maxResults, DefaultAttachmentResults)
}

// GetEmailsBySubject lists messages whose subject contains keyword.
func (tb *Toolbox) GetEmailsBySubject(ctx context.Context, keyword string, maxResults int) Envelope {
	return tb.searchTemplate(ctx, gmail.SubjectQuery(keyword), maxResults, DefaultSearchResults)
}

func (tb *Toolbox) searchTemplate(ctx context.Context, query string, maxResults, def int) Envelope {
	emails, err := tb.search(ctx, query, maxResults, def)
	if err != nil {
		return Errorf("Search failed: %v", err)
	}
	return emailListEnvelope(emails)
}

// SearchEmailsWithLabels runs a search and adds the human readable label
// names to every message. A label listing failure degrades to an empty
// mapping.
func (tb *Toolbox) SearchEmailsWithLabels(ctx context.Context, query string, maxResults int) Envelope {
	labelMap := map[string]string{}
	if labels, err := tb.listLabels(ctx); err != nil {
		tb.logger.WarnContext(ctx, "failed to fetch labels for search", logging.Err(err))
	} else {
		for _, l := range labels {
			labelMap[l.ID] = l.Name
		}
	}

	env := tb.SearchEmails(ctx, query, maxResults)
	if !env.OK() {
		return env
	}

	list := env.Data.(EmailList)
	for i := range list.Emails {
		names := make([]string, 0, len(list.Emails[i].Labels))
		for _, id := range list.Emails[i].Labels {
			if name, ok := labelMap[id]; ok {
				names = append(names, name)
			} else {
				names = append(names, id)
			}
		}
		list.Emails[i].LabelNames = names
	}

	return Success(LabeledEmailList{EmailList: list, LabelMapping: labelMap}, env.Message)
}
