package gmail

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a date argument is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

const (
	isoDateLayout   = "2006-01-02"
	gmailDateLayout = "2006/01/02"
)

// Fixed query templates.
const (
	UnreadQuery     = "is:unread"
	ImportantQuery  = "is:important"
	AttachmentQuery = "has:attachment"
)

// GmailDate formats t as a Gmail date token (YYYY/MM/DD).
func GmailDate(t time.Time) string {
	return t.Format(gmailDateLayout)
}

// ISODate formats t as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format(isoDateLayout)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseISODate parses a YYYY-MM-DD date in loc.
func ParseISODate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(isoDateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// DateRange is a resolved [Start, End) day window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Query renders the window as an after:/before: query.
func (r DateRange) Query() string {
	return fmt.Sprintf("after:%s before:%s", GmailDate(r.Start), GmailDate(r.End))
}

// ResolveDateRange fills in missing bounds relative to now. The start
// defaults to today and the end to the day after the start, so a single
// date selects exactly that day.
func ResolveDateRange(start, end string, now time.Time) (DateRange, error) {
	loc := now.Location()

	startDay := StartOfDay(now)
	if strings.TrimSpace(start) != "" {
		t, err := ParseISODate(start, loc)
		if err != nil {
			return DateRange{}, err
		}
		startDay = t
	}

	endDay := startDay.AddDate(0, 0, 1)
	if strings.TrimSpace(end) != "" {
		t, err := ParseISODate(end, loc)
		if err != nil {
			return DateRange{}, err
		}
		endDay = t
	}

	return DateRange{Start: startDay, End: endDay}, nil
}

// DateRangeQuery is ResolveDateRange followed by Query.
func DateRangeQuery(start, end string, now time.Time) (string, error) {
	r, err := ResolveDateRange(start, end, now)
	if err != nil {
		return "", err
	}
	return r.Query(), nil
}

// TodayQuery selects messages received today.
func TodayQuery(now time.Time) string {
	today := StartOfDay(now)
	return DateRange{Start: today, End: today.AddDate(0, 0, 1)}.Query()
}

// RecentQuery selects messages received after the date days ago.
func RecentQuery(days int, now time.Time) string {
	return "after:" + GmailDate(now.AddDate(0, 0, -days))
}

// AttachmentsQuery selects messages with attachments from the last days.
func AttachmentsQuery(days int, now time.Time) string {
	return AttachmentQuery + " " + RecentQuery(days, now)
}

// SenderQuery selects messages from a name, address or domain.
func SenderQuery(sender string) string {
	return "from:" + groupTerm(sender)
}

// SubjectQuery selects messages whose subject contains keyword.
func SubjectQuery(keyword string) string {
	return "subject:" + groupTerm(keyword)
}

// LabelQuery selects messages carrying the named label. Gmail spells
// spaces and nesting slashes in label names as hyphens.
func LabelQuery(name string) string {
	name = strings.Join(strings.Fields(strings.TrimSpace(name)), "-")
	return "label:" + strings.ReplaceAll(name, "/", "-")
}

// groupTerm wraps multi-word operator values in parentheses so Gmail
// applies the operator to every word.
func groupTerm(s string) string {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, " \t") && !strings.HasPrefix(s, "(") && !strings.HasPrefix(s, `"`) {
		return "(" + s + ")"
	}
	return s
}
