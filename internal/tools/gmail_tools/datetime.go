package gmail_tools

import (
	"time"

	"github.com/teemow/inboxagent/internal/gmail"
)

// GmailSearchDates holds the Gmail date tokens around today.
type GmailSearchDates struct {
	Today     string `json:"today"`
	Yesterday string `json:"yesterday"`
	Tomorrow  string `json:"tomorrow"`
}

// CurrentDateTime describes a moment in every format the agents reason
// with.
type CurrentDateTime struct {
	Timestamp         string           `json:"timestamp"`
	Timezone          string           `json:"timezone"`
	Date              string           `json:"date"`
	Time              string           `json:"time"`
	Year              int              `json:"year"`
	Month             int              `json:"month"`
	Day               int              `json:"day"`
	Hour              int              `json:"hour"`
	Minute            int              `json:"minute"`
	Second            int              `json:"second"`
	Weekday           string           `json:"weekday"`
	MonthName         string           `json:"month_name"`
	FormattedDate     string           `json:"formatted_date"`
	FormattedDatetime string           `json:"formatted_datetime"`
	HumanReadable     string           `json:"human_readable"`
	YesterdayDate     string           `json:"yesterday_date"`
	TomorrowDate      string           `json:"tomorrow_date"`
	GmailSearchFormat GmailSearchDates `json:"gmail_search_format"`
}

const (
	formattedDatetimeLayout = "2006-01-02 15:04:05"
	humanReadableLayout     = "Monday, January 02, 2006 at 03:04 PM"
)

// NewCurrentDateTime describes now in its own location.
func NewCurrentDateTime(now time.Time) CurrentDateTime {
	today := gmail.StartOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	return CurrentDateTime{
		Timestamp:         now.Format(time.RFC3339),
		Timezone:          now.Location().String(),
		Date:              gmail.ISODate(now),
		Time:              now.Format(time.TimeOnly),
		Year:              now.Year(),
		Month:             int(now.Month()),
		Day:               now.Day(),
		Hour:              now.Hour(),
		Minute:            now.Minute(),
		Second:            now.Second(),
		Weekday:           now.Weekday().String(),
		MonthName:         now.Month().String(),
		FormattedDate:     gmail.ISODate(now),
		FormattedDatetime: now.Format(formattedDatetimeLayout),
		HumanReadable:     now.Format(humanReadableLayout),
		YesterdayDate:     gmail.ISODate(yesterday),
		TomorrowDate:      gmail.ISODate(tomorrow),
		GmailSearchFormat: GmailSearchDates{
			Today:     gmail.GmailDate(today),
			Yesterday: gmail.GmailDate(yesterday),
			Tomorrow:  gmail.GmailDate(tomorrow),
		},
	}
}
