package temporal

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/hyperjump/recall/internal/models"
)

var (
	isoDatePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	nonWordPattern = regexp.MustCompile(`[^a-z0-9-]+`)
	weekdayPattern = regexp.MustCompile(`\b(?:(this|next)\s+)?(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// CalendarResolver resolves relative day, weekday, week, weekend and month
// phrases with plain calendar arithmetic. Weeks run Monday to Sunday.
type CalendarResolver struct{}

// NewCalendarResolver returns a CalendarResolver.
func NewCalendarResolver() *CalendarResolver {
	return &CalendarResolver{}
}

type rule struct {
	pattern *regexp.Regexp
	resolve func(today time.Time) models.TemporalRange
}

// Rules are tried in order; longer phrases precede their prefixes.
var rules = []rule{
	{regexp.MustCompile(`\bday after tomorrow\b`), func(t time.Time) models.TemporalRange {
		return models.SingleDay(t.AddDate(0, 0, 2), ConfidenceRule)
	}},
	{regexp.MustCompile(`\btomorrow\b`), func(t time.Time) models.TemporalRange {
		return models.SingleDay(t.AddDate(0, 0, 1), ConfidenceRule)
	}},
	{regexp.MustCompile(`\byesterday\b`), func(t time.Time) models.TemporalRange {
		return models.SingleDay(t.AddDate(0, 0, -1), ConfidenceRule)
	}},
	{regexp.MustCompile(`\b(today|tonight)\b`), func(t time.Time) models.TemporalRange {
		return models.SingleDay(t, ConfidenceRule)
	}},
	{regexp.MustCompile(`\bnext weekend\b`), func(t time.Time) models.TemporalRange {
		sat := saturdayOf(t).AddDate(0, 0, 7)
		return models.DayRange(sat, sat.AddDate(0, 0, 1), ConfidenceRule)
	}},
	{regexp.MustCompile(`\b(this )?weekend\b`), thisWeekend},
	{regexp.MustCompile(`\bnext week\b`), func(t time.Time) models.TemporalRange {
		mon := nextMonday(t)
		return models.DayRange(mon, mon.AddDate(0, 0, 6), ConfidenceRule)
	}},
	{regexp.MustCompile(`\bthis week\b`), func(t time.Time) models.TemporalRange {
		return models.DayRange(t, upcomingSunday(t), ConfidenceRule)
	}},
	{regexp.MustCompile(`\bnext month\b`), func(t time.Time) models.TemporalRange {
		return monthOf(time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location()))
	}},
	{regexp.MustCompile(`\bthis month\b`), func(t time.Time) models.TemporalRange {
		return monthOf(t)
	}},
}

// Resolve returns the first date expression found in query, or an unresolved range.
func (c *CalendarResolver) Resolve(ctx context.Context, query string, today time.Time) (models.TemporalRange, error) {
	return resolveCalendar(query, today), nil
}

func resolveCalendar(query string, today time.Time) models.TemporalRange {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	if m := isoDatePattern.FindString(query); m != "" {
		if day, err := time.ParseInLocation(models.DateLayout, m, today.Location()); err == nil {
			return models.SingleDay(day, ConfidenceExplicit)
		}
	}

	text := normalize(query)
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.resolve(today)
		}
	}

	if m := weekdayPattern.FindStringSubmatch(text); m != nil {
		day := nextWeekday(today, weekdays[m[2]])
		if m[1] == "next" {
			day = day.AddDate(0, 0, 7)
		}
		return models.SingleDay(day, ConfidenceRule)
	}
	return models.TemporalRange{}
}

// normalize lowercases the query and collapses punctuation to single spaces.
func normalize(query string) string {
	return strings.TrimSpace(nonWordPattern.ReplaceAllString(strings.ToLower(query), " "))
}

// nextWeekday returns the nearest day on or after today falling on wd.
func nextWeekday(today time.Time, wd time.Weekday) time.Time {
	offset := (int(wd) - int(today.Weekday()) + 7) % 7
	return today.AddDate(0, 0, offset)
}

// upcomingSunday returns today when it is Sunday, otherwise the following Sunday.
func upcomingSunday(today time.Time) time.Time {
	return today.AddDate(0, 0, (7-int(today.Weekday()))%7)
}

// nextMonday returns the Monday strictly after today.
func nextMonday(today time.Time) time.Time {
	offset := (int(time.Monday) - int(today.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return today.AddDate(0, 0, offset)
}

// saturdayOf returns the Saturday of the weekend today belongs to or precedes.
// On a Sunday that is the day before.
func saturdayOf(today time.Time) time.Time {
	if today.Weekday() == time.Sunday {
		return today.AddDate(0, 0, -1)
	}
	return nextWeekday(today, time.Saturday)
}

func thisWeekend(today time.Time) models.TemporalRange {
	if today.Weekday() == time.Sunday {
		return models.DayRange(today, today, ConfidenceRule)
	}
	sat := saturdayOf(today)
	return models.DayRange(sat, sat.AddDate(0, 0, 1), ConfidenceRule)
}

func monthOf(day time.Time) models.TemporalRange {
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	return models.DayRange(first, first.AddDate(0, 1, -1), ConfidenceRule)
}
