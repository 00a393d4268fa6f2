package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxQueryLength bounds the free-text query accepted by the search endpoint.
const MaxQueryLength = 1000

// SearchRequest is a free-text question about a user's reminders.
type SearchRequest struct {
	Query      string `json:"query"`
	UserID     string `json:"userId,omitempty"`
	TargetDate string `json:"target_date,omitempty"` // explicit date; skips temporal resolution
	Timezone   string `json:"timezone,omitempty"`    // IANA zone used to compute "today"
}

// Validate trims the query and checks the optional fields are well formed.
func (q *SearchRequest) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if utf8.RuneCountInString(q.Query) > MaxQueryLength {
		return fmt.Errorf("query exceeds %d characters", MaxQueryLength)
	}
	q.TargetDate = strings.TrimSpace(q.TargetDate)
	if q.TargetDate != "" {
		if _, err := time.Parse(DateLayout, q.TargetDate); err != nil {
			return fmt.Errorf("invalid target_date %q: want YYYY-MM-DD", q.TargetDate)
		}
	}
	if q.Timezone != "" {
		if _, err := time.LoadLocation(q.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q", q.Timezone)
		}
	}
	return nil
}

// TemporalRange is an explicit date or inclusive date range. An empty StartDate
// means no date was resolved.
type TemporalRange struct {
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	IsRange    bool    `json:"isRange"`
	Confidence float64 `json:"confidence"`
}

// Resolved reports whether the range carries a date.
func (r TemporalRange) Resolved() bool {
	return r.StartDate != ""
}

// Contains reports whether date (YYYY-MM-DD) falls inside the inclusive range.
// ISO dates compare correctly as strings.
func (r TemporalRange) Contains(date string) bool {
	if !r.Resolved() || date == "" {
		return false
	}
	end := r.EndDate
	if end == "" {
		end = r.StartDate
	}
	return date >= r.StartDate && date <= end
}

// SingleDay returns a non-range TemporalRange for day.
func SingleDay(day time.Time, confidence float64) TemporalRange {
	d := day.Format(DateLayout)
	return TemporalRange{StartDate: d, EndDate: d, Confidence: confidence}
}

// DayRange returns an inclusive range from start to end.
func DayRange(start, end time.Time, confidence float64) TemporalRange {
	return TemporalRange{
		StartDate:  start.Format(DateLayout),
		EndDate:    end.Format(DateLayout),
		IsRange:    true,
		Confidence: confidence,
	}
}
