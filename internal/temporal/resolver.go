// Package temporal resolves colloquial date expressions in a query to explicit date ranges.
package temporal

import (
	"context"
	"time"

	"github.com/hyperjump/recall/internal/models"
)

const (
	// ConfidenceExplicit is assigned to dates written out in full.
	ConfidenceExplicit = 1.0
	// ConfidenceRule is assigned to calendar rule hits ("tomorrow", "next friday").
	ConfidenceRule = 0.9
	// ConfidenceModel is assigned to expressions resolved by a generative model.
	ConfidenceModel = 0.75
)

// Resolver maps a query to a date range relative to today. An unresolved
// query yields a zero TemporalRange and a nil error.
type Resolver interface {
	Resolve(ctx context.Context, query string, today time.Time) (models.TemporalRange, error)
}

// Explicit returns the range for a caller-supplied YYYY-MM-DD date, which
// overrides inference entirely.
func Explicit(date string) (models.TemporalRange, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return models.TemporalRange{}, err
	}
	return models.SingleDay(day, ConfidenceExplicit), nil
}

// Today returns midnight of now's calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}
