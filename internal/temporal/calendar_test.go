package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/hyperjump/recall/internal/models"
)

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalendarResolver(t *testing.T) {
	// 2026-01-28 is a Wednesday.
	today := day("2026-01-28")
	tests := []struct {
		query   string
		start   string
		end     string
		isRange bool
	}{
		{"what's on today?", "2026-01-28", "2026-01-28", false},
		{"anything tonight", "2026-01-28", "2026-01-28", false},
		{"what's tomorrow", "2026-01-29", "2026-01-29", false},
		{"day after tomorrow", "2026-01-30", "2026-01-30", false},
		{"what did I have yesterday", "2026-01-27", "2026-01-27", false},
		{"friday", "2026-01-30", "2026-01-30", false},
		{"this Friday", "2026-01-30", "2026-01-30", false},
		{"next friday", "2026-02-06", "2026-02-06", false},
		{"wednesday", "2026-01-28", "2026-01-28", false},
		{"next wednesday", "2026-02-04", "2026-02-04", false},
		{"monday", "2026-02-02", "2026-02-02", false},
		{"this week", "2026-01-28", "2026-02-01", true},
		{"next week", "2026-02-02", "2026-02-08", true},
		{"this weekend", "2026-01-31", "2026-02-01", true},
		{"weekend plans?", "2026-01-31", "2026-02-01", true},
		{"next weekend", "2026-02-07", "2026-02-08", true},
		{"this month", "2026-01-01", "2026-01-31", true},
		{"next month", "2026-02-01", "2026-02-28", true},
		{"what about 2026-02-03", "2026-02-03", "2026-02-03", false},
	}
	r := NewCalendarResolver()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.query, today)
			if err != nil {
				t.Fatal(err)
			}
			if got.StartDate != tt.start || got.EndDate != tt.end || got.IsRange != tt.isRange {
				t.Errorf("Resolve(%q) = %+v, want [%s, %s] range=%v", tt.query, got, tt.start, tt.end, tt.isRange)
			}
		})
	}
}

func TestCalendarResolver_Unresolved(t *testing.T) {
	r := NewCalendarResolver()
	for _, q := range []string{"what do I need to buy", "weekly review", "my weekends"} {
		got, _ := r.Resolve(context.Background(), q, day("2026-01-28"))
		if got.Resolved() {
			t.Errorf("Resolve(%q) = %+v, want unresolved", q, got)
		}
	}
}

func TestCalendarResolver_Confidence(t *testing.T) {
	r := NewCalendarResolver()
	ctx := context.Background()
	rule, _ := r.Resolve(ctx, "tomorrow", day("2026-01-28"))
	if rule.Confidence != ConfidenceRule {
		t.Errorf("rule confidence = %v", rule.Confidence)
	}
	explicit, _ := r.Resolve(ctx, "on 2026-03-01", day("2026-01-28"))
	if explicit.Confidence != ConfidenceExplicit {
		t.Errorf("explicit confidence = %v", explicit.Confidence)
	}
}

func TestNextWeekdayNeverEqualsThis(t *testing.T) {
	r := NewCalendarResolver()
	ctx := context.Background()
	start := day("2026-01-25")
	names := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	for i := 0; i < 7; i++ {
		today := start.AddDate(0, 0, i)
		for _, name := range names {
			this, _ := r.Resolve(ctx, "this "+name, today)
			next, _ := r.Resolve(ctx, "next "+name, today)
			if this.StartDate == next.StartDate {
				t.Errorf("today=%s: this/next %s both %s", today.Format(models.DateLayout), name, this.StartDate)
			}
			if this.StartDate < today.Format(models.DateLayout) {
				t.Errorf("today=%s: this %s = %s is in the past", today.Format(models.DateLayout), name, this.StartDate)
			}
		}
	}
}

func TestWeekBoundaries(t *testing.T) {
	r := NewCalendarResolver()
	ctx := context.Background()
	tests := []struct {
		today    string
		thisWeek [2]string
		nextWeek [2]string
		weekend  [2]string
	}{
		// Sunday
		{"2026-02-01", [2]string{"2026-02-01", "2026-02-01"}, [2]string{"2026-02-02", "2026-02-08"}, [2]string{"2026-02-01", "2026-02-01"}},
		// Monday
		{"2026-02-02", [2]string{"2026-02-02", "2026-02-08"}, [2]string{"2026-02-09", "2026-02-15"}, [2]string{"2026-02-07", "2026-02-08"}},
		// Saturday
		{"2026-01-31", [2]string{"2026-01-31", "2026-02-01"}, [2]string{"2026-02-02", "2026-02-08"}, [2]string{"2026-01-31", "2026-02-01"}},
	}
	for _, tt := range tests {
		today := day(tt.today)
		tw, _ := r.Resolve(ctx, "this week", today)
		nw, _ := r.Resolve(ctx, "next week", today)
		we, _ := r.Resolve(ctx, "this weekend", today)
		if tw.StartDate != tt.thisWeek[0] || tw.EndDate != tt.thisWeek[1] {
			t.Errorf("%s this week = %+v", tt.today, tw)
		}
		if nw.StartDate != tt.nextWeek[0] || nw.EndDate != tt.nextWeek[1] {
			t.Errorf("%s next week = %+v", tt.today, nw)
		}
		if we.StartDate != tt.weekend[0] || we.EndDate != tt.weekend[1] {
			t.Errorf("%s this weekend = %+v", tt.today, we)
		}
	}
}

func TestThisWeekContainsSunday(t *testing.T) {
	r := NewCalendarResolver()
	got, _ := r.Resolve(context.Background(), "this week", day("2026-01-28"))
	if !got.Contains("2026-02-01") {
		t.Errorf("this week %+v should contain 2026-02-01", got)
	}
	if got.Contains("2026-02-02") {
		t.Errorf("this week %+v should not contain 2026-02-02", got)
	}
}

func TestExplicit(t *testing.T) {
	r, err := Explicit("2026-01-29")
	if err != nil {
		t.Fatal(err)
	}
	if r.StartDate != "2026-01-29" || r.IsRange || r.Confidence != 1.0 {
		t.Errorf("Explicit = %+v", r)
	}
	if _, err := Explicit("29/01/2026"); err == nil {
		t.Error("malformed date should fail")
	}
}

func TestToday(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 03:00 UTC on the 29th is still the 28th in New York.
	now := time.Date(2026, 1, 29, 3, 0, 0, 0, time.UTC)
	if got := Today(now, loc).Format(models.DateLayout); got != "2026-01-28" {
		t.Errorf("Today = %s, want 2026-01-28", got)
	}
	if got := Today(now, nil).Format(models.DateLayout); got != "2026-01-29" {
		t.Errorf("Today(UTC) = %s, want 2026-01-29", got)
	}
}
