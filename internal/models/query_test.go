package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSearchRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *SearchRequest
		wantErr bool
	}{
		{"empty query", &SearchRequest{Query: ""}, true},
		{"whitespace query", &SearchRequest{Query: "   "}, true},
		{"valid query", &SearchRequest{Query: "what's tomorrow"}, false},
		{"valid target date", &SearchRequest{Query: "x", TargetDate: "2026-01-29"}, false},
		{"malformed target date", &SearchRequest{Query: "x", TargetDate: "29/01/2026"}, true},
		{"valid timezone", &SearchRequest{Query: "x", Timezone: "UTC"}, false},
		{"unknown timezone", &SearchRequest{Query: "x", Timezone: "Mars/Olympus"}, true},
		{"multibyte query at limit", &SearchRequest{Query: strings.Repeat("é", MaxQueryLength)}, false},
		{"query over limit", &SearchRequest{Query: strings.Repeat("a", MaxQueryLength+1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTemporalRange_Contains(t *testing.T) {
	week := TemporalRange{StartDate: "2026-01-28", EndDate: "2026-02-01", IsRange: true}
	for _, d := range []string{"2026-01-28", "2026-01-30", "2026-02-01"} {
		if !week.Contains(d) {
			t.Errorf("Contains(%s) = false, want true", d)
		}
	}
	for _, d := range []string{"2026-01-27", "2026-02-02", ""} {
		if week.Contains(d) {
			t.Errorf("Contains(%q) = true, want false", d)
		}
	}
	if (TemporalRange{}).Contains("2026-01-28") {
		t.Error("unresolved range should contain nothing")
	}
	day := TemporalRange{StartDate: "2026-01-29"}
	if !day.Contains("2026-01-29") {
		t.Error("single day with empty end should contain its start")
	}
}

func TestSource_PriorityAndJSON(t *testing.T) {
	if !SourceDate.Outranks(SourceKeywordEmbed) || !SourceKeywordEmbed.Outranks(SourceVector) || !SourceVector.Outranks(SourceKeyword) {
		t.Error("sources should rank date > keyword_embed > vector > keyword")
	}
	if SourceKeyword.Outranks(SourceDate) {
		t.Error("keyword must not outrank date")
	}
	data, err := json.Marshal(SourceKeywordEmbed)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"keyword_embed"` {
		t.Errorf("marshal: got %s", data)
	}
	var s Source
	if err := json.Unmarshal([]byte(`"vector"`), &s); err != nil || s != SourceVector {
		t.Errorf("unmarshal: got %v, %v", s, err)
	}
	if err := json.Unmarshal([]byte(`"bogus"`), &s); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestReminderInput_Validate(t *testing.T) {
	ok := &ReminderInput{Title: "  Dentist ", Date: "2026-01-29", Time: "09:00"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if ok.Title != "Dentist" {
		t.Errorf("title should be trimmed, got %q", ok.Title)
	}
	if err := (&ReminderInput{Title: "x", Time: "9am"}).Validate(); err == nil {
		t.Error("expected error for malformed time")
	}
	if err := (&ReminderInput{}).Validate(); err == nil {
		t.Error("expected error for empty title")
	}
}

func TestReminder_EmbeddingText(t *testing.T) {
	r := &Reminder{Title: "Dentist", Date: "2026-01-29", Time: "09:00"}
	if got := r.EmbeddingText(); got != "Dentist on 2026-01-29 at 09:00" {
		t.Errorf("EmbeddingText() = %q", got)
	}
	if got := (&Reminder{Title: "Buy milk"}).EmbeddingText(); got != "Buy milk" {
		t.Errorf("EmbeddingText() = %q", got)
	}
}
