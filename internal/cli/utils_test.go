package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/recall/internal/models"
)

func samplePayload() *models.AnswerPayload {
	return &models.AnswerPayload{
		Answer:   "Here's what you have on Thursday, January 29: Dentist (09:00).",
		FollowUp: "Would you like to add another reminder?",
		Evidence: []*models.Candidate{{
			ID: "r1", Title: "Dentist", Date: "2026-01-29", Time: "09:00",
			Source: models.SourceDate, Score: 1,
		}},
		Actions:       []models.Action{},
		ResolvedRange: &models.TemporalRange{StartDate: "2026-01-29", EndDate: "2026-01-29", Confidence: 0.9},
		Branch:        "deterministic-found",
		QueryTime:     7,
	}
}

func TestWriteAnswer_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, samplePayload(), OutputJSON); err != nil {
		t.Fatalf("WriteAnswer(json): %v", err)
	}
	var decoded models.AnswerPayload
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Branch != "deterministic-found" || len(decoded.Evidence) != 1 || decoded.Evidence[0].Source != models.SourceDate {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteAnswer_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, samplePayload(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Dentist (09:00).", "Date: 2026-01-29", "deterministic-found", "[date 1.00]", "(r1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"tomorrow"}, "tomorrow"},
		{"multiple words", []string{"what's", "on", "friday"}, "what's on friday"},
		{"single quoted phrase", []string{"what's on friday"}, "what's on friday"},
		{"empty", []string{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildQuery(tt.args); got != tt.expected {
				t.Errorf("BuildQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestWriteStatus_Text(t *testing.T) {
	var buf bytes.Buffer
	status := map[string]interface{}{
		"vector_index_size": 2,
		"reminders":         2,
		"config":            map[string]interface{}{"vector_index_type": "memory"},
	}
	if err := WriteStatus(&buf, status, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Index(out, "config:") > strings.Index(out, "reminders:") {
		t.Errorf("keys not sorted:\n%s", out)
	}
	if !strings.Contains(out, "  vector_index_type:") {
		t.Errorf("nested keys not indented:\n%s", out)
	}
}
