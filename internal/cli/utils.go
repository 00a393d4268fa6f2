package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/recall/internal/models"
	"github.com/hyperjump/recall/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates an --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

// BuildQuery joins positional arguments into one query, so multi-word queries
// work with or without quotes.
func BuildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes an answer payload to w in the given format.
func WriteAnswer(w io.Writer, payload *models.AnswerPayload, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, payload)
	}
	fmt.Fprintf(w, "\n%s\n", payload.Answer)
	if payload.FollowUp != "" {
		fmt.Fprintf(w, "%s\n", payload.FollowUp)
	}
	fmt.Fprintln(w)
	if payload.ResolvedRange != nil {
		r := payload.ResolvedRange
		if r.IsRange && r.EndDate != r.StartDate {
			fmt.Fprintf(w, "Dates: %s to %s\n", r.StartDate, r.EndDate)
		} else {
			fmt.Fprintf(w, "Date: %s\n", r.StartDate)
		}
	}
	fmt.Fprintf(w, "Branch: %s | %d reminders | %dms\n", payload.Branch, len(payload.Evidence), payload.QueryTime)
	for _, c := range payload.Evidence {
		writeCandidate(w, c)
	}
	for _, a := range payload.Actions {
		label := a.Label
		if label == "" {
			label = a.Type
		}
		fmt.Fprintf(w, "  -> %s\n", label)
	}
	return nil
}

func writeCandidate(w io.Writer, c *models.Candidate) {
	when := c.Date
	if c.Time != "" {
		when = strings.TrimSpace(when + " " + c.Time)
	}
	if when == "" {
		when = "undated"
	}
	done := ""
	if c.Completed {
		done = " (done)"
	}
	fmt.Fprintf(w, "  [%s %.2f] %s  %s%s  (%s)\n", c.Source, c.Score, when, utils.Truncate(c.Title, 60), done, c.ID)
}

// WriteReminder writes a single reminder.
func WriteReminder(w io.Writer, r *models.Reminder, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, r)
	}
	fmt.Fprintf(w, "ID:    %s\n", r.ID)
	fmt.Fprintf(w, "Title: %s\n", r.Title)
	if r.Date != "" {
		fmt.Fprintf(w, "Date:  %s\n", strings.TrimSpace(r.Date+" "+r.Time))
	}
	return nil
}

// WriteStatus writes a status map with keys sorted, nested maps indented.
func WriteStatus(w io.Writer, status map[string]interface{}, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	writeStatusMap(w, status, "")
	return nil
}

func writeStatusMap(w io.Writer, m map[string]interface{}, indent string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if nested, ok := m[k].(map[string]interface{}); ok {
			fmt.Fprintf(w, "%s%s:\n", indent, k)
			writeStatusMap(w, nested, indent+"  ")
			continue
		}
		fmt.Fprintf(w, "%s%-22s %v\n", indent, k+":", m[k])
	}
}
