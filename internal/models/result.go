package models

import (
	"encoding/json"
	"fmt"
)

// Source names the retrieval strategy that produced a candidate. Lower values
// have higher priority during fusion.
type Source int

const (
	SourceDate Source = iota
	SourceKeywordEmbed
	SourceVector
	SourceKeyword
)

// NumSources is the number of defined sources.
const NumSources = int(SourceKeyword) + 1

// Sources lists every source in priority order.
var Sources = []Source{SourceDate, SourceKeywordEmbed, SourceVector, SourceKeyword}

func (s Source) String() string {
	switch s {
	case SourceDate:
		return "date"
	case SourceKeywordEmbed:
		return "keyword_embed"
	case SourceVector:
		return "vector"
	case SourceKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// Outranks reports whether s has strictly higher priority than other.
func (s Source) Outranks(other Source) bool {
	return s < other
}

// MarshalJSON encodes the source by name.
func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a source name.
func (s *Source) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, src := range Sources {
		if src.String() == name {
			*s = src
			return nil
		}
	}
	return fmt.Errorf("unknown source %q", name)
}

// Candidate is a reminder surfaced by one retrieval strategy.
type Candidate struct {
	ID         ReminderID `json:"id"`
	Title      string     `json:"title"`
	Date       string     `json:"date,omitempty"`
	Time       string     `json:"time,omitempty"`
	Completed  bool       `json:"completed"`
	TagID      *string    `json:"tagId,omitempty"`
	PriorityID *string    `json:"priorityId,omitempty"`
	Source     Source     `json:"source"`
	Score      float64    `json:"score"`
}

// CandidateFromReminder builds a fully populated candidate.
func CandidateFromReminder(r *Reminder, source Source, score float64) *Candidate {
	c := &Candidate{ID: r.ID, Source: source, Score: score}
	c.Hydrate(r)
	return c
}

// Hydrate copies canonical fields from the stored reminder, keeping source and score.
func (c *Candidate) Hydrate(r *Reminder) {
	c.Title = r.Title
	c.Date = r.Date
	c.Time = r.Time
	c.Completed = r.Completed
	c.TagID = r.TagID
	c.PriorityID = r.PriorityID
}

// Action is a client-side follow-up proposed by the general answer branch.
type Action struct {
	Type       string `json:"type"`
	Label      string `json:"label,omitempty"`
	Title      string `json:"title,omitempty"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time,omitempty"`
	ReminderID string `json:"reminder_id,omitempty"`
}

// AnswerPayload is the response for a search request.
type AnswerPayload struct {
	Answer        string         `json:"answer"`
	FollowUp      string         `json:"follow_up"`
	Evidence      []*Candidate   `json:"evidence"`
	Actions       []Action       `json:"actions"`
	ResolvedRange *TemporalRange `json:"resolved_range"`
	Branch        string         `json:"branch"`
	QueryTime     int64          `json:"query_time_ms"`
}
