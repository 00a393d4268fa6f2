// Package models defines core data structures for reminders, queries, and answers.
package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for reminder dates.
const DateLayout = "2006-01-02"

// ReminderID identifies a reminder across the store and every index.
type ReminderID string

// Reminder is a stored reminder owned by a single user.
type Reminder struct {
	ID         ReminderID `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	Title      string     `json:"title" db:"title"`
	Date       string     `json:"date,omitempty" db:"date"`
	Time       string     `json:"time,omitempty" db:"time"`
	Completed  bool       `json:"completed" db:"completed"`
	TagID      *string    `json:"tag_id,omitempty" db:"tag_id"`
	PriorityID *string    `json:"priority_id,omitempty" db:"priority_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// EmbeddingText is the text a reminder is embedded and content-indexed under.
// The date and time are spelled out so date strings can be matched against it.
func (r *Reminder) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(r.Title)
	if r.Date != "" {
		b.WriteString(" on ")
		b.WriteString(r.Date)
	}
	if r.Time != "" {
		b.WriteString(" at ")
		b.WriteString(r.Time)
	}
	return b.String()
}

// ReminderInput is the input for creating or replacing a reminder.
type ReminderInput struct {
	ID         string  `json:"id,omitempty"`
	UserID     string  `json:"userId,omitempty"`
	Title      string  `json:"title"`
	Date       string  `json:"date,omitempty"`
	Time       string  `json:"time,omitempty"`
	Completed  bool    `json:"completed,omitempty"`
	TagID      *string `json:"tag_id,omitempty"`
	PriorityID *string `json:"priority_id,omitempty"`
}

// Validate checks the title is present and date/time, when given, are well formed.
func (in *ReminderInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if in.Date != "" {
		if _, err := time.Parse(DateLayout, in.Date); err != nil {
			return fmt.Errorf("invalid date %q: want YYYY-MM-DD", in.Date)
		}
	}
	if in.Time != "" {
		if _, err := time.Parse("15:04", in.Time); err != nil {
			return fmt.Errorf("invalid time %q: want HH:MM", in.Time)
		}
	}
	return nil
}
