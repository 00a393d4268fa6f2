// Package answer turns fused candidates into a conversational answer.
package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/recall/internal/apperr"
	"github.com/hyperjump/recall/internal/generate"
	"github.com/hyperjump/recall/internal/metrics"
	"github.com/hyperjump/recall/internal/models"
	"github.com/hyperjump/recall/pkg/utils"
)

// Branch names the path that produced an answer.
type Branch string

const (
	BranchFound   Branch = "deterministic-found"
	BranchEmpty   Branch = "deterministic-empty"
	BranchGeneral Branch = "general"
)

// Fallback describes how a general answer degraded, if at all.
type Fallback string

const (
	FallbackNone Fallback = ""
	// FallbackRawText means the model answered but not with the expected JSON;
	// its text is used as the answer.
	FallbackRawText Fallback = "raw_text"
	// FallbackApology means the model failed or timed out.
	FallbackApology Fallback = "apology"
)

const (
	followUpAddAnother = "Would you like to add another reminder?"
	followUpGeneric    = "Is there anything else you'd like to know about your reminders?"
	apologyAnswer      = "Sorry, I couldn't put together an answer right now. Please try again in a moment."

	defaultTimeout = 20 * time.Second
	// maxPromptTitleLen bounds each reminder title sent to the generator.
	maxPromptTitleLen = 200
)

// Input is everything the synthesizer needs for one query.
type Input struct {
	Query string
	Today time.Time
	Range models.TemporalRange
	Fused []*models.Candidate
}

// Outcome is the synthesized answer before assembly.
type Outcome struct {
	Branch   Branch
	Fallback Fallback
	Answer   string
	FollowUp string
	// Matches are the date-filtered candidates for the deterministic branches.
	Matches []*models.Candidate
	Actions []models.Action
}

// Synthesizer chooses a branch and produces the answer text.
type Synthesizer struct {
	gen     generate.Generator
	timeout time.Duration
	logger  *zap.Logger
	metrics metrics.Observer
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics observer.
func WithMetrics(o metrics.Observer) Option {
	return func(s *Synthesizer) {
		if o != nil {
			s.metrics = o
		}
	}
}

// NewSynthesizer creates a Synthesizer. gen is only called for general queries;
// timeout bounds each call and defaults to 20s.
func NewSynthesizer(gen generate.Generator, timeout time.Duration, opts ...Option) *Synthesizer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	s := &Synthesizer{gen: gen, timeout: timeout, logger: zap.NewNop(), metrics: metrics.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize produces an answer. It never fails: generation problems degrade
// to a fallback outcome.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) *Outcome {
	var out *Outcome
	if in.Range.Resolved() {
		out = deterministic(in)
	} else {
		out = s.general(ctx, in)
	}
	s.metrics.RecordBranch(string(out.Branch))
	if out.Fallback != FallbackNone {
		s.metrics.RecordFallback(string(out.Fallback))
	}
	return out
}

// deterministic answers a date-resolved query by string formatting alone.
func deterministic(in Input) *Outcome {
	matches := MatchRange(in.Fused, in.Range)
	when := describeRange(in.Range)
	if len(matches) == 0 {
		return &Outcome{
			Branch:   BranchEmpty,
			Answer:   fmt.Sprintf("You have nothing scheduled %s.", when),
			FollowUp: fmt.Sprintf("Would you like to create a reminder %s?", when),
			Matches:  []*models.Candidate{},
		}
	}

	items := make([]string, len(matches))
	var timeless []string
	for i, c := range matches {
		items[i] = c.Title
		if c.Time != "" {
			items[i] = fmt.Sprintf("%s (%s)", c.Title, c.Time)
		} else {
			timeless = append(timeless, c.Title)
		}
	}
	followUp := followUpAddAnother
	if len(timeless) > 0 {
		followUp = fmt.Sprintf("Would you like to set a time for %s?", joinNames(timeless))
	}
	return &Outcome{
		Branch:   BranchFound,
		Answer:   fmt.Sprintf("Here's what you have %s: %s.", when, strings.Join(items, ", ")),
		FollowUp: followUp,
		Matches:  matches,
	}
}

// MatchRange returns the non-completed candidates dated within rng, ordered by
// date, then time (timeless last), then title.
func MatchRange(fused []*models.Candidate, rng models.TemporalRange) []*models.Candidate {
	out := make([]*models.Candidate, 0, len(fused))
	for _, c := range fused {
		if !c.Completed && rng.Contains(c.Date) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			if a.Time == "" || b.Time == "" {
				return b.Time == ""
			}
			return a.Time < b.Time
		}
		return a.Title < b.Title
	})
	return out
}

// describeRange renders "on Thursday, January 29" or
// "between Wednesday, January 28 and Sunday, February 1".
func describeRange(rng models.TemporalRange) string {
	start := formatDay(rng.StartDate)
	if !rng.IsRange || rng.EndDate == "" || rng.EndDate == rng.StartDate {
		return "on " + start
	}
	return fmt.Sprintf("between %s and %s", start, formatDay(rng.EndDate))
}

func formatDay(date string) string {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return day.Format("Monday, January 2")
}

// joinNames joins names as "A", "A and B" or "A, B and C".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

type generalReply struct {
	Answer   string          `json:"answer"`
	FollowUp string          `json:"follow_up"`
	Actions  []models.Action `json:"actions"`
}

// general asks the generator to answer from the fused candidates.
func (s *Synthesizer) general(ctx context.Context, in Input) *Outcome {
	out := &Outcome{Branch: BranchGeneral}
	if s.gen == nil {
		return apologize(out)
	}

	user, err := buildUserPrompt(in)
	if err != nil {
		s.logger.Error("failed to encode answer context", zap.Error(err))
		return apologize(out)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	raw, err := s.gen.Generate(ctx, generate.Request{
		System:      systemPrompt,
		User:        user,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		s.logger.Warn("answer generation failed",
			zap.String("generator", s.gen.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(apperr.New(apperr.Upstream, "answer.generate", err)))
		return apologize(out)
	}

	var reply generalReply
	if err := generate.DecodeJSON(raw, &reply); err != nil {
		s.logger.Warn("answer reply was not valid JSON, using raw text",
			zap.Error(apperr.New(apperr.SynthesisParse, "answer.parse", err)))
		text := strings.TrimSpace(generate.StripFences(raw))
		if text == "" {
			return apologize(out)
		}
		out.Fallback = FallbackRawText
		out.Answer = text
		out.FollowUp = followUpGeneric
		return out
	}
	if strings.TrimSpace(reply.Answer) == "" {
		s.logger.Warn("answer reply has no answer field",
			zap.Error(apperr.New(apperr.SynthesisParse, "answer.parse", errors.New("empty answer"))))
		return apologize(out)
	}

	out.Answer = strings.TrimSpace(reply.Answer)
	out.FollowUp = strings.TrimSpace(reply.FollowUp)
	if out.FollowUp == "" {
		out.FollowUp = followUpGeneric
	}
	out.Actions = validActions(reply.Actions, in.Fused)
	return out
}

func apologize(out *Outcome) *Outcome {
	out.Fallback = FallbackApology
	out.Answer = apologyAnswer
	out.FollowUp = followUpGeneric
	return out
}

// validActions drops actions without a type, with a malformed date, or that
// refer to a reminder outside the fused set.
func validActions(actions []models.Action, fused []*models.Candidate) []models.Action {
	known := make(map[string]struct{}, len(fused))
	for _, c := range fused {
		known[string(c.ID)] = struct{}{}
	}
	out := make([]models.Action, 0, len(actions))
	for _, a := range actions {
		a.Type = strings.TrimSpace(a.Type)
		if a.Type == "" {
			continue
		}
		if a.ReminderID != "" {
			if _, ok := known[a.ReminderID]; !ok {
				continue
			}
		}
		if a.Date != "" {
			if _, err := time.Parse(models.DateLayout, a.Date); err != nil {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

const systemPrompt = `You are a helpful assistant answering questions about the user's reminders.
Use only the reminders provided. If none are relevant, say so plainly.
Reply as JSON: {"answer": string, "follow_up": string, "actions": [{"type": string, "label": string, "title": string, "date": "YYYY-MM-DD", "time": "HH:MM", "reminder_id": string}]}.
Action types are "create_reminder", "complete_reminder" and "open_reminder". Leave actions empty when none apply.`

type promptReminder struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	Completed bool   `json:"completed"`
}

func buildUserPrompt(in Input) (string, error) {
	reminders := make([]promptReminder, len(in.Fused))
	for i, c := range in.Fused {
		reminders[i] = promptReminder{
			ID:        string(c.ID),
			Title:     utils.Truncate(c.Title, maxPromptTitleLen),
			Date:      c.Date,
			Time:      c.Time,
			Completed: c.Completed,
		}
	}
	data, err := json.Marshal(reminders)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if !in.Today.IsZero() {
		fmt.Fprintf(&b, "Today is %s (%s).\n", in.Today.Format(models.DateLayout), in.Today.Weekday())
	}
	fmt.Fprintf(&b, "Reminders: %s\n", data)
	fmt.Fprintf(&b, "Question: %s", in.Query)
	return b.String(), nil
}
