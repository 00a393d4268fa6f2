package temporal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/recall/internal/apperr"
	"github.com/hyperjump/recall/internal/generate"
	"github.com/hyperjump/recall/internal/models"
)

// maxModelRangeDays bounds ranges accepted from a model.
const maxModelRangeDays = 366

const modelSystemPrompt = `You convert date expressions in a user's question about their reminders into explicit dates.
Reply with JSON: {"startDate": "YYYY-MM-DD", "endDate": "YYYY-MM-DD", "isRange": true|false}.
Use an empty startDate when the question refers to no particular day or period.
Weeks run Monday to Sunday. Never invent a date that the question does not imply.`

// ModelResolver applies the calendar rules first and asks a generative model
// only for expressions the rules do not cover ("the 14th", "in three days").
type ModelResolver struct {
	gen    generate.Generator
	logger *zap.Logger
}

// NewModelResolver returns a ModelResolver backed by gen.
func NewModelResolver(gen generate.Generator, logger *zap.Logger) *ModelResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelResolver{gen: gen, logger: logger}
}

type modelRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	IsRange   bool   `json:"isRange"`
}

// Resolve returns the calendar result when there is one. Model output that
// cannot be parsed or validated is treated as unresolved; a failed call is an
// upstream error.
func (m *ModelResolver) Resolve(ctx context.Context, query string, today time.Time) (models.TemporalRange, error) {
	if r := resolveCalendar(query, today); r.Resolved() {
		return r, nil
	}

	user := fmt.Sprintf("Today is %s (%s).\nQuestion: %s", today.Format(models.DateLayout), today.Weekday(), query)
	raw, err := m.gen.Generate(ctx, generate.Request{
		System:      modelSystemPrompt,
		User:        user,
		Temperature: 0,
		JSON:        true,
		MaxTokens:   128,
	})
	if err != nil {
		return models.TemporalRange{}, apperr.New(apperr.Upstream, "temporal.resolve", err)
	}

	var out modelRange
	if err := generate.DecodeJSON(raw, &out); err != nil {
		m.logger.Debug("temporal model output unparseable", zap.String("raw", raw), zap.Error(err))
		return models.TemporalRange{}, nil
	}
	r, ok := validateModelRange(out, today.Location())
	if !ok {
		m.logger.Debug("temporal model output rejected", zap.String("raw", raw))
		return models.TemporalRange{}, nil
	}
	return r, nil
}

func validateModelRange(out modelRange, loc *time.Location) (models.TemporalRange, bool) {
	if out.StartDate == "" {
		return models.TemporalRange{}, true
	}
	start, err := time.ParseInLocation(models.DateLayout, out.StartDate, loc)
	if err != nil {
		return models.TemporalRange{}, false
	}
	if out.EndDate == "" || out.EndDate == out.StartDate {
		return models.SingleDay(start, ConfidenceModel), true
	}
	end, err := time.ParseInLocation(models.DateLayout, out.EndDate, loc)
	if err != nil || end.Before(start) || end.Sub(start) > maxModelRangeDays*24*time.Hour {
		return models.TemporalRange{}, false
	}
	return models.DayRange(start, end, ConfidenceModel), true
}
