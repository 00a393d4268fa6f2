package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/recall/internal/answer"
	"github.com/hyperjump/recall/internal/apperr"
	"github.com/hyperjump/recall/internal/config"
	"github.com/hyperjump/recall/internal/embedding"
	"github.com/hyperjump/recall/internal/generate"
	"github.com/hyperjump/recall/internal/keyword"
	"github.com/hyperjump/recall/internal/models"
	"github.com/hyperjump/recall/internal/storage"
	"github.com/hyperjump/recall/internal/temporal"
	"github.com/hyperjump/recall/internal/vector"
)

const dims = 32

func newTestStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seed(t *testing.T, store storage.ReminderStore, r *models.Reminder) {
	t.Helper()
	if err := store.CreateReminder(context.Background(), r); err != nil {
		t.Fatal(err)
	}
}

type fixture struct {
	store    storage.ReminderStore
	vectors  *vector.MemoryIndex
	content  *keyword.BleveIndex
	embedder embedding.Embedder
	gen      *generate.Mock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	vecIndex, err := vector.NewMemoryIndex(dims)
	if err != nil {
		t.Fatal(err)
	}
	content, err := keyword.NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = content.Close() })
	return &fixture{
		store:    newTestStore(t),
		vectors:  vecIndex,
		content:  content,
		embedder: embedding.NewMockEmbedder(dims),
		gen:      generate.NewMock(),
	}
}

// add stores r and indexes it the same way ingestion does.
func (f *fixture) add(t *testing.T, r *models.Reminder) {
	t.Helper()
	ctx := context.Background()
	seed(t, f.store, r)
	vec, err := f.embedder.Embed(ctx, r.EmbeddingText())
	if err != nil {
		t.Fatal(err)
	}
	if err := f.vectors.Add(ctx, r.UserID, []models.ReminderID{r.ID}, [][]float32{vec}); err != nil {
		t.Fatal(err)
	}
	if err := f.content.Index(ctx, r); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) engine(today string) *Engine {
	cfg := config.DefaultSearchConfig()
	now, _ := time.Parse(models.DateLayout, today)
	now = now.Add(15 * time.Hour)
	retriever := NewRetriever(f.store, f.vectors, f.content, cfg, nil, nil)
	synth := answer.NewSynthesizer(f.gen, time.Second)
	return NewEngine(temporal.NewCalendarResolver(), f.embedder, f.store, retriever, synth, cfg,
		WithClock(func() time.Time { return now }))
}

func TestSearch_TomorrowFound(t *testing.T) {
	f := newFixture(t)
	f.add(t, &models.Reminder{ID: "r1", UserID: "u1", Title: "Dentist", Date: "2026-01-29", Time: "09:00"})
	f.add(t, &models.Reminder{ID: "r2", UserID: "u1", Title: "Gym", Date: "2026-01-30"})
	f.add(t, &models.Reminder{ID: "r3", UserID: "u2", Title: "Other user dentist", Date: "2026-01-29"})

	payload, err := f.engine("2026-01-28").Search(context.Background(), &models.SearchRequest{Query: "what's tomorrow", UserID: "u1"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if payload.Branch != string(answer.BranchFound) {
		t.Fatalf("branch = %s, want found", payload.Branch)
	}
	if !strings.Contains(payload.Answer, "Dentist (09:00)") {
		t.Errorf("answer = %q", payload.Answer)
	}
	if len(payload.Evidence) != 1 || payload.Evidence[0].ID != "r1" {
		t.Errorf("evidence = %+v, want r1 only", payload.Evidence)
	}
	if payload.ResolvedRange == nil || payload.ResolvedRange.StartDate != "2026-01-29" {
		t.Errorf("resolved range = %+v", payload.ResolvedRange)
	}
	if n := len(f.gen.Calls()); n != 0 {
		t.Errorf("generator called %d times, want 0", n)
	}
}

func TestSearch_CompletedIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.add(t, &models.Reminder{ID: "r1", UserID: "u1", Title: "Dentist", Date: "2026-01-29", Time: "09:00", Completed: true})

	payload, err := f.engine("2026-01-28").Search(context.Background(), &models.SearchRequest{Query: "what's tomorrow", UserID: "u1"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if payload.Branch != string(answer.BranchEmpty) {
		t.Errorf("branch = %s, want empty", payload.Branch)
	}
	if len(payload.Evidence) != 0 {
		t.Errorf("evidence = %+v, want none", payload.Evidence)
	}
	if n := len(f.gen.Calls()); n != 0 {
		t.Errorf("generator called %d times, want 0", n)
	}
}

func TestSearch_ThisWeekIncludesSunday(t *testing.T) {
	f := newFixture(t)
	f.add(t, &models.Reminder{ID: "r1", UserID: "u1", Title: "Brunch", Date: "2026-02-01", Time: "11:00"})
	f.add(t, &models.Reminder{ID: "r2", UserID: "u1", Title: "Standup", Date: "2026-02-02", Time: "10:00"})

	payload, err := f.engine("2026-01-28").Search(context.Background(), &models.SearchRequest{Query: "anything this week?", UserID: "u1"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	rng := payload.ResolvedRange
	if rng == nil || rng.StartDate != "2026-01-28" || rng.EndDate != "2026-02-01" {
		t.Fatalf("resolved range = %+v, want 2026-01-28..2026-02-01", rng)
	}
	if len(payload.Evidence) != 1 || payload.Evidence[0].ID != "r1" {
		t.Errorf("evidence = %+v, want r1", payload.Evidence)
	}
}

func TestSearch_TargetDateOverridesQuery(t *testing.T) {
	f := newFixture(t)
	f.add(t, &models.Reminder{ID: "r1", UserID: "u1", Title: "Dentist", Date: "2026-03-05"})

	payload, err := f.engine("2026-01-28").Search(context.Background(), &models.SearchRequest{
		Query: "what's tomorrow", UserID: "u1", TargetDate: "2026-03-05",
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if payload.ResolvedRange.StartDate != "2026-03-05" || payload.ResolvedRange.Confidence != temporal.ConfidenceExplicit {
		t.Errorf("resolved range = %+v", payload.ResolvedRange)
	}
	if payload.Branch != string(answer.BranchFound) {
		t.Errorf("branch = %s", payload.Branch)
	}
}

func TestSearch_GeneralUsesGenerator(t *testing.T) {
	f := newFixture(t)
	f.add(t, &models.Reminder{ID: "r1", UserID: "u1", Title: "Buy groceries"})
	f.gen = generate.NewMock(generate.MockReply{Text: `{"answer":"You need to buy groceries.","follow_up":"Want to set a date?","actions":[]}`})

	payload, err := f.engine("2026-01-28").Search(context.Background(), &models.SearchRequest{Query: "do I need to buy groceries", UserID: "u1"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if payload.Branch != string(answer.BranchGeneral) {
		t.Fatalf("branch = %s, want general", payload.Branch)
	}
	if payload.Answer != "You need to buy groceries." {
		t.Errorf("answer = %q", payload.Answer)
	}
	if payload.ResolvedRange != nil {
		t.Errorf("resolved range = %+v, want nil", payload.ResolvedRange)
	}
	if len(payload.Evidence) == 0 || payload.Evidence[0].ID != "r1" {
		t.Errorf("evidence = %+v, want r1", payload.Evidence)
	}
	if n := len(f.gen.Calls()); n != 1 {
		t.Errorf("generator called %d times, want 1", n)
	}
}

type failingEmbedder struct {
	embedding.Embedder
}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("connection refused")
}

func TestSearch_EmbeddingFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.add(t, &models.Reminder{ID: "r1", UserID: "u1", Title: "Dentist", Date: "2026-01-29"})
	f.embedder = failingEmbedder{Embedder: f.embedder}

	payload, err := f.engine("2026-01-28").Search(context.Background(), &models.SearchRequest{Query: "what's tomorrow", UserID: "u1"})
	if payload != nil {
		t.Errorf("payload = %+v, want nil", payload)
	}
	if !apperr.Is(err, apperr.Upstream) {
		t.Errorf("err = %v, want upstream error", err)
	}
}

type keywordFailStore struct {
	storage.ReminderStore
}

func (keywordFailStore) SearchTitle(context.Context, string, []string, int) ([]*models.Reminder, error) {
	return nil, errors.New("no such column: title")
}

func TestSearch_KeywordFailureStillAnswers(t *testing.T) {
	f := newFixture(t)
	f.add(t, &models.Reminder{ID: "r1", UserID: "u1", Title: "Dentist", Date: "2026-01-29", Time: "09:00"})
	f.store = keywordFailStore{ReminderStore: f.store}

	payload, err := f.engine("2026-01-28").Search(context.Background(), &models.SearchRequest{Query: "dentist tomorrow", UserID: "u1"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if payload.Branch != string(answer.BranchFound) || !strings.Contains(payload.Answer, "Dentist") {
		t.Errorf("payload = %+v", payload)
	}
}

func TestSearch_Validation(t *testing.T) {
	f := newFixture(t)
	e := f.engine("2026-01-28")
	tests := []struct {
		name string
		req  *models.SearchRequest
	}{
		{"nil request", nil},
		{"empty query", &models.SearchRequest{Query: "  ", UserID: "u1"}},
		{"bad target date", &models.SearchRequest{Query: "x", UserID: "u1", TargetDate: "tomorrow"}},
		{"no user", &models.SearchRequest{Query: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Search(context.Background(), tt.req)
			if !apperr.Is(err, apperr.Validation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestRetrieve_SkipsDateStrategiesWhenUnresolved(t *testing.T) {
	f := newFixture(t)
	f.add(t, &models.Reminder{ID: "r1", UserID: "u1", Title: "Dentist", Date: "2026-01-29"})
	r := NewRetriever(f.store, f.vectors, f.content, config.DefaultSearchConfig(), nil, nil)
	vec, _ := f.embedder.Embed(context.Background(), "dentist")

	got := r.Retrieve(context.Background(), "u1", "dentist", models.TemporalRange{}, vec)
	if len(got[models.SourceDate]) != 0 || len(got[models.SourceKeywordEmbed]) != 0 {
		t.Errorf("date strategies ran without a range: %+v", got)
	}
	if len(got[models.SourceKeyword]) != 1 {
		t.Errorf("keyword hits = %d, want 1", len(got[models.SourceKeyword]))
	}

	rng := models.SingleDay(time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC), temporal.ConfidenceRule)
	got = r.Retrieve(context.Background(), "u1", "dentist", rng, vec)
	if len(got[models.SourceDate]) != 1 || len(got[models.SourceKeywordEmbed]) != 1 {
		t.Errorf("date strategies: date=%d keyword_embed=%d, want 1 each",
			len(got[models.SourceDate]), len(got[models.SourceKeywordEmbed]))
	}
}

type slowStore struct {
	storage.ReminderStore
}

func (slowStore) SearchTitle(ctx context.Context, _ string, _ []string, _ int) ([]*models.Reminder, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRetrieve_StrategyTimeout(t *testing.T) {
	f := newFixture(t)
	cfg := config.DefaultSearchConfig()
	cfg.StrategyTimeout = 20 * time.Millisecond
	r := NewRetriever(slowStore{ReminderStore: f.store}, f.vectors, f.content, cfg, nil, nil)
	vec, _ := f.embedder.Embed(context.Background(), "dentist")

	start := time.Now()
	got := r.Retrieve(context.Background(), "u1", "dentist", models.TemporalRange{}, vec)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Retrieve took %v, want the strategy timeout to bound it", elapsed)
	}
	if len(got[models.SourceKeyword]) != 0 {
		t.Errorf("timed out strategy returned hits")
	}
}
