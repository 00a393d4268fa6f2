package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/recall/internal/apperr"
	"github.com/hyperjump/recall/internal/config"
	"github.com/hyperjump/recall/internal/keyword"
	"github.com/hyperjump/recall/internal/metrics"
	"github.com/hyperjump/recall/internal/models"
	"github.com/hyperjump/recall/internal/storage"
	"github.com/hyperjump/recall/internal/vector"
)

// Fixed scores for strategies that do not produce a similarity.
const (
	ScoreDate         = 1.0
	ScoreKeywordEmbed = 0.9
	ScoreKeyword      = 0.7
)

// Retrieval holds each strategy's candidates, indexed by Source.
// A strategy that did not run or failed leaves its slot empty.
type Retrieval [models.NumSources][]*models.Candidate

// Total returns the number of candidates across all sources, duplicates included.
func (r *Retrieval) Total() int {
	n := 0
	for _, slot := range r {
		n += len(slot)
	}
	return n
}

// Retriever runs the retrieval strategies for one query.
type Retriever struct {
	store   storage.ReminderStore
	vectors vector.Index
	content keyword.ContentIndex
	cfg     config.SearchConfig
	logger  *zap.Logger
	metrics metrics.Observer
}

// NewRetriever creates a Retriever. A nil logger or observer disables that output.
func NewRetriever(store storage.ReminderStore, vectors vector.Index, content keyword.ContentIndex, cfg config.SearchConfig, logger *zap.Logger, observer metrics.Observer) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = metrics.Nop()
	}
	return &Retriever{store: store, vectors: vectors, content: content, cfg: cfg, logger: logger, metrics: observer}
}

type strategyFunc func(ctx context.Context) ([]*models.Candidate, error)

// Retrieve runs vector and keyword search always, and date and keyword_embed
// search when rng is resolved. Strategies run concurrently, each under its own
// timeout; a failure leaves that strategy's slot empty.
func (r *Retriever) Retrieve(ctx context.Context, userID, query string, rng models.TemporalRange, queryVector []float32) *Retrieval {
	strategies := map[models.Source]strategyFunc{
		models.SourceVector: func(ctx context.Context) ([]*models.Candidate, error) {
			return r.searchVector(ctx, userID, queryVector)
		},
		models.SourceKeyword: func(ctx context.Context) ([]*models.Candidate, error) {
			return r.searchKeyword(ctx, userID, query)
		},
	}
	if rng.Resolved() {
		strategies[models.SourceDate] = func(ctx context.Context) ([]*models.Candidate, error) {
			return r.searchDate(ctx, userID, rng)
		}
		strategies[models.SourceKeywordEmbed] = func(ctx context.Context) ([]*models.Candidate, error) {
			return r.searchKeywordEmbed(ctx, userID, rng)
		}
	}

	var (
		out Retrieval
		wg  sync.WaitGroup
	)
	for source, fn := range strategies {
		wg.Add(1)
		go func(source models.Source, fn strategyFunc) {
			defer wg.Done()
			out[source] = r.run(ctx, source, fn)
		}(source, fn)
	}
	wg.Wait()
	return &out
}

type strategyResult struct {
	candidates []*models.Candidate
	err        error
}

// run executes fn under the strategy timeout and converts failure into an empty result.
func (r *Retriever) run(ctx context.Context, source models.Source, fn strategyFunc) []*models.Candidate {
	timeout := r.cfg.StrategyTimeout
	if timeout <= 0 {
		timeout = config.DefaultStrategyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan strategyResult, 1)
	go func() {
		c, err := fn(ctx)
		done <- strategyResult{candidates: c, err: err}
	}()

	var res strategyResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = strategyResult{err: ctx.Err()}
	}
	elapsed := time.Since(start)
	r.metrics.RecordStrategy(source.String(), elapsed, len(res.candidates), res.err)

	if res.err != nil {
		err := apperr.New(apperr.PartialRetrieval, "retrieve."+source.String(), res.err)
		r.logger.Warn("retrieval strategy failed",
			zap.String("strategy", source.String()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil
	}
	return res.candidates
}

func (r *Retriever) searchVector(ctx context.Context, userID string, queryVector []float32) ([]*models.Candidate, error) {
	hits, err := r.vectors.Search(ctx, userID, queryVector, r.cfg.VectorThreshold, r.cfg.VectorLimit)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Candidate, len(hits))
	for i, h := range hits {
		out[i] = &models.Candidate{ID: h.ID, Source: models.SourceVector, Score: h.Score}
	}
	return out, nil
}

func (r *Retriever) searchKeyword(ctx context.Context, userID, query string) ([]*models.Candidate, error) {
	terms := SignificantTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	reminders, err := r.store.SearchTitle(ctx, userID, terms, r.cfg.KeywordLimit)
	if err != nil {
		return nil, err
	}
	return candidatesFrom(reminders, models.SourceKeyword, ScoreKeyword), nil
}

func (r *Retriever) searchDate(ctx context.Context, userID string, rng models.TemporalRange) ([]*models.Candidate, error) {
	var (
		reminders []*models.Reminder
		err       error
	)
	if rng.IsRange && rng.EndDate != "" && rng.EndDate != rng.StartDate {
		reminders, err = r.store.RemindersInRange(ctx, userID, rng.StartDate, rng.EndDate)
	} else {
		reminders, err = r.store.RemindersOnDate(ctx, userID, rng.StartDate)
	}
	if err != nil {
		return nil, err
	}
	return candidatesFrom(reminders, models.SourceDate, ScoreDate), nil
}

// searchKeywordEmbed matches the resolved start date as a phrase in the embedded content.
func (r *Retriever) searchKeywordEmbed(ctx context.Context, userID string, rng models.TemporalRange) ([]*models.Candidate, error) {
	hits, err := r.content.SearchPhrase(ctx, userID, rng.StartDate, r.cfg.ContentLimit)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Candidate, len(hits))
	for i, h := range hits {
		out[i] = &models.Candidate{ID: h.ID, Source: models.SourceKeywordEmbed, Score: ScoreKeywordEmbed}
	}
	return out, nil
}

func candidatesFrom(reminders []*models.Reminder, source models.Source, score float64) []*models.Candidate {
	out := make([]*models.Candidate, len(reminders))
	for i, rem := range reminders {
		out[i] = models.CandidateFromReminder(rem, source, score)
	}
	return out
}
