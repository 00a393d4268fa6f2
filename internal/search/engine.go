package search

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/recall/internal/answer"
	"github.com/hyperjump/recall/internal/apperr"
	"github.com/hyperjump/recall/internal/config"
	"github.com/hyperjump/recall/internal/embedding"
	"github.com/hyperjump/recall/internal/metrics"
	"github.com/hyperjump/recall/internal/models"
	"github.com/hyperjump/recall/internal/storage"
	"github.com/hyperjump/recall/internal/temporal"
)

// Engine answers free-text questions about a user's reminders.
type Engine struct {
	resolver    temporal.Resolver
	embedder    embedding.Embedder
	retriever   *Retriever
	store       storage.ReminderStore
	synthesizer *answer.Synthesizer
	cfg         config.SearchConfig
	location    *time.Location
	now         func() time.Time
	logger      *zap.Logger
	metrics     metrics.Observer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics observer.
func WithMetrics(o metrics.Observer) EngineOption {
	return func(e *Engine) {
		if o != nil {
			e.metrics = o
		}
	}
}

// WithLocation sets the time zone used when a request carries none.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithClock replaces time.Now, which decides what "today" is.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a search engine. store is used to hydrate fused candidates.
func NewEngine(
	resolver temporal.Resolver,
	embedder embedding.Embedder,
	store storage.ReminderStore,
	retriever *Retriever,
	synthesizer *answer.Synthesizer,
	cfg config.SearchConfig,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		resolver:    resolver,
		embedder:    embedder,
		retriever:   retriever,
		store:       store,
		synthesizer: synthesizer,
		cfg:         cfg,
		location:    time.UTC,
		now:         time.Now,
		logger:      zap.NewNop(),
		metrics:     metrics.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search resolves the query's dates, retrieves and fuses candidates, and
// synthesizes an answer. Only validation and upstream failures (temporal
// resolution or embedding) are returned as errors.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*models.AnswerPayload, error) {
	start := time.Now()
	if req == nil {
		return nil, apperr.Validationf("request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperr.New(apperr.Validation, "search", err)
	}
	if req.UserID == "" {
		return nil, apperr.Validationf("userId is required")
	}

	today := temporal.Today(e.now(), e.locationFor(req.Timezone))

	rng, queryVector, err := e.understand(ctx, req, today)
	if err != nil {
		e.logger.Error("query understanding failed",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return nil, err
	}

	retrieval := e.retriever.Retrieve(ctx, req.UserID, req.Query, rng, queryVector)
	limit := e.cfg.FusedLimit
	if limit <= 0 {
		limit = config.DefaultFusedLimit
	}
	fused := Fuse(ctx, e.store, req.UserID, retrieval, limit, e.logger)

	out := e.synthesizer.Synthesize(ctx, answer.Input{
		Query: req.Query,
		Today: today,
		Range: rng,
		Fused: fused,
	})
	payload := answer.Assemble(out, rng, fused)
	payload.QueryTime = time.Since(start).Milliseconds()

	e.logger.Debug("search answered",
		zap.String("user_id", req.UserID),
		zap.String("branch", payload.Branch),
		zap.String("range_start", rng.StartDate),
		zap.Int("retrieved", retrieval.Total()),
		zap.Int("fused", len(fused)),
		zap.Int64("query_time_ms", payload.QueryTime))
	return payload, nil
}

// understand resolves the temporal range and embeds the query concurrently.
// Either failure is fatal for the request.
func (e *Engine) understand(ctx context.Context, req *models.SearchRequest, today time.Time) (models.TemporalRange, []float32, error) {
	timeout := e.cfg.UpstreamTimeout
	if timeout <= 0 {
		timeout = config.DefaultUpstreamTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		rng         models.TemporalRange
		queryVector []float32
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if req.TargetDate != "" {
			rng, err = temporal.Explicit(req.TargetDate)
			return apperr.New(apperr.Validation, "temporal.explicit", err)
		}
		rng, err = e.resolver.Resolve(gctx, req.Query, today)
		if err != nil && apperr.KindOf(err) == apperr.Unclassified {
			return apperr.New(apperr.Upstream, "temporal.resolve", err)
		}
		return err
	})
	g.Go(func() error {
		v, err := e.embedder.Embed(gctx, req.Query)
		if err != nil {
			return apperr.New(apperr.Upstream, "embedding.embed", err)
		}
		queryVector = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.TemporalRange{}, nil, err
	}
	return rng, queryVector, nil
}

func (e *Engine) locationFor(tz string) *time.Location {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return e.location
}
