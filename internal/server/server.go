// Package server provides the HTTP API for Recall.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/recall/internal/config"
	"github.com/hyperjump/recall/internal/indexer"
	"github.com/hyperjump/recall/internal/keyword"
	"github.com/hyperjump/recall/internal/metrics"
	"github.com/hyperjump/recall/internal/search"
	"github.com/hyperjump/recall/internal/storage"
	"github.com/hyperjump/recall/internal/vector"
)

// Server is the HTTP server for the Recall API.
type Server struct {
	engine   *search.Engine
	indexer  *indexer.Indexer
	store    storage.ReminderStore
	vectors  vector.Index
	content  keyword.ContentIndex
	config   *config.Config
	logger   *zap.Logger
	metrics  metrics.Observer
	gatherer prometheus.Gatherer
	auth     *authenticator
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics on o and serves g at /metrics.
func WithMetrics(o metrics.Observer, g prometheus.Gatherer) Option {
	return func(s *Server) {
		if o != nil {
			s.metrics = o
		}
		s.gatherer = g
	}
}

// WithIndexStats reports the sizes of the retrieval indices on /api/v1/status.
func WithIndexStats(vectors vector.Index, content keyword.ContentIndex) Option {
	return func(s *Server) {
		s.vectors = vectors
		s.content = content
	}
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	store storage.ReminderStore,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		indexer: idx,
		store:   store,
		config:  cfg,
		logger:  logger,
		metrics: metrics.Nop(),
		auth:    newAuthenticator(cfg.Auth),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(corsMiddleware(s.config.Server.AllowedOrigins))
	r.Use(s.recordRequest)

	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		timeout := s.config.Server.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		r.Use(requestTimeout(timeout))

		r.Get("/status", s.handleStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.middleware)
			r.Post("/search", s.handleSearch)
			r.Post("/reminders", s.handleIndexReminder)
			r.Get("/reminders/{id}", s.handleGetReminder)
			r.Delete("/reminders/{id}", s.handleDeleteReminder)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
