package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hyperjump/recall/internal/answer"
	"github.com/hyperjump/recall/internal/config"
	"github.com/hyperjump/recall/internal/embedding"
	"github.com/hyperjump/recall/internal/generate"
	"github.com/hyperjump/recall/internal/indexer"
	"github.com/hyperjump/recall/internal/keyword"
	"github.com/hyperjump/recall/internal/metrics"
	"github.com/hyperjump/recall/internal/search"
	"github.com/hyperjump/recall/internal/storage"
	"github.com/hyperjump/recall/internal/temporal"
	"github.com/hyperjump/recall/internal/vector"
)

// Components holds every long-lived dependency of the engine.
type Components struct {
	Config    *config.Config
	Storage   *storage.SQLiteStorage
	Embedder  embedding.Embedder
	Generator generate.Generator
	Vectors   vector.Index
	Content   *keyword.BleveIndex
	Engine    *search.Engine
	Indexer   *indexer.Indexer
	Metrics   metrics.Observer
	Registry  *prometheus.Registry
	logger    *zap.Logger
}

// memoryIndexFile is where the memory vector index is saved between runs.
func memoryIndexFile(cfg *config.Config) string {
	if cfg.Storage.VectorIndexPath == "" {
		return ""
	}
	return filepath.Join(cfg.Storage.VectorIndexPath, "memory.idx")
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	c := &Components{Config: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Storage = store

	c.Embedder, err = embedding.New(ctx, cfg.Embedding)
	if err != nil {
		if cfg.Embedding.Provider != "onnx" {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		// The ONNX runtime or model may be absent on this machine.
		logger.Warn("onnx embedder unavailable, falling back to mock", zap.Error(err))
		c.Embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}

	c.Generator, err = generate.New(ctx, cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	if cfg.Generation.Provider == "mock" {
		logger.Warn("generation provider is mock; questions without a date get the fallback answer",
			zap.String("hint", "set generation.provider to anthropic, openai, gemini or ollama"))
	}

	c.Vectors, err = vector.NewIndex(cfg.Vector.IndexType, cfg.Storage.VectorIndexPath, cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if err := c.Vectors.Load(memoryIndexFile(cfg)); err != nil {
		logger.Warn("vector index load skipped (run remind reindex)",
			zap.String("path", memoryIndexFile(cfg)), zap.Error(err))
	}
	logger.Info("vector index initialized",
		zap.String("type", cfg.Vector.IndexType),
		zap.Int("size", c.Vectors.Size()))

	c.Content, err = keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize content index: %w", err)
	}

	c.Registry = prometheus.NewRegistry()
	c.Metrics, err = metrics.NewPrometheusObserver("recall", c.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	var resolver temporal.Resolver = temporal.NewCalendarResolver()
	if cfg.Temporal.Resolver == "model" {
		resolver = temporal.NewModelResolver(c.Generator, logger)
	}

	retriever := search.NewRetriever(store, c.Vectors, c.Content, cfg.Search, logger, c.Metrics)
	synth := answer.NewSynthesizer(c.Generator, cfg.Generation.Timeout,
		answer.WithLogger(logger),
		answer.WithMetrics(c.Metrics))
	c.Engine = search.NewEngine(resolver, c.Embedder, store, retriever, synth, cfg.Search,
		search.WithLogger(logger),
		search.WithMetrics(c.Metrics),
		search.WithLocation(cfg.Temporal.Location()))

	idxOpts := []indexer.IndexerOption{}
	if debug {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	c.Indexer = indexer.NewIndexer(store, c.Embedder, c.Vectors, c.Content, idxOpts...)

	ok = true
	return c, nil
}

// Close saves the memory vector index and releases every component.
func (c *Components) Close() {
	if c.Vectors != nil {
		if err := c.Vectors.Save(memoryIndexFile(c.Config)); err != nil && c.logger != nil {
			c.logger.Warn("vector index save failed", zap.Error(err))
		}
		_ = c.Vectors.Close()
	}
	if c.Content != nil {
		_ = c.Content.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}
