// Package indexer keeps the reminder store, vector index and content index in step.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/recall/internal/apperr"
	"github.com/hyperjump/recall/internal/embedding"
	"github.com/hyperjump/recall/internal/keyword"
	"github.com/hyperjump/recall/internal/models"
	"github.com/hyperjump/recall/internal/storage"
	"github.com/hyperjump/recall/internal/vector"
)

// Indexer writes reminders to storage and both retrieval indices.
type Indexer struct {
	store    storage.ReminderStore
	embedder embedding.Embedder
	vectors  vector.Index
	content  keyword.ContentIndex
	logger   *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (reminder indexed, reminder deleted).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(
	store storage.ReminderStore,
	embedder embedding.Embedder,
	vectors vector.Index,
	content keyword.ContentIndex,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		store:    store,
		embedder: embedder,
		vectors:  vectors,
		content:  content,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexReminder validates input, stores the reminder (creating or replacing it),
// embeds its content text, and indexes it for vector and phrase search.
// A missing ID is generated.
func (idx *Indexer) IndexReminder(ctx context.Context, input *models.ReminderInput) (*models.Reminder, error) {
	if input.UserID == "" {
		return nil, apperr.Validationf("userId is required")
	}
	input.Title = Preprocess(input.Title)
	if err := input.Validate(); err != nil {
		return nil, apperr.New(apperr.Validation, "indexer.validate", err)
	}
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	r := &models.Reminder{
		ID:         models.ReminderID(input.ID),
		UserID:     input.UserID,
		Title:      input.Title,
		Date:       input.Date,
		Time:       input.Time,
		Completed:  input.Completed,
		TagID:      input.TagID,
		PriorityID: input.PriorityID,
	}

	existing, err := idx.store.GetReminder(ctx, r.UserID, r.ID)
	switch {
	case err == nil:
		r.CreatedAt = existing.CreatedAt
		if err := idx.store.UpdateReminder(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to update reminder: %w", err)
		}
	case errors.Is(err, storage.ErrNotFound):
		if err := idx.store.CreateReminder(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to store reminder: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to look up reminder: %w", err)
	}

	vec, err := idx.embedder.Embed(ctx, r.EmbeddingText())
	if err != nil {
		return nil, apperr.New(apperr.Upstream, "indexer.embed", fmt.Errorf("failed to generate embedding: %w", err))
	}
	if err := idx.vectors.Add(ctx, r.UserID, []models.ReminderID{r.ID}, [][]float32{vec}); err != nil {
		return nil, fmt.Errorf("failed to index vector: %w", err)
	}
	if err := idx.content.Index(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to index content: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer reminder indexed",
			zap.String("id", string(r.ID)),
			zap.String("user_id", r.UserID))
	}
	return r, nil
}

// Reindex rebuilds the vector and content entries for every reminder the user
// owns. It returns the number of reminders reindexed.
func (idx *Indexer) Reindex(ctx context.Context, userID string) (int, error) {
	const pageSize = 100
	n := 0
	for offset := 0; ; offset += pageSize {
		page, err := idx.store.ListReminders(ctx, userID, offset, pageSize)
		if err != nil {
			return n, fmt.Errorf("failed to list reminders: %w", err)
		}
		if len(page) == 0 {
			return n, nil
		}
		texts := make([]string, len(page))
		ids := make([]models.ReminderID, len(page))
		for i, r := range page {
			texts[i] = r.EmbeddingText()
			ids[i] = r.ID
		}
		vecs, err := idx.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return n, apperr.New(apperr.Upstream, "indexer.embed", fmt.Errorf("failed to generate embeddings: %w", err))
		}
		if err := idx.vectors.Add(ctx, userID, ids, vecs); err != nil {
			return n, fmt.Errorf("failed to index vectors: %w", err)
		}
		for _, r := range page {
			if err := idx.content.Index(ctx, r); err != nil {
				return n, fmt.Errorf("failed to index content: %w", err)
			}
		}
		n += len(page)
		if len(page) < pageSize {
			return n, nil
		}
	}
}

// DeleteReminder removes a reminder from both indices and storage.
func (idx *Indexer) DeleteReminder(ctx context.Context, userID string, id models.ReminderID) error {
	if idx.logger != nil {
		idx.logger.Debug("indexer deleting reminder", zap.String("id", string(id)))
	}
	if _, err := idx.store.GetReminder(ctx, userID, id); err != nil {
		return err
	}
	if err := idx.content.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from content index: %w", err)
	}
	if err := idx.vectors.Remove(ctx, userID, []models.ReminderID{id}); err != nil {
		return fmt.Errorf("failed to delete from vector index: %w", err)
	}
	if err := idx.store.DeleteReminder(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer reminder deleted", zap.String("id", string(id)))
	}
	return nil
}
