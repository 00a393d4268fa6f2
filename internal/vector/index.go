// Package vector provides per-user vector indices for semantic reminder search.
package vector

import (
	"context"

	"github.com/hyperjump/recall/internal/models"
)

// Index stores one embedding per reminder, partitioned by user.
// Add replaces any existing vector for the same reminder.
type Index interface {
	Add(ctx context.Context, userID string, ids []models.ReminderID, vectors [][]float32) error
	// Search returns up to k hits with similarity >= threshold, most similar first.
	Search(ctx context.Context, userID string, query []float32, threshold float64, k int) ([]*Result, error)
	Remove(ctx context.Context, userID string, ids []models.ReminderID) error
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// Result is a single vector search hit.
type Result struct {
	ID    models.ReminderID
	Score float64 // cosine similarity
}
