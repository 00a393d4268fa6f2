// Package keyword provides a full-text index over reminder content.
package keyword

import (
	"context"

	"github.com/hyperjump/recall/internal/models"
)

// ContentIndex indexes the text a reminder is embedded under and matches
// literal phrases against it, scoped to one user.
type ContentIndex interface {
	Index(ctx context.Context, r *models.Reminder) error
	// SearchPhrase returns reminders whose content contains phrase as adjacent terms.
	SearchPhrase(ctx context.Context, userID, phrase string, limit int) ([]*Result, error)
	Delete(ctx context.Context, id models.ReminderID) error
	DocCount() (uint64, error)
	Close() error
}

// Result is a single content search hit.
type Result struct {
	ID    models.ReminderID
	Score float64
}
