// Package storage defines the persistence interface for reminders.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/recall/internal/models"
)

// ErrNotFound is returned when a reminder does not exist for the user.
var ErrNotFound = errors.New("reminder not found")

// ReminderStore defines reminder persistence and the user-scoped lookups used by retrieval.
// Every lookup is scoped to userID; a reminder owned by another user is never returned.
type ReminderStore interface {
	// Reminder operations
	CreateReminder(ctx context.Context, r *models.Reminder) error
	GetReminder(ctx context.Context, userID string, id models.ReminderID) (*models.Reminder, error)
	UpdateReminder(ctx context.Context, r *models.Reminder) error
	DeleteReminder(ctx context.Context, userID string, id models.ReminderID) error
	ListReminders(ctx context.Context, userID string, offset, limit int) ([]*models.Reminder, error)

	// Retrieval
	SearchTitle(ctx context.Context, userID string, terms []string, limit int) ([]*models.Reminder, error)
	RemindersOnDate(ctx context.Context, userID, date string) ([]*models.Reminder, error)
	RemindersInRange(ctx context.Context, userID, start, end string) ([]*models.Reminder, error)
	GetReminders(ctx context.Context, userID string, ids []models.ReminderID) ([]*models.Reminder, error)

	// Stats
	CountReminders(ctx context.Context) (int64, error)

	Close() error
}
