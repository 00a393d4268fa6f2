// Package storage provides SQLite implementation of the ReminderStore interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/recall/internal/models"
)

const reminderColumns = `id, user_id, title, date, time, completed, tag_id, priority_id, created_at, updated_at`

// SQLiteStorage implements ReminderStore using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database; retrieval strategies
	// query concurrently, so pin the pool to one connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		date TEXT,
		time TEXT,
		completed INTEGER NOT NULL DEFAULT 0,
		tag_id TEXT,
		priority_id TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reminders_user ON reminders(user_id);
	CREATE INDEX IF NOT EXISTS idx_reminders_user_date ON reminders(user_id, date);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateReminder inserts a reminder.
func (s *SQLiteStorage) CreateReminder(ctx context.Context, r *models.Reminder) error {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (`+reminderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), r.UserID, r.Title, nullString(r.Date), nullString(r.Time), r.Completed,
		nullPtr(r.TagID), nullPtr(r.PriorityID), r.CreatedAt, r.UpdatedAt,
	)
	return err
}

// GetReminder returns a reminder by ID for the user.
func (s *SQLiteStorage) GetReminder(ctx context.Context, userID string, id models.ReminderID) (*models.Reminder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = ? AND id = ?`,
		userID, string(id),
	)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateReminder replaces the mutable fields of an existing reminder.
func (s *SQLiteStorage) UpdateReminder(ctx context.Context, r *models.Reminder) error {
	r.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET title = ?, date = ?, time = ?, completed = ?, tag_id = ?, priority_id = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		r.Title, nullString(r.Date), nullString(r.Time), r.Completed, nullPtr(r.TagID), nullPtr(r.PriorityID),
		r.UpdatedAt, r.UserID, string(r.ID),
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, r.ID)
	}
	return nil
}

// DeleteReminder removes a reminder by ID.
func (s *SQLiteStorage) DeleteReminder(ctx context.Context, userID string, id models.ReminderID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE user_id = ? AND id = ?`, userID, string(id))
	return err
}

// ListReminders returns a user's reminders, soonest first, with offset and limit.
func (s *SQLiteStorage) ListReminders(ctx context.Context, userID string, offset, limit int) ([]*models.Reminder, error) {
	return s.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = ?
		 ORDER BY date IS NULL, date, time IS NULL, time, created_at LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
}

// SearchTitle returns reminders whose title contains any of terms (case-insensitive).
func (s *SQLiteStorage) SearchTitle(ctx context.Context, userID string, terms []string, limit int) ([]*models.Reminder, error) {
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}
	clauses := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms)+2)
	args = append(args, userID)
	for _, term := range terms {
		clauses = append(clauses, `title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(term)+"%")
	}
	args = append(args, limit)
	return s.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = ? AND (`+strings.Join(clauses, " OR ")+`)
		 ORDER BY updated_at DESC LIMIT ?`,
		args...,
	)
}

// RemindersOnDate returns the user's non-completed reminders dated exactly date.
func (s *SQLiteStorage) RemindersOnDate(ctx context.Context, userID, date string) ([]*models.Reminder, error) {
	return s.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE user_id = ? AND date = ? AND completed = 0
		 ORDER BY time IS NULL, time, title`,
		userID, date,
	)
}

// RemindersInRange returns the user's non-completed reminders dated within [start, end].
func (s *SQLiteStorage) RemindersInRange(ctx context.Context, userID, start, end string) ([]*models.Reminder, error) {
	return s.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE user_id = ? AND date >= ? AND date <= ? AND completed = 0
		 ORDER BY date, time IS NULL, time, title`,
		userID, start, end,
	)
}

// GetReminders batch-fetches the user's reminders by ID. Unknown IDs are skipped.
func (s *SQLiteStorage) GetReminders(ctx context.Context, userID string, ids []models.ReminderID) ([]*models.Reminder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, string(id))
	}
	return s.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = ? AND id IN (`+placeholders+`)`,
		args...,
	)
}

// CountReminders returns the total number of reminders.
func (s *SQLiteStorage) CountReminders(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reminders`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) query(ctx context.Context, q string, args ...any) ([]*models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReminder(row scanner) (*models.Reminder, error) {
	var (
		r                              models.Reminder
		id                             string
		date, clock, tagID, priorityID sql.NullString
	)
	if err := row.Scan(&id, &r.UserID, &r.Title, &date, &clock, &r.Completed, &tagID, &priorityID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ID = models.ReminderID(id)
	r.Date = date.String
	r.Time = clock.String
	if tagID.Valid {
		r.TagID = &tagID.String
	}
	if priorityID.Valid {
		r.PriorityID = &priorityID.String
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
