package search

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/recall/internal/models"
	"github.com/hyperjump/recall/internal/storage"
)

// FusedSet is an insertion-ordered set of candidates keyed by reminder ID.
// When two sources surface the same reminder the higher-priority one is kept.
type FusedSet struct {
	order []models.ReminderID
	byID  map[models.ReminderID]*models.Candidate
}

// NewFusedSet returns an empty set.
func NewFusedSet() *FusedSet {
	return &FusedSet{byID: make(map[models.ReminderID]*models.Candidate)}
}

// Insert adds c, or replaces an existing entry that c's source outranks.
// It reports whether c was stored.
func (f *FusedSet) Insert(c *models.Candidate) bool {
	existing, ok := f.byID[c.ID]
	if !ok {
		f.order = append(f.order, c.ID)
		f.byID[c.ID] = c
		return true
	}
	if !c.Source.Outranks(existing.Source) {
		return false
	}
	f.byID[c.ID] = c
	return true
}

// Len returns the number of distinct reminders in the set.
func (f *FusedSet) Len() int {
	return len(f.order)
}

// IDs returns the reminder IDs in insertion order.
func (f *FusedSet) IDs() []models.ReminderID {
	out := make([]models.ReminderID, len(f.order))
	copy(out, f.order)
	return out
}

// Hydrate fills every candidate's canonical fields from the store in one batch
// and drops candidates whose reminder no longer exists. On a store error the
// set is left unchanged and the error returned.
func (f *FusedSet) Hydrate(ctx context.Context, store storage.ReminderStore, userID string) error {
	if len(f.order) == 0 {
		return nil
	}
	reminders, err := store.GetReminders(ctx, userID, f.order)
	if err != nil {
		return err
	}
	found := make(map[models.ReminderID]*models.Reminder, len(reminders))
	for _, r := range reminders {
		found[r.ID] = r
	}
	kept := f.order[:0]
	for _, id := range f.order {
		r, ok := found[id]
		if !ok {
			delete(f.byID, id)
			continue
		}
		f.byID[id].Hydrate(r)
		kept = append(kept, id)
	}
	f.order = kept
	return nil
}

// Ranked returns up to limit candidates by score descending. Ties go to the
// higher-priority source, then the lower ID, so the order is deterministic.
func (f *FusedSet) Ranked(limit int) []*models.Candidate {
	out := make([]*models.Candidate, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Source != b.Source {
			return a.Source.Outranks(b.Source)
		}
		return a.ID < b.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Fuse inserts every strategy's candidates in strict source priority order,
// hydrates the survivors and returns the top limit. A hydration failure is
// logged and the unhydrated candidates are ranked as they are.
func Fuse(ctx context.Context, store storage.ReminderStore, userID string, retrieval *Retrieval, limit int, logger *zap.Logger) []*models.Candidate {
	if logger == nil {
		logger = zap.NewNop()
	}
	set := NewFusedSet()
	for _, source := range models.Sources {
		for _, c := range retrieval[source] {
			set.Insert(c)
		}
	}
	if err := set.Hydrate(ctx, store, userID); err != nil {
		logger.Warn("hydration failed, keeping partial candidates",
			zap.Int("candidates", set.Len()),
			zap.Error(err))
	}
	return set.Ranked(limit)
}
