package vector

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/hyperjump/recall/internal/models"
)

const userMetadataKey = "user_id"

// ChromemIndex stores vectors in chromem-go, one collection per user.
// With a path the database persists itself on every write; otherwise it is in-memory.
type ChromemIndex struct {
	db          *chromem.DB
	dimensions  int
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

// NewChromemIndex opens a persistent chromem database in dir, or an in-memory one when dir is empty.
func NewChromemIndex(dir string, dimensions int) (*ChromemIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	db := chromem.NewDB()
	if dir != "" {
		var err error
		db, err = chromem.NewPersistentDB(dir, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}
	return &ChromemIndex{
		db:          db,
		dimensions:  dimensions,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// Type returns the index type identifier.
func (c *ChromemIndex) Type() string {
	return string(IndexTypeChromem)
}

func collectionName(userID string) string {
	return "user_" + userID
}

func (c *ChromemIndex) collection(userID string) (*chromem.Collection, error) {
	c.mu.RLock()
	col, ok := c.collections[userID]
	c.mu.RUnlock()
	if ok {
		return col, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if col, ok := c.collections[userID]; ok {
		return col, nil
	}
	// Embeddings are always supplied, so no embedding func is needed.
	col, err := c.db.GetOrCreateCollection(collectionName(userID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	c.collections[userID] = col
	return col, nil
}

// Add upserts vectors into the user's collection.
func (c *ChromemIndex) Add(ctx context.Context, userID string, ids []models.ReminderID, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	col, err := c.collection(userID)
	if err != nil {
		return err
	}
	for i, id := range ids {
		if len(vectors[i]) != c.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), c.dimensions)
		}
		vec := make([]float32, c.dimensions)
		copy(vec, vectors[i])
		err := col.AddDocument(ctx, chromem.Document{
			ID:        string(id),
			Content:   string(id),
			Embedding: vec,
			Metadata:  map[string]string{userMetadataKey: userID},
		})
		if err != nil {
			return fmt.Errorf("add document %s: %w", id, err)
		}
	}
	return nil
}

// Search queries the user's collection.
func (c *ChromemIndex) Search(ctx context.Context, userID string, query []float32, threshold float64, k int) ([]*Result, error) {
	if len(query) != c.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), c.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}
	col, err := c.collection(userID)
	if err != nil {
		return nil, err
	}
	// chromem rejects nResults larger than the collection.
	n := k
	if count := col.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}
	results, err := col.QueryEmbedding(ctx, query, n, map[string]string{userMetadataKey: userID}, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	hits := make([]*Result, 0, len(results))
	for _, r := range results {
		hits = append(hits, &Result{ID: models.ReminderID(r.ID), Score: float64(r.Similarity)})
	}
	return topK(hits, threshold, k), nil
}

// Remove deletes the user's vectors by ID.
func (c *ChromemIndex) Remove(ctx context.Context, userID string, ids []models.ReminderID) error {
	if len(ids) == 0 {
		return nil
	}
	col, err := c.collection(userID)
	if err != nil {
		return err
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = string(id)
	}
	if err := col.Delete(ctx, nil, nil, strs...); err != nil {
		return fmt.Errorf("chromem delete: %w", err)
	}
	return nil
}

// Save is a no-op: a persistent chromem database writes through on every change.
func (c *ChromemIndex) Save(string) error {
	return nil
}

// Load is a no-op: collections are read back when the database is opened.
func (c *ChromemIndex) Load(string) error {
	return nil
}

// Size returns the number of vectors across all collections.
func (c *ChromemIndex) Size() int {
	n := 0
	for _, col := range c.db.ListCollections() {
		n += col.Count()
	}
	return n
}

// Close is a no-op; chromem holds no open handles.
func (c *ChromemIndex) Close() error {
	return nil
}
