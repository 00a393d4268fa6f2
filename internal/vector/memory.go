package vector

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/recall/internal/models"
)

// MemoryIndex is an in-memory vector index using brute-force cosine search.
// Suitable for tests and single-node deployments with modest reminder counts.
type MemoryIndex struct {
	dimensions int
	users      map[string]map[models.ReminderID][]float32
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		users:      make(map[string]map[models.ReminderID][]float32),
	}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Add stores vectors under userID, replacing existing entries with the same ID.
func (m *MemoryIndex) Add(ctx context.Context, userID string, ids []models.ReminderID, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	for _, v := range vectors {
		if len(v) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(v), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	part := m.users[userID]
	if part == nil {
		part = make(map[models.ReminderID][]float32)
		m.users[userID] = part
	}
	for i, id := range ids {
		vec := make([]float32, m.dimensions)
		copy(vec, vectors[i])
		part[id] = vec
	}
	return nil
}

// Search scores every vector owned by userID against query.
func (m *MemoryIndex) Search(ctx context.Context, userID string, query []float32, threshold float64, k int) ([]*Result, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	part := m.users[userID]
	hits := make([]*Result, 0, len(part))
	for id, vec := range part {
		hits = append(hits, &Result{ID: id, Score: CosineSimilarity(query, vec)})
	}
	return topK(hits, threshold, k), nil
}

// Remove deletes the user's vectors by ID. Unknown IDs are ignored.
func (m *MemoryIndex) Remove(ctx context.Context, userID string, ids []models.ReminderID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	part := m.users[userID]
	for _, id := range ids {
		delete(part, id)
	}
	if len(part) == 0 {
		delete(m.users, userID)
	}
	return nil
}

// Size returns the number of vectors in the index across all users.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, part := range m.users {
		n += len(part)
	}
	return n
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
