package keyword

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/hyperjump/recall/internal/models"
)

// reminderDoc is the document shape stored in Bleve.
type reminderDoc struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

// BleveIndex implements ContentIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer splits "2026-01-29" into adjacent 2026/01/29 tokens, so
	// a phrase query for the same date matches without stemming interference.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("user_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("date", keywordFieldMapping)
	im.AddDocumentMapping("reminder", docMapping)
	im.DefaultType = "reminder"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex opens the index at path, creating it with the reminder
// mapping when absent. "" and ":memory:" give a memory-only index. A mapping
// change needs the index directory removed so it is rebuilt.
func NewBleveIndex(path string) (*BleveIndex, error) {
	index, err := openOrCreate(path)
	if err != nil {
		return nil, err
	}
	return &BleveIndex{index: index}, nil
}

func openOrCreate(path string) (bleve.Index, error) {
	switch {
	case path == "" || path == ":memory:":
		index, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory content index: %w", err)
		}
		return index, nil
	case exists(path):
		index, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open content index %s: %w", path, err)
		}
		return index, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create content index dir: %w", err)
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("create content index %s: %w", path, err)
	}
	return index, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Index adds or replaces the reminder's document.
func (b *BleveIndex) Index(ctx context.Context, r *models.Reminder) error {
	return b.index.Index(string(r.ID), reminderDoc{
		UserID:  r.UserID,
		Title:   r.Title,
		Content: r.EmbeddingText(),
		Date:    r.Date,
	})
}

// SearchPhrase runs a phrase query over content, restricted to userID.
func (b *BleveIndex) SearchPhrase(ctx context.Context, userID, phrase string, limit int) ([]*Result, error) {
	if phrase == "" || limit <= 0 {
		return nil, nil
	}
	owner := bleve.NewTermQuery(userID)
	owner.SetField("user_id")
	match := bleve.NewMatchPhraseQuery(phrase)
	match.SetField("content")

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(owner, match))
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("content phrase search: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: models.ReminderID(hit.ID), Score: hit.Score}
	}
	return out, nil
}

// Delete removes a reminder from the index.
func (b *BleveIndex) Delete(ctx context.Context, id models.ReminderID) error {
	return b.index.Delete(string(id))
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
