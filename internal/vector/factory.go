package vector

import "fmt"

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search, persisted by Save/Load.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeChromem uses chromem-go, persisted under its own directory.
	IndexTypeChromem IndexType = "chromem"
)

// NewIndex creates a vector index of the specified type.
// Supported types: "memory" (default), "chromem". path is the chromem directory;
// it is ignored by the memory index, which the caller saves and loads explicitly.
func NewIndex(indexType, path string, dimensions int) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return NewMemoryIndex(dimensions)
	case IndexTypeChromem:
		return NewChromemIndex(path, dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, chromem)", indexType)
	}
}
