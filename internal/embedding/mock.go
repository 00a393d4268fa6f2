package embedding

import "context"

// MockEmbedder hashes each word of a text into one bucket of a fixed-width
// vector. Texts that share words score a positive cosine similarity, and
// equal texts embed identically. Used offline and in tests.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder builds a MockEmbedder; non-positive dimensions use 384.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.bagOfWords(text), nil
}

func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, e.bagOfWords(text))
	}
	return out, nil
}

func (e *MockEmbedder) Dimensions() int { return e.dimensions }

func (e *MockEmbedder) Close() error { return nil }

// bagOfWords is unit length. A text without words maps to the first axis.
func (e *MockEmbedder) bagOfWords(text string) []float32 {
	vec := make([]float32, e.dimensions)
	words := SplitWords(text)
	for _, w := range words {
		vec[HashString(w)%e.dimensions]++
	}
	if len(words) == 0 {
		vec[0] = 1
		return vec
	}
	NormalizeL2Slice(vec)
	return vec
}
