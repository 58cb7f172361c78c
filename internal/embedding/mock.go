package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"sync"
)

// MockEmbedder provides a deterministic hash-based embedder for testing and
// for running without any embedding backend. Identical text always produces
// the identical unit vector.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder creates a mock embedder producing vectors of the given
// length (DefaultEmbeddingDimensions when zero).
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 768
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed creates a deterministic embedding from the text hash.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float64, m.dimensions)
	var norm float64
	for i := range embedding {
		// Linear congruential generator seeded from the hash
		seed = seed*6364136223846793005 + 1442695040888963407
		value := float64(int64(seed)) / float64(math.MaxInt64)
		embedding[i] = value
		norm += value * value
	}

	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range embedding {
			embedding[i] /= norm
		}
	}

	return embedding, nil
}

// Dimensions returns the embedding size.
func (m *MockEmbedder) Dimensions() int {
	return m.dimensions
}

// MockVectorIndex provides an in-memory VectorIndex for testing, ranking
// by cosine similarity.
type MockVectorIndex struct {
	mu      sync.RWMutex
	vectors map[string]map[string][]float64 // userID -> entryID -> vector
}

// NewMockVectorIndex creates an empty in-memory vector index.
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{
		vectors: make(map[string]map[string][]float64),
	}
}

// Index stores the vector in memory.
func (m *MockVectorIndex) Index(_ context.Context, id, userID string, vector []float64, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.vectors[userID] == nil {
		m.vectors[userID] = make(map[string][]float64)
	}
	stored := make([]float64, len(vector))
	copy(stored, vector)
	m.vectors[userID][id] = stored
	return nil
}

// Search returns the stored entries ranked by cosine similarity.
func (m *MockVectorIndex) Search(_ context.Context, userID string, vector []float64, limit int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.vectors[userID]))
	for id, stored := range m.vectors[userID] {
		matches = append(matches, Match{ID: id, Score: cosineSimilarity(vector, stored)})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// DeleteUser removes all vectors for a user.
func (m *MockVectorIndex) DeleteUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, userID)
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths and zero vectors score zero.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
