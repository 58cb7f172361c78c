// Package embedding provides text embedding and vector similarity search
// for the memory service. Embedders convert text into fixed-length vectors;
// vector indexes store those vectors per user and answer nearest-neighbour
// queries. Both are boundary clients: the memory service treats them as
// best-effort and degrades rather than fails when they are unreachable.
package embedding

import "context"

// Embedder converts text into a fixed-length embedding vector.
type Embedder interface {
	// Embed converts a text string into a vector embedding.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimensions returns the length of vectors produced by this embedder.
	Dimensions() int
}

// Match is a single similarity search result.
type Match struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// VectorIndex stores embeddings keyed by entry ID within a per-user
// namespace and answers nearest-neighbour queries. Results never cross
// user namespaces.
type VectorIndex interface {
	// Index registers an embedding for an entry.
	Index(ctx context.Context, id, userID string, vector []float64, metadata map[string]string) error

	// Search returns up to limit entry IDs most similar to the vector,
	// best match first.
	Search(ctx context.Context, userID string, vector []float64, limit int) ([]Match, error)

	// DeleteUser removes all indexed entries for a user.
	DeleteUser(ctx context.Context, userID string) error
}
