package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// LocalIndex implements VectorIndex with chromem-go, an embedded pure-Go
// vector database. Each user gets their own collection for namespace
// isolation. Useful for single-instance deployments and tests where no
// remote similarity service exists.
type LocalIndex struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

// NewLocalIndex creates a new in-process vector index.
func NewLocalIndex() *LocalIndex {
	return &LocalIndex{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}
}

// Index registers an embedding for an entry in the user's collection.
func (l *LocalIndex) Index(ctx context.Context, id, userID string, vector []float64, metadata map[string]string) error {
	col, err := l.getOrCreateCollection(userID)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        id,
		Content:   id, // chromem requires content or an embedding func; the ID suffices
		Embedding: toFloat32(vector),
		Metadata:  metadata,
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to add document to local index: %w", err)
	}
	return nil
}

// Search returns the nearest entries in the user's collection.
func (l *LocalIndex) Search(ctx context.Context, userID string, vector []float64, limit int) ([]Match, error) {
	l.mu.RLock()
	col, exists := l.collections[collectionName(userID)]
	l.mu.RUnlock()
	if !exists {
		return []Match{}, nil
	}

	// chromem rejects queries asking for more results than stored documents.
	if count := col.Count(); limit > count {
		limit = count
	}
	if limit == 0 {
		return []Match{}, nil
	}

	results, err := col.QueryEmbedding(ctx, toFloat32(vector), limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("local index query failed: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, result := range results {
		matches = append(matches, Match{
			ID:    result.ID,
			Score: float64(result.Similarity),
		})
	}
	return matches, nil
}

// DeleteUser drops the user's collection.
func (l *LocalIndex) DeleteUser(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	name := collectionName(userID)
	if _, exists := l.collections[name]; !exists {
		return nil
	}
	delete(l.collections, name)

	if err := l.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	return nil
}

// getOrCreateCollection returns the collection for a user.
func (l *LocalIndex) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	name := collectionName(userID)

	l.mu.RLock()
	col, exists := l.collections[name]
	l.mu.RUnlock()
	if exists {
		return col, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if col, exists := l.collections[name]; exists {
		return col, nil
	}

	col, err := l.db.CreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	l.collections[name] = col
	return col, nil
}

// collectionName builds a chromem-safe collection name for a user.
func collectionName(userID string) string {
	// chromem collection names reject some characters; keep it conservative.
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, userID)
	return "user_" + sanitized
}

func toFloat32(vector []float64) []float32 {
	converted := make([]float32, len(vector))
	for i, v := range vector {
		converted[i] = float32(v)
	}
	return converted
}
