package memory_service //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/lewisedginton/agent_memory_service/internal/embedding"
	"github.com/lewisedginton/agent_memory_service/internal/storage_manager"
	"github.com/lewisedginton/agent_memory_service/pkg/logger"
	"github.com/lewisedginton/agent_memory_service/pkg/prefixed_uuid"
)

// Service implements the memory, feedback and preference store. It keeps a
// process-local cache per user, mirrors every write to durable storage as a
// whole-list JSON document, and delegates semantic search to a vector index.
//
// Per-user mutexes serialise read-modify-write cycles against the durable
// store, so two concurrent writes for the same user cannot drop each other's
// appends. Writers for different users do not contend.
type Service struct {
	fileProvider storage_manager.FileProvider
	embedder     embedding.Embedder
	index        embedding.VectorIndex

	memories    map[string][]MemoryEntry
	feedback    map[string][]FeedbackEntry
	preferences map[string]*UserPreferences
	cacheMux    sync.RWMutex

	userLocks   map[string]*sync.Mutex // Per-user locks
	userLockMux sync.Mutex

	log logger.Logger
}

// Config holds configuration for the memory service.
type Config struct {
	FileProvider storage_manager.FileProvider
	Embedder     embedding.Embedder
	VectorIndex  embedding.VectorIndex
	Logger       logger.Logger
}

// New creates a new memory service with the given configuration.
func New(cfg Config) *Service {
	if cfg.FileProvider == nil {
		panic("file provider cannot be nil")
	}
	if cfg.Embedder == nil {
		panic("embedder cannot be nil")
	}
	if cfg.VectorIndex == nil {
		panic("vector index cannot be nil")
	}
	if cfg.Logger == nil {
		panic("logger cannot be nil")
	}

	return &Service{
		fileProvider: cfg.FileProvider,
		embedder:     cfg.Embedder,
		index:        cfg.VectorIndex,
		memories:     make(map[string][]MemoryEntry),
		feedback:     make(map[string][]FeedbackEntry),
		preferences:  make(map[string]*UserPreferences),
		userLocks:    make(map[string]*sync.Mutex),
		log:          cfg.Logger,
	}
}

// StoreMemory stores a memory entry for a user. A missing ID is generated,
// a missing timestamp defaults to now, and a missing embedding is requested
// from the embedder. Persistence failures are returned to the caller; a failed
// embedding or indexing step degrades the entry (stored but unsearchable) and
// is reported through the StoreResult rather than an error.
func (s *Service) StoreMemory(ctx context.Context, entry MemoryEntry) (StoreResult, error) {
	if entry.UserID == "" {
		return StoreResult{}, fmt.Errorf("user ID is required")
	}
	if entry.Content == "" {
		return StoreResult{}, fmt.Errorf("content is required")
	}
	if entry.ID == "" {
		entry.ID = prefixed_uuid.New("mem").String()
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}

	outcome := StoreOutcomeIndexed
	if len(entry.Embedding) == 0 {
		vector, err := s.embedder.Embed(ctx, entry.Content)
		if err != nil {
			// Store anyway with a zero vector so the entry is never lost,
			// but report it as unsearchable.
			s.log.Warn("Embedding generation failed, storing zero vector",
				logger.StringField("user_id", entry.UserID),
				logger.StringField("memory_id", entry.ID),
				logger.ErrorField(err))
			vector = make([]float64, s.dimensions())
			outcome = StoreOutcomeDegraded
		}
		entry.Embedding = vector
	}

	userLock := s.getUserLock(entry.UserID)
	userLock.Lock()

	s.cacheMux.Lock()
	s.memories[entry.UserID] = append(s.memories[entry.UserID], entry)
	entries := cloneEntries(s.memories[entry.UserID])
	s.cacheMux.Unlock()

	err := s.writeJSON(ctx, memoriesPath(entry.UserID), memoryDocument{
		UserID:    entry.UserID,
		UpdatedAt: time.Now(),
		Entries:   entries,
	})
	userLock.Unlock()
	if err != nil {
		return StoreResult{}, fmt.Errorf("failed to persist memories for user %s: %w", entry.UserID, err)
	}

	if outcome == StoreOutcomeIndexed {
		metadata := map[string]string{"type": string(entry.Type)}
		if err := s.index.Index(ctx, entry.ID, entry.UserID, entry.Embedding, metadata); err != nil {
			s.log.Warn("Failed to index memory embedding",
				logger.StringField("user_id", entry.UserID),
				logger.StringField("memory_id", entry.ID),
				logger.ErrorField(err))
			outcome = StoreOutcomeDegraded
		}
	}

	s.log.Debug("Stored memory entry",
		logger.StringField("user_id", entry.UserID),
		logger.StringField("memory_id", entry.ID),
		logger.StringField("type", string(entry.Type)),
		logger.StringField("outcome", string(outcome)))

	return StoreResult{Entry: entry, Outcome: outcome}, nil
}

// RetrieveMemories returns up to limit entries most similar to the query,
// in the similarity order the index reports. Results never cross users.
// Backend failures degrade to an empty result rather than an error, and
// entries this process has never seen are silently dropped.
func (s *Service) RetrieveMemories(ctx context.Context, userID, query string, limit int) []MemoryEntry {
	if limit <= 0 {
		limit = 10
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.log.Warn("Failed to embed retrieval query",
			logger.StringField("user_id", userID),
			logger.ErrorField(err))
		return []MemoryEntry{}
	}

	matches, err := s.index.Search(ctx, userID, vector, limit)
	if err != nil {
		s.log.Warn("Vector search failed",
			logger.StringField("user_id", userID),
			logger.ErrorField(err))
		return []MemoryEntry{}
	}

	s.cacheMux.RLock()
	defer s.cacheMux.RUnlock()

	byID := make(map[string]MemoryEntry, len(s.memories[userID]))
	for _, entry := range s.memories[userID] {
		byID[entry.ID] = entry
	}

	results := make([]MemoryEntry, 0, len(matches))
	for _, match := range matches {
		if entry, ok := byID[match.ID]; ok {
			results = append(results, entry)
		}
	}

	s.log.Debug("Memory retrieval completed",
		logger.StringField("user_id", userID),
		logger.IntField("matches", len(matches)),
		logger.IntField("results", len(results)))

	return results
}

// GetConversationHistory returns the last limit conversation entries for a
// user in insertion order. Only entries stored by this process instance are
// visible; a cold process returns an empty history.
func (s *Service) GetConversationHistory(_ context.Context, userID string, limit int) []MemoryEntry {
	if limit <= 0 {
		limit = 10
	}

	s.cacheMux.RLock()
	defer s.cacheMux.RUnlock()

	var conversations []MemoryEntry
	for _, entry := range s.memories[userID] {
		if entry.Type == MemoryTypeConversation {
			conversations = append(conversations, entry)
		}
	}

	if len(conversations) > limit {
		conversations = conversations[len(conversations)-limit:]
	}

	result := make([]MemoryEntry, len(conversations))
	copy(result, conversations)
	return result
}

// ClearUserData removes all memories, feedback and preferences for a user.
// The cache-level clear always succeeds and guarantees subsequent reads in
// this process return nothing. Remote deletions are best-effort; the result
// reports whether the durable copy was actually erased so callers handling
// a data-erasure request can tell the difference.
func (s *Service) ClearUserData(ctx context.Context, userID string) ClearResult {
	userLock := s.getUserLock(userID)
	userLock.Lock()
	defer userLock.Unlock()

	s.cacheMux.Lock()
	// Tombstone rather than delete so the durable fallback in
	// GetUserPreferences cannot resurrect cleared data.
	s.memories[userID] = []MemoryEntry{}
	s.feedback[userID] = []FeedbackEntry{}
	s.preferences[userID] = nil
	s.cacheMux.Unlock()

	var result error
	for _, path := range []string{memoriesPath(userID), feedbackPath(userID), preferencesPath(userID)} {
		if err := s.fileProvider.Delete(ctx, path); err != nil {
			result = multierror.Append(result, fmt.Errorf("delete %s: %w", path, err))
		}
	}
	if err := s.index.DeleteUser(ctx, userID); err != nil {
		result = multierror.Append(result, fmt.Errorf("delete vector index entries: %w", err))
	}

	if result != nil {
		s.log.Warn("Durable deletion incomplete for user data clear",
			logger.StringField("user_id", userID),
			logger.ErrorField(result))
		return ClearResult{DurableDeleted: false, Err: result}
	}

	s.log.Info("Cleared user data",
		logger.StringField("user_id", userID))
	return ClearResult{DurableDeleted: true}
}

// getUserLock returns a user-specific lock, creating it if necessary.
func (s *Service) getUserLock(userID string) *sync.Mutex {
	s.userLockMux.Lock()
	defer s.userLockMux.Unlock()

	if lock, exists := s.userLocks[userID]; exists {
		return lock
	}

	lock := &sync.Mutex{}
	s.userLocks[userID] = lock
	return lock
}

// dimensions returns the embedding length used for zero-vector fallbacks.
func (s *Service) dimensions() int {
	if d := s.embedder.Dimensions(); d > 0 {
		return d
	}
	return DefaultEmbeddingDimensions
}

// memoriesPath returns the storage path for a user's memory list.
func memoriesPath(userID string) string {
	return fmt.Sprintf("%s/memories.json", userID)
}

// feedbackPath returns the storage path for a user's feedback list.
func feedbackPath(userID string) string {
	return fmt.Sprintf("%s/feedback.json", userID)
}

// preferencesPath returns the storage path for a user's preferences.
func preferencesPath(userID string) string {
	return fmt.Sprintf("%s/preferences.json", userID)
}

// writeJSON writes data as JSON to the file provider.
func (s *Service) writeJSON(ctx context.Context, path string, data any) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return s.fileProvider.Write(ctx, path, jsonData)
}

func cloneEntries(entries []MemoryEntry) []MemoryEntry {
	cloned := make([]MemoryEntry, len(entries))
	copy(cloned, entries)
	return cloned
}
