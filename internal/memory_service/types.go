// Package memory_service provides the per-user memory, feedback and
// preference store backing the agent's content decisions.
package memory_service //nolint:revive // var-naming: using underscores for domain clarity

import (
	"time"
)

// DefaultEmbeddingDimensions is the embedding vector length used when no
// embedder is configured or the embedder is unreachable.
const DefaultEmbeddingDimensions = 768

// MemoryType categorises a memory entry.
type MemoryType string

const (
	// MemoryTypeConversation is a recorded conversation turn.
	MemoryTypeConversation MemoryType = "conversation"
	// MemoryTypePreference is a recorded user preference statement.
	MemoryTypePreference MemoryType = "preference"
	// MemoryTypeAction is a recorded agent action.
	MemoryTypeAction MemoryType = "action"
	// MemoryTypeFeedback is a learning derived from action feedback.
	MemoryTypeFeedback MemoryType = "feedback"
)

// MemoryEntry is a single stored unit of user-associated text.
// Entries are immutable after storage except for the embedding, which is
// populated lazily when absent.
type MemoryEntry struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Type      MemoryType        `json:"type"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp int64             `json:"timestamp"` // epoch millis
	Embedding []float64         `json:"embedding,omitempty"`
}

// FeedbackOutcome tags the result of an agent action.
type FeedbackOutcome string

const (
	// OutcomeSuccess marks an action that achieved its goal.
	OutcomeSuccess FeedbackOutcome = "success"
	// OutcomeFailure marks an action that did not.
	OutcomeFailure FeedbackOutcome = "failure"
	// OutcomePartial marks a mixed result.
	OutcomePartial FeedbackOutcome = "partial"
)

// FeedbackMetrics holds optional numeric outcome measurements.
// Pointer fields distinguish "not measured" from zero.
type FeedbackMetrics struct {
	Engagement  *float64 `json:"engagement,omitempty"`
	Clicks      *int     `json:"clicks,omitempty"`
	Impressions *int     `json:"impressions,omitempty"`
	Sentiment   *float64 `json:"sentiment,omitempty"`
}

// FeedbackEntry records the outcome of a single agent action.
type FeedbackEntry struct {
	ActionID  string          `json:"action_id"`
	UserID    string          `json:"user_id"`
	Outcome   FeedbackOutcome `json:"outcome"`
	Metrics   FeedbackMetrics `json:"metrics"`
	Learnings []string        `json:"learnings,omitempty"`
	Timestamp int64           `json:"timestamp"` // epoch millis
}

// UserPreferences is the per-user configuration record. Updates are wholesale
// overwrites; there are no partial-field update semantics.
type UserPreferences struct {
	UserID          string              `json:"user_id"`
	WritingStyle    []string            `json:"writing_style,omitempty"`
	PostingSchedule map[string][]string `json:"posting_schedule,omitempty"` // platform -> schedule hints
	ContentTopics   []string            `json:"content_topics,omitempty"`
	AvoidTopics     []string            `json:"avoid_topics,omitempty"`
	Tone            string              `json:"tone,omitempty"`
	HashtagStrategy string              `json:"hashtag_strategy,omitempty"`
	EngagementGoals map[string]float64  `json:"engagement_goals,omitempty"`
}

// EngagementGoalOverall is the engagement goal key auto-adjusted from feedback.
const EngagementGoalOverall = "overall"

// StoreOutcome distinguishes a fully searchable store from a degraded one.
type StoreOutcome string

const (
	// StoreOutcomeIndexed means the entry is persisted and searchable.
	StoreOutcomeIndexed StoreOutcome = "indexed"
	// StoreOutcomeDegraded means the entry is persisted but will not appear
	// in semantic search results (embedding generation or indexing failed).
	StoreOutcomeDegraded StoreOutcome = "degraded"
)

// StoreResult reports the stored entry (with any generated ID, timestamp and
// embedding filled in) and whether it is searchable.
type StoreResult struct {
	Entry   MemoryEntry
	Outcome StoreOutcome
}

// Degraded reports whether the entry is unsearchable.
func (r StoreResult) Degraded() bool {
	return r.Outcome == StoreOutcomeDegraded
}

// ClearResult reports the outcome of a user data erasure request.
// The in-process cache is always cleared; DurableDeleted is false when any
// remote deletion failed and the durable copy may still exist.
type ClearResult struct {
	DurableDeleted bool
	Err            error
}

// memoryDocument is the persisted form of a user's memory list.
type memoryDocument struct {
	UserID    string        `json:"user_id"`
	UpdatedAt time.Time     `json:"updated_at"`
	Entries   []MemoryEntry `json:"entries"`
}

// feedbackDocument is the persisted form of a user's feedback list.
type feedbackDocument struct {
	UserID    string          `json:"user_id"`
	UpdatedAt time.Time       `json:"updated_at"`
	Entries   []FeedbackEntry `json:"entries"`
}
