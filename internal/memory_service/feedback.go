package memory_service //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lewisedginton/agent_memory_service/pkg/logger"
	"github.com/lewisedginton/agent_memory_service/pkg/prefixed_uuid"
)

// StoreFeedback records the outcome of an agent action. The feedback list is
// persisted as a whole, the user's overall engagement goal is nudged toward
// the observed engagement, and each learning string is stored as a
// feedback-category memory entry. Unlike StoreMemory, any persistence failure
// on this path is returned to the caller.
func (s *Service) StoreFeedback(ctx context.Context, entry FeedbackEntry) error {
	if entry.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if entry.ActionID == "" {
		entry.ActionID = prefixed_uuid.New("act").String()
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}

	if err := s.appendFeedback(ctx, entry); err != nil {
		return err
	}

	if err := s.adjustEngagementGoal(ctx, entry); err != nil {
		return fmt.Errorf("failed to adjust engagement goal for user %s: %w", entry.UserID, err)
	}

	for i, learning := range entry.Learnings {
		memory := MemoryEntry{
			ID:        fmt.Sprintf("%s-learning-%d", entry.ActionID, i),
			UserID:    entry.UserID,
			Type:      MemoryTypeFeedback,
			Content:   learning,
			Metadata:  map[string]string{"action_id": entry.ActionID, "outcome": string(entry.Outcome)},
			Timestamp: entry.Timestamp,
		}
		if _, err := s.StoreMemory(ctx, memory); err != nil {
			return fmt.Errorf("failed to store learning memory: %w", err)
		}
	}

	s.log.Info("Stored feedback entry",
		logger.StringField("user_id", entry.UserID),
		logger.StringField("action_id", entry.ActionID),
		logger.StringField("outcome", string(entry.Outcome)),
		logger.IntField("learnings", len(entry.Learnings)))

	return nil
}

// appendFeedback appends to the user's feedback list and persists the whole
// list under the user lock.
func (s *Service) appendFeedback(ctx context.Context, entry FeedbackEntry) error {
	userLock := s.getUserLock(entry.UserID)
	userLock.Lock()
	defer userLock.Unlock()

	s.cacheMux.Lock()
	s.feedback[entry.UserID] = append(s.feedback[entry.UserID], entry)
	entries := make([]FeedbackEntry, len(s.feedback[entry.UserID]))
	copy(entries, s.feedback[entry.UserID])
	s.cacheMux.Unlock()

	if err := s.writeJSON(ctx, feedbackPath(entry.UserID), feedbackDocument{
		UserID:    entry.UserID,
		UpdatedAt: time.Now(),
		Entries:   entries,
	}); err != nil {
		return fmt.Errorf("failed to persist feedback for user %s: %w", entry.UserID, err)
	}

	return nil
}

// adjustEngagementGoal nudges the user's overall engagement goal toward the
// observed engagement using a running average. A user without preferences is
// left untouched. The user lock is held across the read and the write so two
// concurrent feedback entries cannot both average against the same old goal.
func (s *Service) adjustEngagementGoal(ctx context.Context, entry FeedbackEntry) error {
	if entry.Metrics.Engagement == nil {
		return nil
	}

	userLock := s.getUserLock(entry.UserID)
	userLock.Lock()
	defer userLock.Unlock()

	prefs, err := s.loadPreferences(ctx, entry.UserID)
	if err != nil {
		return err
	}
	if prefs == nil {
		s.log.Debug("No preferences to adjust from feedback",
			logger.StringField("user_id", entry.UserID))
		return nil
	}

	if prefs.EngagementGoals == nil {
		prefs.EngagementGoals = make(map[string]float64)
	}
	current := prefs.EngagementGoals[EngagementGoalOverall]
	prefs.EngagementGoals[EngagementGoalOverall] = (current + *entry.Metrics.Engagement) / 2

	return s.persistPreferences(ctx, *prefs)
}

// GetUserPreferences returns the preferences for a user, reading through to
// durable storage on a cache miss. It returns nil (not an error) for a user
// whose preferences were never set.
func (s *Service) GetUserPreferences(ctx context.Context, userID string) (*UserPreferences, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	return s.loadPreferences(ctx, userID)
}

// loadPreferences is the cache-then-durable preference lookup shared by
// GetUserPreferences and the locked feedback path. Callers that go on to
// write must hold the user lock before calling it.
func (s *Service) loadPreferences(ctx context.Context, userID string) (*UserPreferences, error) {
	s.cacheMux.RLock()
	cached, known := s.preferences[userID]
	s.cacheMux.RUnlock()
	if known {
		// A nil value is a tombstone left by ClearUserData.
		if cached == nil {
			return nil, nil
		}
		copied := *cached
		return &copied, nil
	}

	exists, err := s.fileProvider.Exists(ctx, preferencesPath(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to check preferences for user %s: %w", userID, err)
	}
	if !exists {
		return nil, nil
	}

	data, err := s.fileProvider.Read(ctx, preferencesPath(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences for user %s: %w", userID, err)
	}

	var prefs UserPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences for user %s: %w", userID, err)
	}

	s.cacheMux.Lock()
	s.preferences[userID] = &prefs
	s.cacheMux.Unlock()

	copied := prefs
	return &copied, nil
}

// UpdateUserPreferences overwrites the stored preferences for
// preferences.UserID in both the cache and durable storage. Callers must
// supply the complete structure.
func (s *Service) UpdateUserPreferences(ctx context.Context, preferences UserPreferences) error {
	if preferences.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	userLock := s.getUserLock(preferences.UserID)
	userLock.Lock()
	defer userLock.Unlock()

	return s.persistPreferences(ctx, preferences)
}

// persistPreferences writes the preferences to the cache and durable storage.
// The caller must hold the user lock.
func (s *Service) persistPreferences(ctx context.Context, preferences UserPreferences) error {
	stored := preferences
	s.cacheMux.Lock()
	s.preferences[preferences.UserID] = &stored
	s.cacheMux.Unlock()

	if err := s.writeJSON(ctx, preferencesPath(preferences.UserID), preferences); err != nil {
		return fmt.Errorf("failed to persist preferences for user %s: %w", preferences.UserID, err)
	}

	s.log.Debug("Updated user preferences",
		logger.StringField("user_id", preferences.UserID))

	return nil
}
