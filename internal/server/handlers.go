package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lewisedginton/agent_memory_service/internal/memory_service"
	"github.com/lewisedginton/agent_memory_service/pkg/logger"
	"github.com/lewisedginton/agent_memory_service/pkg/metrics"
)

// registerRoutes mounts the REST API onto the router
func (s *Server) registerRoutes(router chi.Router) {
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/memories", s.handleStoreMemory)
		r.Post("/feedback", s.handleStoreFeedback)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/memories", s.handleRetrieveMemories)
			r.Get("/conversation", s.handleConversationHistory)
			r.Get("/insights", s.handleInsights)
			r.Get("/preferences", s.handleGetPreferences)
			r.Put("/preferences", s.handleUpdatePreferences)
			r.Delete("/", s.handleClearUserData)
		})
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

// storeMemoryResponse reports the stored entry and whether it is searchable.
type storeMemoryResponse struct {
	Entry   memory_service.MemoryEntry  `json:"entry"`
	Outcome memory_service.StoreOutcome `json:"outcome"`
}

// insightsResponse pairs the derived statistics with their presentation form.
type insightsResponse struct {
	Stats     *memory_service.FeedbackStats `json:"stats"`
	Summaries []string                      `json:"summaries"`
}

// clearUserDataResponse reports whether the durable copies were removed.
type clearUserDataResponse struct {
	DurableDeleted bool   `json:"durable_deleted"`
	Error          string `json:"error,omitempty"`
}

// handleStoreMemory handles POST /api/v1/memories
func (s *Server) handleStoreMemory(w http.ResponseWriter, r *http.Request) {
	var entry memory_service.MemoryEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if entry.UserID == "" || entry.Content == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and content are required")
		return
	}

	result, err := s.memoryService.StoreMemory(r.Context(), entry)
	if err != nil {
		s.log.Error("Failed to store memory", logger.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "failed to store memory")
		return
	}

	s.metrics.IncrementOpMetric(metrics.OpMetricMemoriesStored)
	if result.Degraded() {
		s.metrics.IncrementOpMetric(metrics.OpMetricMemoriesDegraded)
	}

	s.writeJSON(w, http.StatusCreated, storeMemoryResponse{
		Entry:   result.Entry,
		Outcome: result.Outcome,
	})
}

// handleRetrieveMemories handles GET /api/v1/users/{userID}/memories?query=&limit=
func (s *Server) handleRetrieveMemories(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	query := r.URL.Query().Get("query")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	limit := parseLimit(r, 10)
	entries := s.memoryService.RetrieveMemories(r.Context(), userID, query, limit)
	s.metrics.IncrementOpMetric(metrics.OpMetricRetrievals)

	s.writeJSON(w, http.StatusOK, entries)
}

// handleConversationHistory handles GET /api/v1/users/{userID}/conversation?limit=
func (s *Server) handleConversationHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := parseLimit(r, 50)

	entries := s.memoryService.GetConversationHistory(r.Context(), userID, limit)
	s.writeJSON(w, http.StatusOK, entries)
}

// handleStoreFeedback handles POST /api/v1/feedback
func (s *Server) handleStoreFeedback(w http.ResponseWriter, r *http.Request) {
	var entry memory_service.FeedbackEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if entry.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.memoryService.StoreFeedback(r.Context(), entry); err != nil {
		s.log.Error("Failed to store feedback", logger.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "failed to store feedback")
		return
	}

	s.metrics.IncrementOpMetric(metrics.OpMetricFeedbackStored)
	w.WriteHeader(http.StatusNoContent)
}

// handleInsights handles GET /api/v1/users/{userID}/insights
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	stats := s.memoryService.LearnFromFeedback(r.Context(), userID)
	response := insightsResponse{Stats: stats, Summaries: []string{}}
	if stats != nil {
		response.Summaries = stats.Summaries()
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleGetPreferences handles GET /api/v1/users/{userID}/preferences
func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	preferences, err := s.memoryService.GetUserPreferences(r.Context(), userID)
	if err != nil {
		s.log.Error("Failed to load preferences", logger.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	if preferences == nil {
		s.writeError(w, http.StatusNotFound, "no preferences stored for user")
		return
	}

	s.writeJSON(w, http.StatusOK, preferences)
}

// handleUpdatePreferences handles PUT /api/v1/users/{userID}/preferences
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var preferences memory_service.UserPreferences
	if err := json.NewDecoder(r.Body).Decode(&preferences); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	preferences.UserID = userID

	if err := s.memoryService.UpdateUserPreferences(r.Context(), preferences); err != nil {
		s.log.Error("Failed to update preferences", logger.ErrorField(err))
		s.writeError(w, http.StatusInternalServerError, "failed to update preferences")
		return
	}

	s.writeJSON(w, http.StatusOK, preferences)
}

// handleClearUserData handles DELETE /api/v1/users/{userID}
func (s *Server) handleClearUserData(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	result := s.memoryService.ClearUserData(r.Context(), userID)
	response := clearUserDataResponse{DurableDeleted: result.DurableDeleted}
	if result.Err != nil {
		response.Error = result.Err.Error()
		// Cache is cleared either way; report the partial failure without
		// pretending the request did nothing.
		s.writeJSON(w, http.StatusMultiStatus, response)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response with the given status code
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to encode response", logger.ErrorField(err))
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// parseLimit reads the limit query parameter, falling back to a default
func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
