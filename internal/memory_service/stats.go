package memory_service //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"fmt"
	"time"
)

// HourlyEngagement is the mean engagement observed for one hour of the day.
type HourlyEngagement struct {
	Hour              int     `json:"hour"` // 0-23, UTC
	AverageEngagement float64 `json:"average_engagement"`
	Samples           int     `json:"samples"`
}

// FeedbackStats is the structured result of feedback pattern analysis.
// Hours are computed in UTC so results are reproducible across deployments.
type FeedbackStats struct {
	UserID                   string             `json:"user_id"`
	SampleCount              int                `json:"sample_count"`
	SuccessCount             int                `json:"success_count"`
	FailureCount             int                `json:"failure_count"`
	AverageSuccessEngagement float64            `json:"average_success_engagement"`
	BestHour                 int                `json:"best_hour"`
	BestHourAverage          float64            `json:"best_hour_average"`
	HourlyAverages           []HourlyEngagement `json:"hourly_averages"`
}

// LearnFromFeedback derives descriptive statistics from a user's feedback
// list: average engagement across successful actions, failure count, and the
// best posting hour by mean engagement. It returns nil when the user has no
// feedback. Ties between hours resolve to the hour seen first.
func (s *Service) LearnFromFeedback(_ context.Context, userID string) *FeedbackStats {
	s.cacheMux.RLock()
	entries := make([]FeedbackEntry, len(s.feedback[userID]))
	copy(entries, s.feedback[userID])
	s.cacheMux.RUnlock()

	if len(entries) == 0 {
		return nil
	}

	stats := &FeedbackStats{
		UserID:      userID,
		SampleCount: len(entries),
	}

	var successEngagement float64
	for _, entry := range entries {
		switch entry.Outcome {
		case OutcomeSuccess:
			stats.SuccessCount++
			successEngagement += engagementOf(entry)
		case OutcomeFailure:
			stats.FailureCount++
		}
	}
	if stats.SuccessCount > 0 {
		stats.AverageSuccessEngagement = successEngagement / float64(stats.SuccessCount)
	}

	// Group by hour of day, keeping first-seen hour order for tie-breaking.
	totals := make(map[int]float64)
	counts := make(map[int]int)
	var hourOrder []int
	for _, entry := range entries {
		hour := time.UnixMilli(entry.Timestamp).UTC().Hour()
		if _, seen := counts[hour]; !seen {
			hourOrder = append(hourOrder, hour)
		}
		totals[hour] += engagementOf(entry)
		counts[hour]++
	}

	stats.BestHour = -1
	for _, hour := range hourOrder {
		average := totals[hour] / float64(counts[hour])
		stats.HourlyAverages = append(stats.HourlyAverages, HourlyEngagement{
			Hour:              hour,
			AverageEngagement: average,
			Samples:           counts[hour],
		})
		if stats.BestHour == -1 || average > stats.BestHourAverage {
			stats.BestHour = hour
			stats.BestHourAverage = average
		}
	}

	return stats
}

// Summaries renders the statistics as human-readable learning strings.
// A non-nil stats always yields a best posting time line.
func (stats *FeedbackStats) Summaries() []string {
	if stats == nil || stats.SampleCount == 0 {
		return []string{}
	}

	var summaries []string
	if stats.SuccessCount > 0 {
		summaries = append(summaries, fmt.Sprintf(
			"Successful actions average %.2f engagement across %d samples",
			stats.AverageSuccessEngagement, stats.SuccessCount))
	}
	if stats.FailureCount > 0 {
		summaries = append(summaries, fmt.Sprintf(
			"%d actions failed; review what went wrong", stats.FailureCount))
	}
	summaries = append(summaries, fmt.Sprintf(
		"Best posting time: %02d:00 UTC with average engagement %.2f",
		stats.BestHour, stats.BestHourAverage))

	return summaries
}

// engagementOf returns the entry's engagement metric, treating an unmeasured
// engagement as zero.
func engagementOf(entry FeedbackEntry) float64 {
	if entry.Metrics.Engagement == nil {
		return 0
	}
	return *entry.Metrics.Engagement
}
