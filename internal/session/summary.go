package session

import (
	"time"

	"github.com/abhisek/levelcheck/internal/assessment"
	"github.com/abhisek/levelcheck/internal/estimator"
)

// Summary describes a completed session.
type Summary struct {
	SessionID     string             `json:"session_id"`
	LearnerID     string             `json:"learner_id"`
	FinalLevel    assessment.Level   `json:"final_level"`
	FinalScore    float64            `json:"final_score"`
	Averages      estimator.Averages `json:"averages"`
	Questions     int                `json:"questions"`
	FallbackCount int                `json:"fallback_count"`
	Duration      time.Duration      `json:"duration"`
}

// BuildSummary creates a Summary from a completed session.
func BuildSummary(s *assessment.Session) *Summary {
	fallbacks := 0
	for _, r := range s.Responses {
		if r.Fallback {
			fallbacks++
		}
	}

	var d time.Duration
	if s.CompletedAt != nil {
		d = s.CompletedAt.Sub(s.CreatedAt)
	}

	return &Summary{
		SessionID:     s.ID,
		LearnerID:     s.LearnerID,
		FinalLevel:    s.FinalLevel,
		FinalScore:    estimator.FinalScore(s.Responses),
		Averages:      estimator.Average(s.Responses).Rounded(),
		Questions:     len(s.Responses),
		FallbackCount: fallbacks,
		Duration:      d,
	}
}
