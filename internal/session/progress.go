package session

import (
	"math"
	"time"

	"github.com/abhisek/levelcheck/internal/assessment"
	"github.com/abhisek/levelcheck/internal/estimator"
)

// Progress is a read-only snapshot of a session for status displays.
type Progress struct {
	SessionID     string                  `json:"session_id"`
	LearnerID     string                  `json:"learner_id"`
	Pair          assessment.LanguagePair `json:"language_pair"`
	Status        assessment.Status       `json:"status"`
	TurnIndex     int                     `json:"turn_index"`
	ResponseCount int                     `json:"response_count"`
	CurrentLevel  assessment.Level        `json:"current_level"`
	Percent       float64                 `json:"progress_percentage"`
	Averages      estimator.Averages      `json:"averages"`
	CreatedAt     time.Time               `json:"created_at"`
	CompletedAt   *time.Time              `json:"completed_at,omitempty"`
	FinalLevel    assessment.Level        `json:"final_level,omitempty"`
	Expired       bool                    `json:"is_expired"`
}

// NewProgress builds a snapshot. maxQuestions scales the percentage, which
// is capped at 100 and rounded to one decimal.
func NewProgress(s *assessment.Session, maxQuestions int) Progress {
	n := len(s.Responses)
	var pct float64
	if maxQuestions > 0 {
		pct = math.Min(float64(n)/float64(maxQuestions)*100, 100)
		pct = math.Round(pct*10) / 10
	}
	return Progress{
		SessionID:     s.ID,
		LearnerID:     s.LearnerID,
		Pair:          s.Pair,
		Status:        s.Status,
		TurnIndex:     s.TurnIndex,
		ResponseCount: n,
		CurrentLevel:  s.CurrentLevel(),
		Percent:       pct,
		Averages:      estimator.Average(s.Responses).Rounded(),
		CreatedAt:     s.CreatedAt,
		CompletedAt:   s.CompletedAt,
		FinalLevel:    s.FinalLevel,
		Expired:       s.Status == assessment.StatusExpired,
	}
}
