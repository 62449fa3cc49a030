package assessment

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a session. Active is the only
// non-terminal state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool { return s != StatusActive }

// ParseStatus converts a stored status string back to a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusCompleted, StatusExpired, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown session status %q", s)
}

// Question is a single open-ended prompt. Questions are regenerated from
// (level, turn, pair) rather than stored.
type Question struct {
	ID            string `json:"id"`
	Content       string `json:"content"`
	ExpectedLevel Level  `json:"expected_level"`
	Category      string `json:"category"`
	Instructions  string `json:"instructions,omitempty"`
}

// Scores holds the three scoring dimensions, each in [0, 1].
type Scores struct {
	Complexity float64 `json:"complexity"`
	Accuracy   float64 `json:"accuracy"`
	Fluency    float64 `json:"fluency"`
}

// Overall is the unweighted mean of the three dimensions.
func (s Scores) Overall() float64 {
	return (s.Complexity + s.Accuracy + s.Fluency) / 3.0
}

// Clamp returns s with every dimension forced into [0, 1].
func (s Scores) Clamp() Scores {
	return Scores{
		Complexity: clamp01(s.Complexity),
		Accuracy:   clamp01(s.Accuracy),
		Fluency:    clamp01(s.Fluency),
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Source records whether a turn was scored by the backend or by the
// deterministic fallback.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Result is the evaluator's output for one turn. It is not persisted directly.
type Result struct {
	QuestionID     string `json:"question_id"`
	Answer         string `json:"answer"`
	Evaluation     string `json:"evaluation"`
	Scores         Scores `json:"scores"`
	EstimatedLevel Level  `json:"estimated_level"`
	Feedback       string `json:"feedback,omitempty"`
	Source         Source `json:"source"`
}

// Fallback reports whether the result came from the fallback scorer.
func (r Result) Fallback() bool { return r.Source == SourceFallback }

// Response converts the result into the immutable record appended to a session.
func (r Result) Response(at time.Time) Response {
	return Response{
		QuestionID: r.QuestionID,
		Answer:     r.Answer,
		Evaluation: r.Evaluation,
		Scores:     r.Scores,
		Feedback:   r.Feedback,
		Fallback:   r.Fallback(),
		CreatedAt:  at,
	}
}

// Response is one scored answer within a session.
type Response struct {
	QuestionID string    `json:"question_id"`
	Answer     string    `json:"answer"`
	Evaluation string    `json:"evaluation"`
	Scores     Scores    `json:"scores"`
	Feedback   string    `json:"feedback,omitempty"`
	Fallback   bool      `json:"fallback"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is one adaptive assessment run for a learner.
//
// Responses is append-only and TurnIndex always equals len(Responses).
// FinalLevel is set if and only if Status is StatusCompleted.
type Session struct {
	ID          string       `json:"id"`
	LearnerID   string       `json:"learner_id"`
	Pair        LanguagePair `json:"language_pair"`
	Responses   []Response   `json:"responses"`
	TurnIndex   int          `json:"turn_index"`
	Estimate    Level        `json:"estimated_level,omitempty"`
	Status      Status       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	FinalLevel  Level        `json:"final_level,omitempty"`
}

// NewSession returns an active session with no responses.
func NewSession(id, learnerID string, pair LanguagePair, now time.Time) *Session {
	return &Session{
		ID:        id,
		LearnerID: learnerID,
		Pair:      pair,
		Responses: []Response{},
		Status:    StatusActive,
		CreatedAt: now,
	}
}

// Expired reports whether an active session is past its timeout at now.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	return s.Status == StatusActive && now.Sub(s.CreatedAt) > timeout
}

// CurrentLevel is the running estimate, or the baseline before any response.
func (s *Session) CurrentLevel() Level {
	if s.Estimate == "" {
		return BaselineLevel
	}
	return s.Estimate
}

// AddResponse appends r, advances the turn index and records the new
// running estimate.
func (s *Session) AddResponse(r Response, estimate Level) error {
	if s.Status != StatusActive {
		return ErrSessionNotActive
	}
	s.Responses = append(s.Responses, r)
	s.TurnIndex = len(s.Responses)
	s.Estimate = estimate
	return nil
}

// Complete closes the session with its final level.
func (s *Session) Complete(final Level, at time.Time) error {
	if s.Status != StatusActive {
		return ErrSessionNotActive
	}
	if !final.Valid() {
		return fmt.Errorf("complete session %s: invalid final level %q", s.ID, final)
	}
	s.Status = StatusCompleted
	s.FinalLevel = final
	s.CompletedAt = &at
	return nil
}

// Cancel moves an active session to StatusCancelled.
func (s *Session) Cancel() error {
	if s.Status != StatusActive {
		return ErrSessionNotActive
	}
	s.Status = StatusCancelled
	return nil
}

// Expire moves an active session to StatusExpired.
func (s *Session) Expire() error {
	if s.Status != StatusActive {
		return ErrSessionNotActive
	}
	s.Status = StatusExpired
	return nil
}

// Learner is the subset of the learner record the assessment reads and writes.
type Learner struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	AssessedLevel Level      `json:"assessed_level,omitempty"`
	AssessedAt    *time.Time `json:"assessed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
