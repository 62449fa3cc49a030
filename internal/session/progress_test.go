package session

import (
	"testing"
	"time"

	"github.com/abhisek/levelcheck/internal/assessment"
)

func sessionWith(n int, overall float64) *assessment.Session {
	s := assessment.NewSession("s1", "alice", trToEN, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	for i := 0; i < n; i++ {
		s.Responses = append(s.Responses, assessment.Response{
			Scores: assessment.Scores{Complexity: overall, Accuracy: overall, Fluency: overall},
		})
	}
	s.TurnIndex = n
	if n > 0 {
		s.Estimate = assessment.LevelB1
	}
	return s
}

func TestNewProgress_Empty(t *testing.T) {
	p := NewProgress(sessionWith(0, 0), 10)

	if p.Percent != 0 {
		t.Errorf("Percent = %v, want 0", p.Percent)
	}
	if p.CurrentLevel != assessment.LevelA2 {
		t.Errorf("CurrentLevel = %s, want A2", p.CurrentLevel)
	}
	if p.Averages.Overall != 0 {
		t.Errorf("Averages.Overall = %v, want 0", p.Averages.Overall)
	}
	if p.Expired {
		t.Error("expected Expired = false")
	}
}

func TestNewProgress_Percent(t *testing.T) {
	tests := []struct {
		responses int
		max       int
		want      float64
	}{
		{3, 10, 30},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{12, 10, 100},
		{4, 0, 0},
	}
	for _, tt := range tests {
		p := NewProgress(sessionWith(tt.responses, 0.5), tt.max)
		if p.Percent != tt.want {
			t.Errorf("NewProgress(%d of %d).Percent = %v, want %v", tt.responses, tt.max, p.Percent, tt.want)
		}
	}
}

func TestNewProgress_RoundsAverages(t *testing.T) {
	s := sessionWith(0, 0)
	s.Responses = []assessment.Response{
		{Scores: assessment.Scores{Complexity: 0.1, Accuracy: 0.2, Fluency: 0.3}},
		{Scores: assessment.Scores{Complexity: 0.2, Accuracy: 0.3, Fluency: 0.35}},
		{Scores: assessment.Scores{Complexity: 0.3, Accuracy: 0.3, Fluency: 0.3}},
	}

	p := NewProgress(s, 10)

	if p.Averages.Complexity != 0.2 {
		t.Errorf("Complexity = %v, want 0.2", p.Averages.Complexity)
	}
	if p.Averages.Accuracy != 0.267 {
		t.Errorf("Accuracy = %v, want 0.267", p.Averages.Accuracy)
	}
	if p.Averages.Fluency != 0.317 {
		t.Errorf("Fluency = %v, want 0.317", p.Averages.Fluency)
	}
}

func TestNewProgress_Expired(t *testing.T) {
	s := sessionWith(2, 0.5)
	s.Status = assessment.StatusExpired

	p := NewProgress(s, 10)
	if !p.Expired {
		t.Error("expected Expired = true")
	}
	if p.ResponseCount != 2 || p.TurnIndex != 2 {
		t.Errorf("counts = %d/%d, want 2/2", p.ResponseCount, p.TurnIndex)
	}
}

func TestBuildSummary(t *testing.T) {
	s := sessionWith(4, 0.6)
	s.Responses[1].Fallback = true
	s.Responses[3].Fallback = true
	done := s.CreatedAt.Add(7 * time.Minute)
	if err := s.Complete(assessment.LevelB1, done); err != nil {
		t.Fatal(err)
	}

	sum := BuildSummary(s)

	if sum.FallbackCount != 2 {
		t.Errorf("FallbackCount = %d, want 2", sum.FallbackCount)
	}
	if sum.Duration != 7*time.Minute {
		t.Errorf("Duration = %v, want 7m", sum.Duration)
	}
	if sum.FinalLevel != assessment.LevelB1 {
		t.Errorf("FinalLevel = %s, want B1", sum.FinalLevel)
	}
	if sum.Questions != 4 {
		t.Errorf("Questions = %d, want 4", sum.Questions)
	}
}
