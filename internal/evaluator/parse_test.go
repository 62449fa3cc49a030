package evaluator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/levelcheck/internal/assessment"
)

func TestParseLabeled(t *testing.T) {
	ev, err := parseLabeled(`Here is my assessment.

  COMPLEXITY_SCORE: 0.45
ACCURACY_SCORE :0.5
FLUENCY_SCORE: [0.55]
ESTIMATED_LEVEL: [B1]
FEEDBACK: Meaning is clear, some tense errors.
`)
	require.NoError(t, err)
	assert.Equal(t, assessment.Scores{Complexity: 0.45, Accuracy: 0.5, Fluency: 0.55}, ev.scores)
	assert.Equal(t, assessment.LevelB1, ev.level)
	assert.Equal(t, "Meaning is clear, some tense errors.", ev.feedback)
}

func TestParseLabeled_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		label string
	}{
		{"missing complexity", "ACCURACY_SCORE: 0.5\nFLUENCY_SCORE: 0.5\nESTIMATED_LEVEL: B1", labelComplexity},
		{"empty level", "COMPLEXITY_SCORE: 0.5\nACCURACY_SCORE: 0.5\nFLUENCY_SCORE: 0.5\nESTIMATED_LEVEL:", labelLevel},
		{"nan", "COMPLEXITY_SCORE: NaN\nACCURACY_SCORE: 0.5\nFLUENCY_SCORE: 0.5\nESTIMATED_LEVEL: B1", labelComplexity},
		{"duplicate", "COMPLEXITY_SCORE: 0.5\nCOMPLEXITY_SCORE: 0.9\nACCURACY_SCORE: 0.5\nFLUENCY_SCORE: 0.5\nESTIMATED_LEVEL: B1", labelComplexity},
		{"bold labels", "**COMPLEXITY_SCORE:** 0.5\n**ACCURACY_SCORE:** 0.5\n**FLUENCY_SCORE:** 0.5\n**ESTIMATED_LEVEL:** B1", labelComplexity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLabeled(tt.text)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.label, pe.Label)
		})
	}
}

func TestParseLabeled_LowercaseLevel(t *testing.T) {
	ev, err := parseLabeled("COMPLEXITY_SCORE: 0.9\nACCURACY_SCORE: 0.9\nFLUENCY_SCORE: 0.9\nESTIMATED_LEVEL: c2")
	require.NoError(t, err)
	assert.Equal(t, assessment.LevelC2, ev.level)
}
