package evaluator

import (
	"strings"

	"github.com/abhisek/levelcheck/internal/assessment"
)

const (
	fallbackEvaluation = "Fallback evaluation due to AI service unavailability"
	fallbackFeedback   = "Assessment completed with basic evaluation"
	fallbackAccuracy   = 0.6
)

// Fallback scores answer from its length alone. Accuracy is fixed and the
// estimated level echoes the question's expected level.
func Fallback(q assessment.Question, answer string) assessment.Result {
	complexity, fluency := lengthScores(len(strings.Fields(answer)))

	level := q.ExpectedLevel
	if !level.Valid() {
		level = assessment.BaselineLevel
	}

	return assessment.Result{
		QuestionID: q.ID,
		Answer:     answer,
		Evaluation: fallbackEvaluation,
		Scores: assessment.Scores{
			Complexity: complexity,
			Accuracy:   fallbackAccuracy,
			Fluency:    fluency,
		},
		EstimatedLevel: level,
		Feedback:       fallbackFeedback,
		Source:         assessment.SourceFallback,
	}
}

func lengthScores(words int) (complexity, fluency float64) {
	switch {
	case words < 5:
		return 0.2, 0.3
	case words < 15:
		return 0.4, 0.5
	case words < 30:
		return 0.6, 0.7
	default:
		return 0.8, 0.8
	}
}
