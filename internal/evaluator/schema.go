package evaluator

import "github.com/abhisek/levelcheck/internal/llm"

// EvaluationSchema is requested in structured mode. Score bounds are left
// out so that out-of-range values reach the clamp instead of failing
// validation.
var EvaluationSchema = &llm.Schema{
	Name:        "response_evaluation",
	Description: "CEFR scores for a single learner answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"complexity_score": map[string]any{
				"type":        "number",
				"description": "Sentence structure, grammar complexity and vocabulary sophistication, 0.0 to 1.0",
			},
			"accuracy_score": map[string]any{
				"type":        "number",
				"description": "Grammar correctness, word choice and language mechanics, 0.0 to 1.0",
			},
			"fluency_score": map[string]any{
				"type":        "number",
				"description": "Natural flow, coherence and completeness, 0.0 to 1.0",
			},
			"estimated_level": map[string]any{
				"type":        "string",
				"description": "One of A1, A2, B1, B2, C1, C2",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Brief explanation of the assessment",
			},
		},
		"required":             []any{"complexity_score", "accuracy_score", "fluency_score", "estimated_level", "feedback"},
		"additionalProperties": false,
	},
}
