package evaluator

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/abhisek/levelcheck/internal/assessment"
	"github.com/abhisek/levelcheck/internal/estimator"
)

const systemPromptTemplate = `You are an expert language assessment evaluator for {{.Target}} proficiency.
You are evaluating a {{.Native}} speaker's {{.Target}} response to determine their proficiency level.

CEFR Levels:
- A1: Basic user, simple phrases, present tense, basic vocabulary
- A2: Elementary, simple sentences, past/future tense, everyday topics
- B1: Intermediate, connected speech, opinions, complex sentences
- B2: Upper-intermediate, detailed descriptions, abstract topics, nuanced expression
- C1: Advanced, fluent expression, complex ideas, sophisticated vocabulary
- C2: Proficient, native-like fluency, subtle meanings, complex argumentation

Evaluate the response on three dimensions (0.0-1.0 scale):

1. COMPLEXITY: Sentence structure, grammar complexity, vocabulary sophistication
   - 0.0-0.3: Simple words, basic sentences, elementary grammar
   - 0.4-0.6: Some complex sentences, intermediate vocabulary
   - 0.7-1.0: Complex structures, advanced vocabulary, sophisticated expression

2. ACCURACY: Grammar correctness, word choice, language mechanics
   - 0.0-0.3: Many errors that impede understanding
   - 0.4-0.6: Some errors but meaning is clear
   - 0.7-1.0: Few or no errors, natural language use

3. FLUENCY: Natural flow, coherence, completeness of response
   - 0.0-0.3: Fragmented, incomplete thoughts
   - 0.4-0.6: Understandable but some hesitation/awkwardness
   - 0.7-1.0: Natural, coherent, complete expression

Expected level for this question: {{.ExpectedLevel}}
Question category: {{.Category}}
{{- if .Previous}}
Previous response averages: Complexity: {{printf "%.2f" .Previous.Complexity}}, Accuracy: {{printf "%.2f" .Previous.Accuracy}}, Fluency: {{printf "%.2f" .Previous.Fluency}}
{{- end}}

Respond in this EXACT format:
COMPLEXITY_SCORE: [0.0-1.0]
ACCURACY_SCORE: [0.0-1.0]
FLUENCY_SCORE: [0.0-1.0]
ESTIMATED_LEVEL: [A1/A2/B1/B2/C1/C2]
FEEDBACK: [Brief explanation of the assessment]`

var systemPrompt = template.Must(template.New("evaluation").Parse(systemPromptTemplate))

type promptData struct {
	Target        string
	Native        string
	ExpectedLevel assessment.Level
	Category      string
	Previous      *estimator.Averages
}

func buildSystemPrompt(q assessment.Question, pair assessment.LanguagePair, previous []assessment.Response) (string, error) {
	data := promptData{
		Target:        assessment.DisplayName(pair.Target, "the target language"),
		Native:        assessment.DisplayName(pair.Native, "the native language"),
		ExpectedLevel: q.ExpectedLevel,
		Category:      q.Category,
	}
	if len(previous) > 0 {
		avg := estimator.Average(previous)
		data.Previous = &avg
	}

	var buf bytes.Buffer
	if err := systemPrompt.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildUserMessage(q assessment.Question, answer string) string {
	return fmt.Sprintf("Question: %s\n\nUser Response: %s", q.Content, answer)
}
