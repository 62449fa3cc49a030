// Package evaluator scores a learner's free-text answer along complexity,
// accuracy and fluency. Scores come from the configured LLM backend when it
// answers in the expected format and from a word-count heuristic otherwise,
// so Evaluate always produces a result.
package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/levelcheck/internal/assessment"
	"github.com/abhisek/levelcheck/internal/llm"
)

// Purpose labels backend calls made by the evaluator in LLM events.
const Purpose = "evaluate_response"

// Config holds evaluator settings.
type Config struct {
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// Structured asks the backend for JSON matching EvaluationSchema
	// instead of labeled lines.
	Structured bool `mapstructure:"structured"`
}

// DefaultConfig returns the defaults: short replies, near-deterministic
// sampling and a 50 second ceiling per call.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   500,
		Temperature: 0.1,
		Timeout:     50 * time.Second,
	}
}

// Evaluator scores answers. It holds no per-session state.
type Evaluator struct {
	provider llm.Provider
	cfg      Config
	log      zerolog.Logger
}

// New creates an Evaluator. A nil provider scores every answer with the
// fallback heuristic.
func New(provider llm.Provider, cfg Config, log zerolog.Logger) *Evaluator {
	return &Evaluator{provider: provider, cfg: cfg, log: log}
}

var errNoBackend = errors.New("no scoring backend configured")

// Evaluate scores answer to q. previous holds the session's earlier
// responses and only feeds the prompt context. The backend is called once;
// any failure yields a fallback result with Source set accordingly.
func (e *Evaluator) Evaluate(ctx context.Context, q assessment.Question, answer string, pair assessment.LanguagePair, previous []assessment.Response) assessment.Result {
	if e.provider == nil {
		return e.fallback(q, answer, errNoBackend)
	}

	system, err := buildSystemPrompt(q, pair, previous)
	if err != nil {
		return e.fallback(q, answer, fmt.Errorf("build evaluation prompt: %w", err))
	}

	req := llm.Request{
		System: system,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(q, answer)},
		},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	}
	if e.cfg.Structured {
		req.Schema = EvaluationSchema
	}

	ctx = llm.WithPurpose(ctx, Purpose)
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	resp, err := e.provider.Generate(ctx, req)
	if err != nil {
		return e.fallback(q, answer, err)
	}

	var ev *evaluation
	if e.cfg.Structured {
		ev, err = decodeStructured(resp.Content)
	} else {
		ev, err = parseLabeled(resp.Text())
	}
	if err != nil {
		return e.fallback(q, answer, &llm.ErrInvalidResponse{Content: resp.Content, Err: err})
	}

	return assessment.Result{
		QuestionID:     q.ID,
		Answer:         answer,
		Evaluation:     resp.Text(),
		Scores:         ev.scores.Clamp(),
		EstimatedLevel: ev.level,
		Feedback:       ev.feedback,
		Source:         assessment.SourceModel,
	}
}

func (e *Evaluator) fallback(q assessment.Question, answer string, cause error) assessment.Result {
	if errors.Is(cause, errNoBackend) {
		e.log.Debug().Str("question_id", q.ID).Msg("no scoring backend, using fallback scores")
	} else {
		e.log.Warn().
			Err(cause).
			Str("kind", llm.Kind(cause)).
			Str("question_id", q.ID).
			Msg("scoring backend failed, using fallback scores")
	}
	return Fallback(q, answer)
}

// evaluation is a parsed backend verdict before clamping.
type evaluation struct {
	scores   assessment.Scores
	level    assessment.Level
	feedback string
}

// structuredReply is the JSON shape requested by EvaluationSchema.
type structuredReply struct {
	ComplexityScore *float64 `json:"complexity_score"`
	AccuracyScore   *float64 `json:"accuracy_score"`
	FluencyScore    *float64 `json:"fluency_score"`
	EstimatedLevel  string   `json:"estimated_level"`
	Feedback        string   `json:"feedback"`
}

func decodeStructured(raw json.RawMessage) (*evaluation, error) {
	var r structuredReply
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}
	if r.ComplexityScore == nil || r.AccuracyScore == nil || r.FluencyScore == nil || r.EstimatedLevel == "" {
		return nil, errors.New("evaluation is missing required fields")
	}
	return &evaluation{
		scores: assessment.Scores{
			Complexity: *r.ComplexityScore,
			Accuracy:   *r.AccuracyScore,
			Fluency:    *r.FluencyScore,
		},
		level:    normalizeLevel(r.EstimatedLevel),
		feedback: r.Feedback,
	}, nil
}

// normalizeLevel maps anything outside the six CEFR codes to the baseline.
func normalizeLevel(s string) assessment.Level {
	if l, err := assessment.ParseLevel(s); err == nil {
		return l
	}
	return assessment.BaselineLevel
}
