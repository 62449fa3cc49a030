// Package assessor runs adaptive CEFR assessments end to end. It picks each
// question from the running estimate, scores answers, applies the stopping
// rule and delegates state changes to the session manager.
package assessor

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/levelcheck/internal/assessment"
	"github.com/abhisek/levelcheck/internal/estimator"
	"github.com/abhisek/levelcheck/internal/llm"
	"github.com/abhisek/levelcheck/internal/questionbank"
	"github.com/abhisek/levelcheck/internal/session"
)

// Evaluator scores one answer. Implementations never fail; degraded scoring
// is reported through the result's Source.
type Evaluator interface {
	Evaluate(ctx context.Context, q assessment.Question, answer string, pair assessment.LanguagePair, previous []assessment.Response) assessment.Result
}

// Assessor is the entry point for running assessments.
type Assessor struct {
	sessions  *session.Manager
	selector  *questionbank.Selector
	evaluator Evaluator
	policy    estimator.Policy
	now       func() time.Time
	log       zerolog.Logger
}

// New creates an Assessor.
func New(sessions *session.Manager, selector *questionbank.Selector, evaluator Evaluator, policy estimator.Policy, log zerolog.Logger) *Assessor {
	return &Assessor{
		sessions:  sessions,
		selector:  selector,
		evaluator: evaluator,
		policy:    policy,
		now:       time.Now,
		log:       log,
	}
}

// StartInput identifies the learner and the languages to assess.
type StartInput struct {
	LearnerID      string `json:"learner_id" validate:"required"`
	NativeLanguage string `json:"native_language" validate:"required,language"`
	TargetLanguage string `json:"target_language" validate:"required,language"`
}

// Started is returned by Start.
type Started struct {
	Session  *assessment.Session `json:"session"`
	Question assessment.Question `json:"question"`
}

// Start opens a session and returns its first question, which always comes
// from the A2 baseline.
func (a *Assessor) Start(ctx context.Context, in StartInput) (*Started, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	pair, err := assessment.NewLanguagePair(in.NativeLanguage, in.TargetLanguage)
	if err != nil {
		return nil, err
	}

	s, err := a.sessions.Start(ctx, in.LearnerID, pair)
	if err != nil {
		return nil, err
	}
	return &Started{Session: s, Question: a.question(s)}, nil
}

// SubmitInput is one answer to the session's current question.
type SubmitInput struct {
	SessionID string `json:"session_id" validate:"required"`
	Answer    string `json:"answer" validate:"notblank,max=2000"`
}

// Turn is the outcome of a submitted answer. Next is nil once the stopping
// rule says the session should be completed.
type Turn struct {
	Result   assessment.Result    `json:"result"`
	Next     *assessment.Question `json:"next_question,omitempty"`
	Progress session.Progress     `json:"progress"`
}

// Done reports whether Complete should be called next.
func (t *Turn) Done() bool { return t.Next == nil }

// Submit scores an answer to the current question and advances the session.
func (a *Assessor) Submit(ctx context.Context, in SubmitInput) (*Turn, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	answer := strings.TrimSpace(in.Answer)

	var result assessment.Result
	s, err := a.sessions.Advance(ctx, in.SessionID, func(ctx context.Context, s *assessment.Session) (assessment.Response, error) {
		q := a.question(s)
		result = a.evaluator.Evaluate(llm.WithSessionID(ctx, s.ID), q, answer, s.Pair, s.Responses)
		return result.Response(a.now().UTC()), nil
	})
	if err != nil {
		return nil, err
	}

	turn := &Turn{
		Result:   result,
		Progress: session.NewProgress(s, a.policy.MaxQuestions),
	}
	if a.policy.ShouldContinue(s.Responses) {
		next := a.question(s)
		turn.Next = &next
	}

	a.log.Debug().
		Str("session_id", s.ID).
		Int("turn", s.TurnIndex).
		Str("source", string(result.Source)).
		Float64("overall", result.Scores.Overall()).
		Str("estimate", s.CurrentLevel().String()).
		Bool("done", turn.Done()).
		Msg("answer scored")
	return turn, nil
}

// Complete closes the session with its final level.
func (a *Assessor) Complete(ctx context.Context, sessionID string) (*session.Summary, error) {
	return a.sessions.Complete(ctx, sessionID)
}

// Cancel abandons a session. found is false for unknown ids.
func (a *Assessor) Cancel(ctx context.Context, sessionID string) (found bool, err error) {
	return a.sessions.Cancel(ctx, sessionID)
}

// Status returns a progress snapshot. Overdue sessions are expired first.
func (a *Assessor) Status(ctx context.Context, sessionID string) (session.Progress, error) {
	s, err := a.sessions.Status(ctx, sessionID)
	if err != nil {
		return session.Progress{}, err
	}
	return session.NewProgress(s, a.policy.MaxQuestions), nil
}

// CurrentQuestion returns the question awaiting an answer in an active
// session.
func (a *Assessor) CurrentQuestion(ctx context.Context, sessionID string) (assessment.Question, error) {
	s, err := a.sessions.Status(ctx, sessionID)
	if err != nil {
		return assessment.Question{}, err
	}
	switch {
	case s.Status == assessment.StatusExpired:
		return assessment.Question{}, assessment.ErrSessionExpired
	case s.Status.Terminal():
		return assessment.Question{}, assessment.ErrSessionNotActive
	}
	return a.question(s), nil
}

// History lists a learner's sessions, newest first.
func (a *Assessor) History(ctx context.Context, learnerID string, limit int) ([]session.Progress, error) {
	sessions, err := a.sessions.History(ctx, learnerID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]session.Progress, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, session.NewProgress(s, a.policy.MaxQuestions))
	}
	return out, nil
}

// question is the one the session is waiting on: it depends only on the
// running estimate and the turn index.
func (a *Assessor) question(s *assessment.Session) assessment.Question {
	return a.selector.Select(s.CurrentLevel(), s.TurnIndex, s.Pair)
}
