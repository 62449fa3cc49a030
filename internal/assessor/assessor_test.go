package assessor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/levelcheck/internal/assessment"
	"github.com/abhisek/levelcheck/internal/estimator"
	"github.com/abhisek/levelcheck/internal/evaluator"
	"github.com/abhisek/levelcheck/internal/llm"
	"github.com/abhisek/levelcheck/internal/questionbank"
	"github.com/abhisek/levelcheck/internal/session"
	"github.com/abhisek/levelcheck/internal/store"
)

const steadyReply = "COMPLEXITY_SCORE: 0.55\nACCURACY_SCORE: 0.55\nFLUENCY_SCORE: 0.55\nESTIMATED_LEVEL: B1\nFEEDBACK: Consistent intermediate answer."

type fixture struct {
	assessor *Assessor
	store    *store.Store
	provider *llm.MockProvider
	now      time.Time
}

func newFixture(t *testing.T, provider *llm.MockProvider, opts ...session.Option) *fixture {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "levelcheck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f := &fixture{store: st, provider: provider, now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, st.Learners().Create(context.Background(), &assessment.Learner{ID: "learner-1", Name: "Ayla", CreatedAt: f.now}))

	log := zerolog.Nop()
	opts = append([]session.Option{session.WithClock(func() time.Time { return f.now })}, opts...)
	mgr := session.NewManager(st.Sessions(), st.Learners(), log, opts...)

	var p llm.Provider
	if provider != nil {
		p = llm.WithLogging(provider, st.LLMEvents(), log)
	}
	eval := evaluator.New(p, evaluator.DefaultConfig(), log)

	selector, err := questionbank.NewSelector(nil)
	require.NoError(t, err)
	f.assessor = New(mgr, selector, eval, estimator.DefaultPolicy(), log)
	f.assessor.now = func() time.Time { return f.now }
	return f
}

func startTurkishEnglish(t *testing.T, f *fixture) *Started {
	t.Helper()
	started, err := f.assessor.Start(context.Background(), StartInput{
		LearnerID:      "learner-1",
		NativeLanguage: "tr",
		TargetLanguage: "EN",
	})
	require.NoError(t, err)
	return started
}

func TestAssessment_EndToEnd(t *testing.T) {
	f := newFixture(t, llm.NewMockProvider().Repeat(llm.MockText(steadyReply)))
	ctx := context.Background()

	started := startTurkishEnglish(t, f)
	assert.Equal(t, assessment.LanguagePair{Native: "TR", Target: "EN"}, started.Session.Pair)
	assert.Equal(t, "A2_past_experiences_0", started.Question.ID)
	assert.Equal(t, assessment.LevelA2, started.Question.ExpectedLevel)
	assert.Contains(t, started.Question.Instructions, "English")

	var turns []*Turn
	for {
		turn, err := f.assessor.Submit(ctx, SubmitInput{
			SessionID: started.Session.ID,
			Answer:    "Last summer I visited my grandparents in Izmir and we cooked together every evening.",
		})
		require.NoError(t, err)
		turns = append(turns, turn)
		if turn.Done() {
			break
		}
		require.Less(t, len(turns), 10)
	}

	require.Len(t, turns, 5, "identical scores converge at the minimum question count")
	assert.Equal(t, "B1_abstract_topics_1", turns[0].Next.ID)
	for i, turn := range turns {
		assert.Equal(t, assessment.SourceModel, turn.Result.Source)
		assert.Equal(t, i+1, turn.Progress.TurnIndex)
		assert.Equal(t, turn.Progress.TurnIndex, turn.Progress.ResponseCount)
	}
	assert.Equal(t, 50.0, turns[4].Progress.Percent)

	summary, err := f.assessor.Complete(ctx, started.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, assessment.LevelB1, summary.FinalLevel)
	assert.Equal(t, 0, summary.FallbackCount)

	learner, err := f.store.Learners().Get(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, assessment.LevelB1, learner.AssessedLevel)
	require.NotNil(t, learner.AssessedAt)

	_, err = f.assessor.Complete(ctx, started.Session.ID)
	assert.ErrorIs(t, err, assessment.ErrSessionNotActive)

	events, err := f.store.LLMEvents().ListLLMEvents(ctx, store.LLMEventFilter{SessionID: started.Session.ID})
	require.NoError(t, err)
	require.Len(t, events, 5)
	for _, ev := range events {
		assert.Equal(t, evaluator.Purpose, ev.Purpose)
		assert.True(t, ev.Success)
	}
}

func TestAssessment_BackendAlwaysFails(t *testing.T) {
	f := newFixture(t, llm.NewFailingProvider(&llm.ErrProviderUnavailable{Err: errors.New("503")}))
	ctx := context.Background()
	started := startTurkishEnglish(t, f)

	var turns []*Turn
	for len(turns) < 5 {
		turn, err := f.assessor.Submit(ctx, SubmitInput{SessionID: started.Session.ID, Answer: "I like tea and bread in the morning."})
		require.NoError(t, err)
		turns = append(turns, turn)
	}

	for _, turn := range turns {
		assert.True(t, turn.Result.Fallback())
		assert.Equal(t, 0.6, turn.Result.Scores.Accuracy)
	}
	assert.True(t, turns[4].Done())

	summary, err := f.assessor.Complete(ctx, started.Session.ID)
	require.NoError(t, err)
	assert.True(t, summary.FinalLevel.Valid())
	assert.Equal(t, 5, summary.FallbackCount)

	events, err := f.store.LLMEvents().ListLLMEvents(ctx, store.LLMEventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.False(t, events[0].Success)
	assert.Equal(t, "unavailable", events[0].ErrorKind)
}

func TestAssessment_NoBackend(t *testing.T) {
	f := newFixture(t, nil)
	started := startTurkishEnglish(t, f)

	turn, err := f.assessor.Submit(context.Background(), SubmitInput{SessionID: started.Session.ID, Answer: "Hello"})
	require.NoError(t, err)
	assert.True(t, turn.Result.Fallback())
	assert.False(t, turn.Done())
}

func TestStart_Validation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name  string
		in    StartInput
		field string
	}{
		{"missing learner", StartInput{NativeLanguage: "TR", TargetLanguage: "EN"}, "learner_id"},
		{"unsupported native", StartInput{LearnerID: "learner-1", NativeLanguage: "XX", TargetLanguage: "EN"}, "native_language"},
		{"missing target", StartInput{LearnerID: "learner-1", NativeLanguage: "TR"}, "target_language"},
		{"same language", StartInput{LearnerID: "learner-1", NativeLanguage: "en", TargetLanguage: "EN"}, "target_language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.assessor.Start(context.Background(), tt.in)
			var ve *assessment.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.NotEmpty(t, ve.Reason)
		})
	}
}

func TestStart_UnknownLearner(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.assessor.Start(context.Background(), StartInput{LearnerID: "nobody", NativeLanguage: "TR", TargetLanguage: "EN"})
	assert.ErrorIs(t, err, assessment.ErrLearnerNotFound)
}

func TestStart_AlreadyActive(t *testing.T) {
	f := newFixture(t, nil)
	startTurkishEnglish(t, f)

	_, err := f.assessor.Start(context.Background(), StartInput{LearnerID: "learner-1", NativeLanguage: "TR", TargetLanguage: "EN"})
	assert.ErrorIs(t, err, assessment.ErrSessionAlreadyExists)
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t, nil)
	started := startTurkishEnglish(t, f)

	tests := []struct {
		name   string
		answer string
	}{
		{"empty", ""},
		{"blank", "   \n\t"},
		{"too long", strings.Repeat("ü", 2001)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.assessor.Submit(context.Background(), SubmitInput{SessionID: started.Session.ID, Answer: tt.answer})
			var ve *assessment.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "answer", ve.Field)
		})
	}

	_, err := f.assessor.Submit(context.Background(), SubmitInput{SessionID: started.Session.ID, Answer: strings.Repeat("ü", 2000)})
	assert.NoError(t, err, "2000 characters is within the limit")
}

func TestSubmit_UnknownSession(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.assessor.Submit(context.Background(), SubmitInput{SessionID: "missing", Answer: "hi"})
	assert.ErrorIs(t, err, assessment.ErrSessionNotFound)
}

func TestSubmit_Expired(t *testing.T) {
	f := newFixture(t, nil)
	started := startTurkishEnglish(t, f)

	f.now = f.now.Add(2*time.Hour + time.Minute)

	progress, err := f.assessor.Status(context.Background(), started.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, assessment.StatusExpired, progress.Status)
	assert.True(t, progress.Expired)

	_, err = f.assessor.Submit(context.Background(), SubmitInput{SessionID: started.Session.ID, Answer: "hello there"})
	assert.ErrorIs(t, err, assessment.ErrSessionExpired)

	_, err = f.assessor.Complete(context.Background(), started.Session.ID)
	assert.ErrorIs(t, err, assessment.ErrSessionExpired)
}

func TestSubmit_ExpiredWithoutStatus(t *testing.T) {
	f := newFixture(t, nil)
	started := startTurkishEnglish(t, f)

	f.now = f.now.Add(3 * time.Hour)

	_, err := f.assessor.Submit(context.Background(), SubmitInput{SessionID: started.Session.ID, Answer: "hello there"})
	assert.ErrorIs(t, err, assessment.ErrSessionExpired)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, nil)
	started := startTurkishEnglish(t, f)

	found, err := f.assessor.Cancel(context.Background(), started.Session.ID)
	require.NoError(t, err)
	assert.True(t, found)

	_, err = f.assessor.Submit(context.Background(), SubmitInput{SessionID: started.Session.ID, Answer: "hello"})
	assert.ErrorIs(t, err, assessment.ErrSessionNotActive)

	found, err = f.assessor.Cancel(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCurrentQuestion(t *testing.T) {
	f := newFixture(t, llm.NewMockProvider().Repeat(llm.MockText(steadyReply)))
	started := startTurkishEnglish(t, f)

	q, err := f.assessor.CurrentQuestion(context.Background(), started.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, started.Question, q)

	turn, err := f.assessor.Submit(context.Background(), SubmitInput{SessionID: started.Session.ID, Answer: "An answer."})
	require.NoError(t, err)

	q, err = f.assessor.CurrentQuestion(context.Background(), started.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, *turn.Next, q)

	f.now = f.now.Add(3 * time.Hour)
	_, err = f.assessor.CurrentQuestion(context.Background(), started.Session.ID)
	assert.ErrorIs(t, err, assessment.ErrSessionExpired)
}

func TestHistory(t *testing.T) {
	f := newFixture(t, nil)
	first := startTurkishEnglish(t, f)
	_, err := f.assessor.Cancel(context.Background(), first.Session.ID)
	require.NoError(t, err)

	f.now = f.now.Add(time.Minute)
	second := startTurkishEnglish(t, f)

	history, err := f.assessor.History(context.Background(), "learner-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.Session.ID, history[0].SessionID)
	assert.Equal(t, assessment.StatusActive, history[0].Status)
	assert.Equal(t, assessment.StatusCancelled, history[1].Status)
}
