// Package session owns the assessment session lifecycle: start, turn
// advancement, completion, cancellation and lazy expiry. All mutations of a
// learner's sessions run under a per-learner lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abhisek/levelcheck/internal/assessment"
	"github.com/abhisek/levelcheck/internal/estimator"
	"github.com/abhisek/levelcheck/internal/locker"
)

// DefaultTimeout is how long a session stays active after creation.
const DefaultTimeout = 2 * time.Hour

// SessionStore persists sessions. Create must reject a second active session
// for the same learner with assessment.ErrSessionAlreadyExists, and Get must
// return assessment.ErrSessionNotFound for unknown ids.
type SessionStore interface {
	Create(ctx context.Context, s *assessment.Session) error
	Get(ctx context.Context, id string) (*assessment.Session, error)
	Update(ctx context.Context, s *assessment.Session) error
	ActiveByLearner(ctx context.Context, learnerID string) (*assessment.Session, error)
	ListByLearner(ctx context.Context, learnerID string, limit int) ([]*assessment.Session, error)
}

// LearnerStore reads and updates learner records. Get must return
// assessment.ErrLearnerNotFound for unknown ids.
type LearnerStore interface {
	Get(ctx context.Context, id string) (*assessment.Learner, error)
	Update(ctx context.Context, l *assessment.Learner) error
}

// TurnFunc scores one answer against the locked session and returns the
// response to append. It must not modify s.
type TurnFunc func(ctx context.Context, s *assessment.Session) (assessment.Response, error)

// Manager drives sessions through their states.
type Manager struct {
	sessions SessionStore
	learners LearnerStore
	locks    locker.Locker
	timeout  time.Duration
	now      func() time.Time
	newID    func() string
	log      zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLocker replaces the default in-process locker.
func WithLocker(l locker.Locker) Option {
	return func(m *Manager) { m.locks = l }
}

// WithTimeout sets the session expiry window.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator replaces the UUID session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// NewManager creates a Manager.
func NewManager(sessions SessionStore, learners LearnerStore, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		sessions: sessions,
		learners: learners,
		locks:    locker.NewLocal(),
		timeout:  DefaultTimeout,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Timeout returns the configured expiry window.
func (m *Manager) Timeout() time.Duration { return m.timeout }

// Start opens a new active session for learnerID. An existing active session
// past its timeout is expired first; an unexpired one fails the call with
// assessment.ErrSessionAlreadyExists.
func (m *Manager) Start(ctx context.Context, learnerID string, pair assessment.LanguagePair) (*assessment.Session, error) {
	unlock, err := m.lockLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := m.learners.Get(ctx, learnerID); err != nil {
		return nil, err
	}

	active, err := m.sessions.ActiveByLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	if active != nil {
		if !active.Expired(m.now(), m.timeout) {
			return nil, assessment.ErrSessionAlreadyExists
		}
		if err := m.expire(ctx, active); err != nil {
			return nil, err
		}
	}

	s := assessment.NewSession(m.newID(), learnerID, pair, m.now().UTC())
	if err := m.sessions.Create(ctx, s); err != nil {
		if errors.Is(err, assessment.ErrSessionAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.log.Info().
		Str("session_id", s.ID).
		Str("learner_id", learnerID).
		Str("pair", pair.String()).
		Msg("assessment session started")
	return s, nil
}

// Advance appends the response produced by turn to an active session and
// recomputes the running estimate. The lock is held while turn runs.
func (m *Manager) Advance(ctx context.Context, sessionID string, turn TurnFunc) (*assessment.Session, error) {
	var out *assessment.Session
	err := m.withSession(ctx, sessionID, func(s *assessment.Session) error {
		if err := m.ensureActive(ctx, s); err != nil {
			return err
		}

		resp, err := turn(ctx, s)
		if err != nil {
			return err
		}

		responses := append(slices.Clone(s.Responses), resp)
		if err := s.AddResponse(resp, estimator.RunningLevel(responses)); err != nil {
			return err
		}
		if err := m.sessions.Update(ctx, s); err != nil {
			return fmt.Errorf("save response: %w", err)
		}
		out = s
		return nil
	})
	return out, err
}

// Complete closes an active session with its final level and writes that
// level to the learner record. Calling it on a session that is no longer
// active fails with assessment.ErrSessionNotActive.
func (m *Manager) Complete(ctx context.Context, sessionID string) (*Summary, error) {
	var summary *Summary
	err := m.withSession(ctx, sessionID, func(s *assessment.Session) error {
		if err := m.ensureActive(ctx, s); err != nil {
			return err
		}

		now := m.now().UTC()
		final := estimator.FinalLevel(s.Responses)

		learner, err := m.learners.Get(ctx, s.LearnerID)
		if err != nil {
			return err
		}
		learner.AssessedLevel = final
		learner.AssessedAt = &now
		if err := m.learners.Update(ctx, learner); err != nil {
			return fmt.Errorf("update learner %s: %w", learner.ID, err)
		}

		if err := s.Complete(final, now); err != nil {
			return err
		}
		if err := m.sessions.Update(ctx, s); err != nil {
			return fmt.Errorf("save completed session: %w", err)
		}

		summary = BuildSummary(s)
		m.log.Info().
			Str("session_id", s.ID).
			Str("learner_id", s.LearnerID).
			Str("final_level", final.String()).
			Int("responses", len(s.Responses)).
			Msg("assessment session completed")
		return nil
	})
	return summary, err
}

// Cancel abandons an active session. It reports found=false without error
// for unknown ids and does nothing for sessions that are already terminal.
func (m *Manager) Cancel(ctx context.Context, sessionID string) (found bool, err error) {
	err = m.withSession(ctx, sessionID, func(s *assessment.Session) error {
		if s.Status.Terminal() {
			return nil
		}
		if s.Expired(m.now(), m.timeout) {
			return m.expire(ctx, s)
		}
		if err := s.Cancel(); err != nil {
			return err
		}
		if err := m.sessions.Update(ctx, s); err != nil {
			return fmt.Errorf("save cancelled session: %w", err)
		}
		m.log.Info().Str("session_id", s.ID).Str("learner_id", s.LearnerID).Msg("assessment session cancelled")
		return nil
	})
	if errors.Is(err, assessment.ErrSessionNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Status returns the session, persisting an overdue expiry first.
func (m *Manager) Status(ctx context.Context, sessionID string) (*assessment.Session, error) {
	var out *assessment.Session
	err := m.withSession(ctx, sessionID, func(s *assessment.Session) error {
		if s.Expired(m.now(), m.timeout) {
			if err := m.expire(ctx, s); err != nil {
				return err
			}
		}
		out = s
		return nil
	})
	return out, err
}

// History lists the learner's sessions, newest first. Overdue sessions are
// reported as expired without being written back.
func (m *Manager) History(ctx context.Context, learnerID string, limit int) ([]*assessment.Session, error) {
	sessions, err := m.sessions.ListByLearner(ctx, learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", learnerID, err)
	}
	now := m.now()
	for _, s := range sessions {
		if s.Expired(now, m.timeout) {
			_ = s.Expire()
		}
	}
	return sessions, nil
}
