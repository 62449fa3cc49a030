package session

import (
	"context"
	"fmt"

	"github.com/abhisek/levelcheck/internal/assessment"
)

func learnerKey(learnerID string) string {
	return "levelcheck:learner:" + learnerID
}

func (m *Manager) lockLearner(ctx context.Context, learnerID string) (func(), error) {
	unlock, err := m.locks.Lock(ctx, learnerKey(learnerID))
	if err != nil {
		return nil, fmt.Errorf("lock learner %s: %w", learnerID, err)
	}
	return unlock, nil
}

// withSession runs fn on a freshly loaded copy of the session while holding
// its learner's lock. The first load only discovers the learner id.
func (m *Manager) withSession(ctx context.Context, sessionID string, fn func(s *assessment.Session) error) error {
	s, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	unlock, err := m.lockLearner(ctx, s.LearnerID)
	if err != nil {
		return err
	}
	defer unlock()

	if s, err = m.sessions.Get(ctx, sessionID); err != nil {
		return err
	}
	return fn(s)
}

// ensureActive rejects terminal sessions and expires overdue ones. An
// expired session reports ErrSessionExpired whether or not it was marked
// before this call.
func (m *Manager) ensureActive(ctx context.Context, s *assessment.Session) error {
	if s.Status == assessment.StatusExpired {
		return assessment.ErrSessionExpired
	}
	if s.Status.Terminal() {
		return assessment.ErrSessionNotActive
	}
	if s.Expired(m.now(), m.timeout) {
		if err := m.expire(ctx, s); err != nil {
			return err
		}
		return assessment.ErrSessionExpired
	}
	return nil
}

func (m *Manager) expire(ctx context.Context, s *assessment.Session) error {
	if err := s.Expire(); err != nil {
		return err
	}
	if err := m.sessions.Update(ctx, s); err != nil {
		return fmt.Errorf("save expired session: %w", err)
	}
	m.log.Info().
		Str("session_id", s.ID).
		Str("learner_id", s.LearnerID).
		Dur("age", m.now().Sub(s.CreatedAt)).
		Msg("assessment session expired")
	return nil
}
