package session

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/abhisek/levelcheck/internal/assessment"
)

// memStore is an in-memory SessionStore and LearnerStore.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*assessment.Session
	learners map[string]*assessment.Learner
	updates  int
}

func newMemStore(learnerIDs ...string) *memStore {
	m := &memStore{
		sessions: make(map[string]*assessment.Session),
		learners: make(map[string]*assessment.Learner),
	}
	for _, id := range learnerIDs {
		m.learners[id] = &assessment.Learner{ID: id, Name: id}
	}
	return m
}

func cloneSession(s *assessment.Session) *assessment.Session {
	c := *s
	c.Responses = slices.Clone(s.Responses)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func (m *memStore) Create(_ context.Context, s *assessment.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.sessions {
		if other.LearnerID == s.LearnerID && other.Status == assessment.StatusActive {
			return assessment.ErrSessionAlreadyExists
		}
	}
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*assessment.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, assessment.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (m *memStore) Update(_ context.Context, s *assessment.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return assessment.ErrSessionNotFound
	}
	m.sessions[s.ID] = cloneSession(s)
	m.updates++
	return nil
}

func (m *memStore) ActiveByLearner(_ context.Context, learnerID string) (*assessment.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.LearnerID == learnerID && s.Status == assessment.StatusActive {
			return cloneSession(s), nil
		}
	}
	return nil, nil
}

func (m *memStore) ListByLearner(_ context.Context, learnerID string, limit int) ([]*assessment.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*assessment.Session
	for _, s := range m.sessions {
		if s.LearnerID == learnerID {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) session(id string) *assessment.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSession(m.sessions[id])
}

// learnerStore exposes the learner half of memStore.
type learnerStore struct{ *memStore }

func (l learnerStore) Get(_ context.Context, id string) (*assessment.Learner, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lr, ok := l.learners[id]
	if !ok {
		return nil, assessment.ErrLearnerNotFound
	}
	c := *lr
	return &c, nil
}

func (l learnerStore) Update(_ context.Context, lr *assessment.Learner) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.learners[lr.ID]; !ok {
		return assessment.ErrLearnerNotFound
	}
	c := *lr
	l.learners[lr.ID] = &c
	return nil
}
