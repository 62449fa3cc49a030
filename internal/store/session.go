package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/levelcheck/internal/assessment"
)

const (
	sessionsTable  = "assessment_sessions"
	responsesTable = "assessment_responses"
)

var sessionColumns = []string{
	"id", "learner_id", "native_language", "target_language", "turn_index",
	"estimated_level", "status", "created_at", "completed_at", "final_level",
}

var responseColumns = []string{
	"session_id", "position", "question_id", "answer", "evaluation",
	"complexity", "accuracy", "fluency", "feedback", "fallback", "created_at",
}

// SessionRepo persists assessment sessions and their responses.
type SessionRepo struct {
	db      *sql.DB
	dialect string
}

// Create inserts a new session. A second active session for the same
// learner is rejected with assessment.ErrSessionAlreadyExists.
func (r *SessionRepo) Create(ctx context.Context, s *assessment.Session) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		query, args := entsql.Dialect(r.dialect).
			Insert(sessionsTable).
			Columns(sessionColumns...).
			Values(
				s.ID, s.LearnerID, s.Pair.Native, s.Pair.Target, s.TurnIndex,
				string(s.Estimate), string(s.Status), toNanos(s.CreatedAt),
				toNullNanos(s.CompletedAt), string(s.FinalLevel),
			).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return assessment.ErrSessionAlreadyExists
			}
			return fmt.Errorf("insert session: %w", err)
		}
		return r.insertResponses(ctx, tx, s, 0)
	})
}

// Get loads a session with its responses in order.
func (r *SessionRepo) Get(ctx context.Context, id string) (*assessment.Session, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(sessionColumns...).
		From(entsql.Table(sessionsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, assessment.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", id, err)
	}

	if s.Responses, err = r.responses(ctx, id); err != nil {
		return nil, err
	}
	return s, nil
}

// ActiveByLearner returns the learner's active session, or nil if there is none.
// The session may already be past its timeout; callers decide.
func (r *SessionRepo) ActiveByLearner(ctx context.Context, learnerID string) (*assessment.Session, error) {
	query, args := entsql.Dialect(r.dialect).
		Select("id").
		From(entsql.Table(sessionsTable)).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.EQ("status", string(assessment.StatusActive)),
		)).
		Limit(1).
		Query()

	var id string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active session: %w", err)
	}
	return r.Get(ctx, id)
}

// Update writes the session's mutable fields and appends any responses not
// yet stored. Stored responses are never rewritten.
func (r *SessionRepo) Update(ctx context.Context, s *assessment.Session) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		query, args := entsql.Dialect(r.dialect).
			Update(sessionsTable).
			Set("turn_index", s.TurnIndex).
			Set("estimated_level", string(s.Estimate)).
			Set("status", string(s.Status)).
			Set("completed_at", toNullNanos(s.CompletedAt)).
			Set("final_level", string(s.FinalLevel)).
			Where(entsql.EQ("id", s.ID)).
			Query()

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return assessment.ErrSessionAlreadyExists
			}
			return fmt.Errorf("update session %s: %w", s.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return assessment.ErrSessionNotFound
		}

		countQuery, countArgs := entsql.Dialect(r.dialect).
			Select(entsql.Count("*")).
			From(entsql.Table(responsesTable)).
			Where(entsql.EQ("session_id", s.ID)).
			Query()
		var stored int
		if err := tx.QueryRowContext(ctx, countQuery, countArgs...).Scan(&stored); err != nil {
			return fmt.Errorf("count responses: %w", err)
		}
		if stored > len(s.Responses) {
			return fmt.Errorf("update session %s: %d responses stored but only %d in memory", s.ID, stored, len(s.Responses))
		}
		return r.insertResponses(ctx, tx, s, stored)
	})
}

// ListByLearner returns the learner's sessions, newest first. limit <= 0
// returns all of them.
func (r *SessionRepo) ListByLearner(ctx context.Context, learnerID string, limit int) ([]*assessment.Session, error) {
	sel := entsql.Dialect(r.dialect).
		Select(sessionColumns...).
		From(entsql.Table(sessionsTable)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*assessment.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range sessions {
		if s.Responses, err = r.responses(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

func (r *SessionRepo) insertResponses(ctx context.Context, tx *sql.Tx, s *assessment.Session, from int) error {
	if from >= len(s.Responses) {
		return nil
	}
	ins := entsql.Dialect(r.dialect).Insert(responsesTable).Columns(responseColumns...)
	for i := from; i < len(s.Responses); i++ {
		resp := s.Responses[i]
		ins = ins.Values(
			s.ID, i, resp.QuestionID, resp.Answer, resp.Evaluation,
			resp.Scores.Complexity, resp.Scores.Accuracy, resp.Scores.Fluency,
			resp.Feedback, resp.Fallback, toNanos(resp.CreatedAt),
		)
	}
	query, args := ins.Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert responses: %w", err)
	}
	return nil
}

func (r *SessionRepo) responses(ctx context.Context, sessionID string) ([]assessment.Response, error) {
	query, args := entsql.Dialect(r.dialect).
		Select("question_id", "answer", "evaluation", "complexity", "accuracy", "fluency", "feedback", "fallback", "created_at").
		From(entsql.Table(responsesTable)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("position").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	out := []assessment.Response{}
	for rows.Next() {
		var (
			resp    assessment.Response
			created int64
		)
		if err := rows.Scan(
			&resp.QuestionID, &resp.Answer, &resp.Evaluation,
			&resp.Scores.Complexity, &resp.Scores.Accuracy, &resp.Scores.Fluency,
			&resp.Feedback, &resp.Fallback, &created,
		); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		resp.CreatedAt = fromNanos(created)
		out = append(out, resp)
	}
	return out, rows.Err()
}

func (r *SessionRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*assessment.Session, error) {
	var (
		s                       assessment.Session
		estimate, status, final string
		created                 int64
		completed               *int64
	)
	if err := row.Scan(
		&s.ID, &s.LearnerID, &s.Pair.Native, &s.Pair.Target, &s.TurnIndex,
		&estimate, &status, &created, &completed, &final,
	); err != nil {
		return nil, err
	}

	st, err := assessment.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	s.Status = st
	s.Estimate = assessment.Level(estimate)
	s.FinalLevel = assessment.Level(final)
	s.CreatedAt = fromNanos(created)
	s.CompletedAt = fromNullNanos(completed)
	s.Responses = []assessment.Response{}
	return &s, nil
}
