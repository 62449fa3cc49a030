package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/levelcheck/internal/assessment"
)

const learnersTable = "learners"

// ErrLearnerExists is returned by LearnerRepo.Create for a duplicate id.
var ErrLearnerExists = errors.New("learner already exists")

// LearnerRepo reads and writes the learner fields the assessment needs.
type LearnerRepo struct {
	db      *sql.DB
	dialect string
}

// Create inserts a new learner.
func (r *LearnerRepo) Create(ctx context.Context, l *assessment.Learner) error {
	query, args := entsql.Dialect(r.dialect).
		Insert(learnersTable).
		Columns("id", "name", "assessed_level", "assessed_at", "created_at").
		Values(l.ID, l.Name, string(l.AssessedLevel), toNullNanos(l.AssessedAt), toNanos(l.CreatedAt)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrLearnerExists
		}
		return fmt.Errorf("insert learner: %w", err)
	}
	return nil
}

// Get returns the learner or assessment.ErrLearnerNotFound.
func (r *LearnerRepo) Get(ctx context.Context, id string) (*assessment.Learner, error) {
	query, args := entsql.Dialect(r.dialect).
		Select("id", "name", "assessed_level", "assessed_at", "created_at").
		From(entsql.Table(learnersTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		l        assessment.Learner
		level    string
		assessed *int64
		created  int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&l.ID, &l.Name, &level, &assessed, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, assessment.ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query learner %s: %w", id, err)
	}

	l.AssessedLevel = assessment.Level(level)
	l.AssessedAt = fromNullNanos(assessed)
	l.CreatedAt = fromNanos(created)
	return &l, nil
}

// Update writes the learner's name and assessment outcome.
func (r *LearnerRepo) Update(ctx context.Context, l *assessment.Learner) error {
	query, args := entsql.Dialect(r.dialect).
		Update(learnersTable).
		Set("name", l.Name).
		Set("assessed_level", string(l.AssessedLevel)).
		Set("assessed_at", toNullNanos(l.AssessedAt)).
		Where(entsql.EQ("id", l.ID)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update learner %s: %w", l.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assessment.ErrLearnerNotFound
	}
	return nil
}
