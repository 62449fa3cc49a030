package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

// Timestamps are stored as Unix nanoseconds so both dialects round-trip
// them identically.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS learners (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL DEFAULT '',
		assessed_level TEXT NOT NULL DEFAULT '',
		assessed_at    BIGINT,
		created_at     BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS assessment_sessions (
		id              TEXT PRIMARY KEY,
		learner_id      TEXT NOT NULL REFERENCES learners(id),
		native_language TEXT NOT NULL,
		target_language TEXT NOT NULL,
		turn_index      INTEGER NOT NULL DEFAULT 0,
		estimated_level TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		created_at      BIGINT NOT NULL,
		completed_at    BIGINT,
		final_level     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS assessment_sessions_learner
		ON assessment_sessions (learner_id, created_at)`,
	// At most one active session per learner.
	`CREATE UNIQUE INDEX IF NOT EXISTS assessment_sessions_one_active
		ON assessment_sessions (learner_id) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS assessment_responses (
		session_id  TEXT NOT NULL REFERENCES assessment_sessions(id),
		position    INTEGER NOT NULL,
		question_id TEXT NOT NULL,
		answer      TEXT NOT NULL,
		evaluation  TEXT NOT NULL DEFAULT '',
		complexity  DOUBLE PRECISION NOT NULL,
		accuracy    DOUBLE PRECISION NOT NULL,
		fluency     DOUBLE PRECISION NOT NULL,
		feedback    TEXT NOT NULL DEFAULT '',
		fallback    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  BIGINT NOT NULL,
		PRIMARY KEY (session_id, position)
	)`,
}

func llmEventsTable(d string) string {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if d == dialect.Postgres {
		id = "BIGSERIAL PRIMARY KEY"
	}
	return `CREATE TABLE IF NOT EXISTS llm_events (
		id            ` + id + `,
		session_id    TEXT NOT NULL DEFAULT '',
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    BIGINT NOT NULL DEFAULT 0,
		success       BOOLEAN NOT NULL,
		error_kind    TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		cost_usd      DOUBLE PRECISION NOT NULL DEFAULT 0,
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT '',
		created_at    BIGINT NOT NULL
	)`
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := append(append([]string{}, schemaStatements...), llmEventsTable(s.dialect))
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
