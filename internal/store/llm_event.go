package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const llmEventsTableName = "llm_events"

// LLMEvent is one recorded scoring backend call.
type LLMEvent struct {
	ID           int64
	SessionID    string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorKind    string
	ErrorMessage string
	CostUSD      float64
	RequestBody  string
	ResponseBody string
	CreatedAt    time.Time
}

// LLMEventFilter narrows ListLLMEvents. Zero values match everything.
type LLMEventFilter struct {
	Limit     int
	Purpose   string
	SessionID string
}

// LLMEventRepo records and reads LLM request events.
type LLMEventRepo interface {
	AppendLLMEvent(ctx context.Context, ev LLMEvent) error

	// ListLLMEvents returns events newest first.
	ListLLMEvents(ctx context.Context, f LLMEventFilter) ([]LLMEvent, error)

	// GetLLMEvent returns the event or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error)
}

var llmEventColumns = []string{
	"session_id", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_kind", "error_message", "cost_usd",
	"request_body", "response_body", "created_at",
}

type llmEventRepo struct {
	db      *sql.DB
	dialect string
}

func (r *llmEventRepo) AppendLLMEvent(ctx context.Context, ev LLMEvent) error {
	created := ev.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	query, args := entsql.Dialect(r.dialect).
		Insert(llmEventsTableName).
		Columns(llmEventColumns...).
		Values(
			ev.SessionID, ev.Provider, ev.Model, ev.Purpose, ev.InputTokens, ev.OutputTokens,
			ev.LatencyMs, ev.Success, ev.ErrorKind, ev.ErrorMessage, ev.CostUSD,
			ev.RequestBody, ev.ResponseBody, toNanos(created),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM event: %w", err)
	}
	return nil
}

func (r *llmEventRepo) ListLLMEvents(ctx context.Context, f LLMEventFilter) ([]LLMEvent, error) {
	sel := entsql.Dialect(r.dialect).
		Select(append([]string{"id"}, llmEventColumns...)...).
		From(entsql.Table(llmEventsTableName)).
		OrderBy(entsql.Desc("id"))

	var preds []*entsql.Predicate
	if f.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", f.Purpose))
	}
	if f.SessionID != "" {
		preds = append(preds, entsql.EQ("session_id", f.SessionID))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	if f.Limit > 0 {
		sel = sel.Limit(f.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		ev, err := scanLLMEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

func (r *llmEventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(append([]string{"id"}, llmEventColumns...)...).
		From(entsql.Table(llmEventsTableName)).
		Where(entsql.EQ("id", id)).
		Query()

	ev, err := scanLLMEvent(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ev, err
}

func scanLLMEvent(row rowScanner) (*LLMEvent, error) {
	var (
		ev      LLMEvent
		created int64
	)
	err := row.Scan(
		&ev.ID, &ev.SessionID, &ev.Provider, &ev.Model, &ev.Purpose, &ev.InputTokens, &ev.OutputTokens,
		&ev.LatencyMs, &ev.Success, &ev.ErrorKind, &ev.ErrorMessage, &ev.CostUSD,
		&ev.RequestBody, &ev.ResponseBody, &created,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan LLM event: %w", err)
	}
	ev.CreatedAt = fromNanos(created)
	return &ev, nil
}
