package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/levelcheck/internal/store"
)

// LoggingProvider is a decorator that records every backend request as an
// LLM event, including token usage and estimated cost.
type LoggingProvider struct {
	inner  Provider
	events store.LLMEventRepo
	log    zerolog.Logger
	now    func() time.Time
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, events store.LLMEventRepo, log zerolog.Logger) Provider {
	return &LoggingProvider{inner: p, events: events, log: log, now: time.Now}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := l.now()

	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMEvent{
		SessionID:   SessionIDFrom(ctx),
		Provider:    l.inner.ModelID(),
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   l.now().Sub(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
		CreatedAt:   start,
	}

	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			ev.Model = resp.Model
		}
		ev.ResponseBody = string(resp.Content)
		if c := LookupCost(ev.Model); c != nil {
			ev.CostUSD = c.Cost(ev.InputTokens, ev.OutputTokens)
		}
	}

	if err != nil {
		ev.ErrorKind = Kind(err)
		ev.ErrorMessage = err.Error()
	}

	// Recording failures never fail the request. The caller's context may
	// already be done, so the write gets its own short deadline.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if logErr := l.events.AppendLLMEvent(wctx, ev); logErr != nil {
		l.log.Error().Err(logErr).Str("purpose", ev.Purpose).Msg("failed to record LLM request event")
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the backend request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.Write(def)
			b.WriteString("\n")
		}
	}

	return b.String()
}
