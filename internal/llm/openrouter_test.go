package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func newTestOpenRouterProvider(t *testing.T, handler http.HandlerFunc) *OpenRouterProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "openai/gpt-4o-mini",
		BaseURL: server.URL + "/api/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestNewOpenRouterProvider(t *testing.T) {
	t.Run("empty API key", func(t *testing.T) {
		if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "openai/gpt-4o-mini"}); err == nil {
			t.Fatal("expected error for empty API key")
		}
	})

	t.Run("vendor model IDs pass through", func(t *testing.T) {
		// Friendly names belong to the direct OpenAI provider only.
		p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "gpt-4o"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ModelID() != "gpt-4o" {
			t.Errorf("model = %q, want %q", p.ModelID(), "gpt-4o")
		}
	})
}

func TestOpenRouterProvider_ScoringCallIsRecorded(t *testing.T) {
	var path, auth, model string
	handler := func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		model = body.Model

		reply := openAICompletion(labeledReply, "stop")
		reply["model"] = "openai/gpt-4o-mini"
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	}

	events := &recordingEvents{}
	p := WithLogging(newTestOpenRouterProvider(t, handler), events, zerolog.Nop())

	ctx := WithSessionID(WithPurpose(context.Background(), "evaluate_response"), "session-42")
	resp, err := p.Generate(ctx, Request{
		System:      "You are an expert language assessment evaluator.",
		Messages:    []Message{{Role: RoleUser, Content: "Question: Describe your town.\n\nUser Response: It is quiet."}},
		MaxTokens:   500,
		Temperature: 0.1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != labeledReply {
		t.Fatalf("unexpected text %q", resp.Text())
	}

	if path != "/api/v1/chat/completions" {
		t.Errorf("path = %q", path)
	}
	if auth != "Bearer sk-or-test" {
		t.Errorf("authorization = %q", auth)
	}
	if model != "openai/gpt-4o-mini" {
		t.Errorf("requested model = %q", model)
	}

	if len(events.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.events))
	}
	ev := events.events[0]
	if ev.SessionID != "session-42" || ev.Purpose != "evaluate_response" {
		t.Errorf("event attribution = (%q, %q)", ev.SessionID, ev.Purpose)
	}
	if ev.Model != "openai/gpt-4o-mini" || !ev.Success {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.InputTokens != 40 || ev.OutputTokens != 25 {
		t.Errorf("tokens = %d/%d, want 40/25", ev.InputTokens, ev.OutputTokens)
	}
	if ev.CostUSD <= 0 {
		t.Errorf("expected a cost for a vendor-prefixed model, got %v", ev.CostUSD)
	}
}

func TestOpenRouterProvider_UnavailableIsSingleShot(t *testing.T) {
	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "no upstream available", "code": 503},
		})
	}

	events := &recordingEvents{}
	p := WithLogging(newTestOpenRouterProvider(t, handler), events, zerolog.Nop())

	_, err := p.Generate(WithPurpose(context.Background(), "evaluate_response"), Request{
		Messages:  []Message{{Role: RoleUser, Content: "x"}},
		MaxTokens: 10,
	})
	if Kind(err) != "unavailable" {
		t.Fatalf("Kind = %q (%v), want unavailable", Kind(err), err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly 1 request, got %d", n)
	}
	if len(events.events) != 1 || events.events[0].ErrorKind != "unavailable" {
		t.Fatalf("unexpected events %+v", events.events)
	}
}
