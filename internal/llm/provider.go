package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider is the scoring backend abstraction. The evaluator sends one
// Request per learner answer and reads either labeled text or, when a
// Schema is attached, structured JSON.
type Provider interface {
	// Generate performs a single blocking call. Implementations must not
	// retry internally; callers bound latency with the context deadline.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the backend.
type Request struct {
	// System carries the evaluation instructions.
	System string

	// Messages holds the conversation turns. For answer scoring this is a
	// single user message containing the question and the learner's reply.
	Messages []Message

	// Schema, when set, asks the provider for JSON conforming to it.
	// When nil, Content is the raw reply text.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the backend.
type Schema struct {
	// Name identifies this schema, e.g. "answer-evaluation".
	Name string

	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the backend's output.
type Response struct {
	// Content is the validated JSON object when the request carried a
	// Schema, otherwise the reply text as returned.
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Text returns Content as plain text. A JSON string literal is unquoted;
// anything else is returned verbatim.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	raw := strings.TrimSpace(string(r.Content))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s
		}
	}
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
