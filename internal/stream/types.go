package stream

import (
	"context"

	"taskpilot/internal/toolcall"
)

// Message is one entry of the conversation history sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolSpec is a tool definition attached to a provider request.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// Request describes one streaming completion.
type Request struct {
	Messages []Message
	Tools    []ToolSpec
}

// Event is one item of a provider stream: a token delta, a tool-call
// emission, or a stream-level error. Exactly one field is set.
type Event struct {
	Text     string
	ToolCall *toolcall.Emission
	Err      error
}

// Provider produces streaming completions. The returned channel closes when
// the stream ends or the context fires.
type Provider interface {
	Stream(ctx context.Context, req Request) (<-chan Event, error)
}

// Update carries accumulated text surfaced to observers. Final marks the
// last update of a stream.
type Update struct {
	Text  string
	Final bool
}
