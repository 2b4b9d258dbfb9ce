// Package providers adapts the third-party LLM SDKs used to pre-generate
// the human-readable tool descriptions the description-cache collaborator
// stores. Each adapter translates its
// native streaming API into the same small event stream.
package providers

import "context"

// Provider is the interface every LLM adapter implements.
type Provider interface {
	// Name returns the provider identifier ("anthropic", "openai_compat").
	Name() string

	// ModelID returns the model string sent to the API.
	ModelID() string

	// Complete sends a conversation to the LLM and returns a stream of
	// events. The caller reads from the channel until it is closed.
	// On error, an Event with Type="error" is sent before closing.
	Complete(ctx context.Context, req CompletionRequest) (<-chan Event, error)
}

// CompletionRequest is the provider-agnostic request format.
type CompletionRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
}

// Message is a single turn in the conversation.
type Message struct {
	Role string // "user" | "assistant"
	Text string
}

// Event is one item in the completion stream.
type Event struct {
	Type  string // "text_delta" | "done" | "error"
	Text  string // for type="text_delta"
	Error string // for type="error"
	Usage *Usage // for type="done"
}

// Usage contains token consumption for the completed request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
