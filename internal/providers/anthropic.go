package providers

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// AnthropicProvider implements Provider for Claude models via the official
// Anthropic SDK with streaming.
type AnthropicProvider struct {
	client  *anthropic.Client
	modelID string
}

// NewAnthropicProvider creates a provider for the given Claude model ID.
// The model ID is an operator-supplied config string, not a hardcoded
// roster — this deployment has no product-specific model list.
func NewAnthropicProvider(apiKey, modelID string) *AnthropicProvider {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicProvider{client: &client, modelID: modelID}
}

func (p *AnthropicProvider) Name() string    { return "anthropic" }
func (p *AnthropicProvider) ModelID() string { return p.modelID }

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (<-chan Event, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Text)
		switch m.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(block))
		default:
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.modelID),
		MaxTokens: int64(req.MaxTokens),
		Messages:  messages,
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	stream := p.client.Messages.NewStreaming(ctx, params)

	events := make(chan Event, 16)
	go p.processStream(stream, events)
	return events, nil
}

func (p *AnthropicProvider) processStream(stream *ssestream.Stream[anthropic.MessageStreamEventUnion], events chan<- Event) {
	defer close(events)
	defer stream.Close()

	accum := anthropic.Message{}
	for stream.Next() {
		evt := stream.Current()
		_ = accum.Accumulate(evt)

		if cbd, ok := evt.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if delta, ok := cbd.Delta.AsAny().(anthropic.TextDelta); ok {
				events <- Event{Type: "text_delta", Text: delta.Text}
			}
		}
	}

	if err := stream.Err(); err != nil {
		events <- Event{Type: "error", Error: err.Error()}
		return
	}

	events <- Event{
		Type: "done",
		Usage: &Usage{
			InputTokens:  int(accum.Usage.InputTokens),
			OutputTokens: int(accum.Usage.OutputTokens),
		},
	}
}
