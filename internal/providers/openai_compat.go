package providers

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// OpenAICompatProvider implements Provider for any OpenAI-compatible chat
// completions API (OpenAI itself, or a GLM/Kimi/MiniMax-style endpoint
// reachable over the same wire format with a different BaseURL).
type OpenAICompatProvider struct {
	client  *openai.Client
	modelID string
}

// NewOpenAICompatProvider creates a provider against baseURL using modelID.
func NewOpenAICompatProvider(apiKey, modelID, baseURL string) *OpenAICompatProvider {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return &OpenAICompatProvider{client: &client, modelID: modelID}
}

func (p *OpenAICompatProvider) Name() string    { return "openai_compat" }
func (p *OpenAICompatProvider) ModelID() string { return p.modelID }

func (p *OpenAICompatProvider) Complete(ctx context.Context, req CompletionRequest) (<-chan Event, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(req.SystemPrompt),
				},
			},
		})
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(m.Text),
					},
				},
			})
		default:
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(m.Text),
					},
				},
			})
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.modelID),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)

	events := make(chan Event, 16)
	go p.processStream(stream, events)
	return events, nil
}

func (p *OpenAICompatProvider) processStream(stream *ssestream.Stream[openai.ChatCompletionChunk], events chan<- Event) {
	defer close(events)
	defer stream.Close()

	var inputTokens, outputTokens int
	for stream.Next() {
		chunk := stream.Current()
		if chunk.Usage.PromptTokens > 0 || chunk.Usage.CompletionTokens > 0 {
			inputTokens = int(chunk.Usage.PromptTokens)
			outputTokens = int(chunk.Usage.CompletionTokens)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			events <- Event{Type: "text_delta", Text: text}
		}
	}

	if err := stream.Err(); err != nil {
		events <- Event{Type: "error", Error: err.Error()}
		return
	}

	events <- Event{
		Type:  "done",
		Usage: &Usage{InputTokens: inputTokens, OutputTokens: outputTokens},
	}
}
