package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/argo-mcp/argo/internal/cache"
	"github.com/argo-mcp/argo/internal/logger"
	"github.com/argo-mcp/argo/internal/mcp"
	"github.com/argo-mcp/argo/internal/providers"
)

// DescribeTool builds the descriptor and handler for the describe_tool
// meta-tool: it asks an LLM provider to write a human-readable description
// for an already-registered tool from its schema, storing the result in the
// description-cache collaborator keyed by (toolName, providerModel) so
// repeated calls are free.
func DescribeTool(reg *mcp.Registry, provider providers.Provider, store cache.Cache) (mcp.ToolDescriptor, mcp.Handler) {
	descriptor := mcp.ToolDescriptor{
		Name:        "describe_tool",
		Description: "Generates (and caches) a human-readable description of a registered tool by asking an AI provider to read its schema.",
		Enabled:     true,
		Parameters: []mcp.ParameterDescriptor{
			{Name: "tool_name", Type: mcp.ParamString, Required: true, Description: "Name of a registered tool to describe."},
			{Name: "force_regenerate", Type: mcp.ParamBoolean, Required: false, Description: "Regenerate even if a cached description exists."},
		},
	}

	handler := func(_ mcp.HandlerContext, args map[string]any) (any, error) {
		toolName, _ := args["tool_name"].(string)
		forceRegenerate, _ := args["force_regenerate"].(bool)

		target, ok := reg.Lookup(toolName)
		if !ok {
			return nil, mcp.NewError(mcp.ToolNotFound, fmt.Sprintf("no such tool: %q", toolName))
		}

		key := cache.Key{ToolName: toolName, ProviderModel: provider.Name() + ":" + provider.ModelID()}
		if !forceRegenerate {
			if entry, hit := store.Get(key); hit {
				store.IncrementUsage(key)
				return entry.Description, nil
			}
		}

		description, cost, err := generateDescription(provider, target)
		if err != nil {
			return nil, mcp.NewError(mcp.ToolExecution, fmt.Sprintf("description generation failed: %v", err))
		}

		store.Put(key, description, cost)
		logger.Info("describe_tool: generated description for %q via %s (%d chars)", toolName, key.ProviderModel, len(description))
		return description, nil
	}

	return descriptor, handler
}

func generateDescription(provider providers.Provider, target mcp.ToolDescriptor) (string, float64, error) {
	var paramLines strings.Builder
	for _, p := range target.Parameters {
		fmt.Fprintf(&paramLines, "- %s (%s, required=%v): %s\n", p.Name, p.Type, p.Required, p.Description)
	}

	req := providers.CompletionRequest{
		SystemPrompt: "You write one short, precise sentence describing what a developer tool does, for an AI agent deciding whether to call it.",
		Messages: []providers.Message{{
			Role: "user",
			Text: fmt.Sprintf("Tool name: %s\nExisting description: %s\nParameters:\n%s",
				target.Name, target.Description, paramLines.String()),
		}},
		MaxTokens: 256,
	}

	events, err := provider.Complete(context.Background(), req)
	if err != nil {
		return "", 0, err
	}

	var text strings.Builder
	var cost float64
	for evt := range events {
		switch evt.Type {
		case "text_delta":
			text.WriteString(evt.Text)
		case "error":
			return "", 0, fmt.Errorf("%s", evt.Error)
		case "done":
			if evt.Usage != nil {
				cost = float64(evt.Usage.InputTokens + evt.Usage.OutputTokens)
			}
		}
	}
	return strings.TrimSpace(text.String()), cost, nil
}
