package tools

import (
	"context"
	"testing"

	"github.com/argo-mcp/argo/internal/cache"
	"github.com/argo-mcp/argo/internal/mcp"
	"github.com/argo-mcp/argo/internal/providers"
)

type fakeProvider struct {
	name, model, text string
}

func (p fakeProvider) Name() string    { return p.name }
func (p fakeProvider) ModelID() string { return p.model }

func (p fakeProvider) Complete(context.Context, providers.CompletionRequest) (<-chan providers.Event, error) {
	ch := make(chan providers.Event, 2)
	ch <- providers.Event{Type: "text_delta", Text: p.text}
	ch <- providers.Event{Type: "done", Usage: &providers.Usage{InputTokens: 10, OutputTokens: 5}}
	close(ch)
	return ch, nil
}

func newTestRegistry(t *testing.T) *mcp.Registry {
	t.Helper()
	reg := mcp.NewRegistry()
	descriptors, handlers := Sample()
	if err := reg.Register(descriptors, handlers); err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

func TestDescribeToolGeneratesAndCaches(t *testing.T) {
	reg := newTestRegistry(t)
	provider := fakeProvider{name: "anthropic", model: "claude-test-model", text: "Echoes text back."}
	store := cache.NewInMemoryCache()

	_, handler := DescribeTool(reg, provider, store)

	out, err := handler(mcp.HandlerContext{Ctx: context.Background()}, map[string]any{"tool_name": "echo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Echoes text back." {
		t.Errorf("out = %v", out)
	}

	key := cache.Key{ToolName: "echo", ProviderModel: "anthropic:claude-test-model"}
	entry, hit := store.Get(key)
	if !hit {
		t.Fatal("expected description to be cached")
	}
	if entry.Description != "Echoes text back." {
		t.Errorf("cached description = %q", entry.Description)
	}
}

func TestDescribeToolUnknownTool(t *testing.T) {
	reg := newTestRegistry(t)
	provider := fakeProvider{name: "anthropic", model: "claude-test-model", text: "x"}
	store := cache.NewInMemoryCache()
	_, handler := DescribeTool(reg, provider, store)

	_, err := handler(mcp.HandlerContext{Ctx: context.Background()}, map[string]any{"tool_name": "no_such_tool"})
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	mcpErr, ok := err.(*mcp.Error)
	if !ok || mcpErr.Kind != mcp.ToolNotFound {
		t.Errorf("err = %v, want ToolNotFound", err)
	}
}
