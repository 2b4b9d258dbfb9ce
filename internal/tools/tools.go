// Package tools provides the registered MCP tools and task sub-processors
// for this deployment: a handful of sample tools (echo, slow, numeric), an
// AI-assisted description generator (describe_tool) backed by
// internal/providers and internal/cache, and the browser-automation and
// travel-research task sub-processors that drive internal/executor.
package tools

import (
	"fmt"
	"time"

	"github.com/argo-mcp/argo/internal/mcp"
)

// Sample builds the descriptors and handlers for the fixed sample tools:
// echo, slow, numeric.
func Sample() ([]mcp.ToolDescriptor, map[string]mcp.Handler) {
	descriptors := []mcp.ToolDescriptor{
		{
			Name:        "echo",
			Description: "Echoes the supplied text back to the caller.",
			Enabled:     true,
			Parameters: []mcp.ParameterDescriptor{
				{Name: "text", Type: mcp.ParamString, Required: true, Description: "Text to echo back."},
			},
		},
		{
			Name:        "slow",
			Description: "Sleeps for the requested number of milliseconds before returning, for exercising tool-call timeouts.",
			Enabled:     true,
			Parameters: []mcp.ParameterDescriptor{
				{Name: "ms", Type: mcp.ParamInteger, Required: true, Description: "Milliseconds to sleep."},
			},
		},
		{
			Name:        "numeric",
			Description: "Validates a bounded numeric parameter, for exercising min/max boundary checks.",
			Enabled:     true,
			Parameters: []mcp.ParameterDescriptor{
				{Name: "x", Type: mcp.ParamDouble, Required: true, HasMin: true, Min: 0, HasMax: true, Max: 1, Description: "A value in [0, 1]."},
			},
		},
	}

	handlers := map[string]mcp.Handler{
		"echo": func(_ mcp.HandlerContext, args map[string]any) (any, error) {
			return args["text"], nil
		},
		"slow": func(hctx mcp.HandlerContext, args map[string]any) (any, error) {
			ms, _ := args["ms"].(int64)
			timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
			defer timer.Stop()
			select {
			case <-timer.C:
				return "done", nil
			case <-hctx.Ctx.Done():
				return nil, hctx.Ctx.Err()
			}
		},
		"numeric": func(_ mcp.HandlerContext, args map[string]any) (any, error) {
			x, _ := args["x"].(float64)
			return fmt.Sprintf("accepted %v", x), nil
		},
	}

	return descriptors, handlers
}
