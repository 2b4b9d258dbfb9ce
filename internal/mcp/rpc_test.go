package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func echoTool() (ToolDescriptor, Handler) {
	desc := ToolDescriptor{
		Name:        "echo",
		Description: "echoes the given text",
		Enabled:     true,
		Parameters: []ParameterDescriptor{
			{Name: "text", Type: ParamString, Required: true},
		},
	}
	handler := func(_ HandlerContext, args map[string]any) (any, error) {
		return args["text"], nil
	}
	return desc, handler
}

func slowTool(timeoutMs int) (ToolDescriptor, Handler) {
	desc := ToolDescriptor{
		Name:      "slow",
		TimeoutMs: timeoutMs,
		Parameters: []ParameterDescriptor{
			{Name: "ms", Type: ParamInteger, Required: true},
		},
	}
	handler := func(hctx HandlerContext, args map[string]any) (any, error) {
		ms := args["ms"].(int64)
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
			return "done", nil
		case <-hctx.Ctx.Done():
			return nil, hctx.Ctx.Err()
		}
	}
	return desc, handler
}

func numericTool() (ToolDescriptor, Handler) {
	desc := ToolDescriptor{
		Name: "numeric",
		Parameters: []ParameterDescriptor{
			{Name: "x", Type: ParamDouble, Required: true, Min: 0, Max: 1, HasMin: true, HasMax: true},
		},
	}
	handler := func(_ HandlerContext, args map[string]any) (any, error) {
		return args["x"], nil
	}
	return desc, handler
}

func newDispatcherWith(t *testing.T, tools ...func() (ToolDescriptor, Handler)) *Dispatcher {
	t.Helper()
	reg := NewRegistry()
	descs := make([]ToolDescriptor, 0, len(tools))
	handlers := make(map[string]Handler, len(tools))
	for _, build := range tools {
		d, h := build()
		descs = append(descs, d)
		handlers[d.Name] = h
	}
	if err := reg.Register(descs, handlers); err != nil {
		t.Fatalf("register: %v", err)
	}
	return NewDispatcher(reg, DefaultTimeout)
}

// Scenario 1: echo happy path.
func TestScenario_EchoHappyPath(t *testing.T) {
	d := newDispatcherWith(t, echoTool)
	req, perr := Parse([]byte(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}},"id":1}`))
	if perr != nil {
		t.Fatalf("parse: %v", perr)
	}
	resp := d.Dispatch(context.Background(), req)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if HTTPStatusFor(resp) != 200 {
		t.Fatalf("expected HTTP 200, got %d", HTTPStatusFor(resp))
	}
	result, ok := resp.Result.(ToolCallResult)
	if !ok {
		t.Fatalf("result is not a ToolCallResult: %T", resp.Result)
	}
	if result.IsError {
		t.Fatalf("expected isError=false")
	}
	text, ok := result.Content[0].(TextContent)
	if !ok || text.Text != "hi" {
		t.Fatalf("expected TextContent{hi}, got %#v", result.Content[0])
	}
}

// Scenario 2: missing required parameter.
func TestScenario_MissingRequiredParam(t *testing.T) {
	d := newDispatcherWith(t, echoTool)
	req, _ := Parse([]byte(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo","arguments":{}},"id":1}`))
	resp := d.Dispatch(context.Background(), req)
	if resp.Error == nil {
		t.Fatal("expected a JSON-RPC error")
	}
	if HTTPStatusFor(resp) != 400 {
		t.Fatalf("expected HTTP 400, got %d", HTTPStatusFor(resp))
	}
	if !strings.Contains(resp.Error.Message, "text") {
		t.Fatalf("expected error message to mention %q, got %q", "text", resp.Error.Message)
	}
}

// Scenario 3: slow tool times out with the configured timeout in the message.
func TestScenario_SlowToolTimesOut(t *testing.T) {
	d := newDispatcherWith(t, func() (ToolDescriptor, Handler) { return slowTool(100) })
	req, _ := Parse([]byte(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"slow","arguments":{"ms":500}},"id":1}`))
	resp := d.Dispatch(context.Background(), req)
	if resp.Error == nil {
		t.Fatal("expected a timeout error")
	}
	if HTTPStatusFor(resp) != 408 {
		t.Fatalf("expected HTTP 408, got %d", HTTPStatusFor(resp))
	}
	if !strings.Contains(resp.Error.Message, "100ms") {
		t.Fatalf("expected message to contain %q, got %q", "100ms", resp.Error.Message)
	}
}

// Scenario 4: numeric boundary accept/reject.
func TestScenario_NumericBoundary(t *testing.T) {
	d := newDispatcherWith(t, numericTool)

	reqOK, _ := Parse([]byte(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"numeric","arguments":{"x":1.0}},"id":1}`))
	respOK := d.Dispatch(context.Background(), reqOK)
	if respOK.Error != nil {
		t.Fatalf("expected boundary value to be accepted, got %v", respOK.Error)
	}

	reqBad, _ := Parse([]byte(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"numeric","arguments":{"x":1.0000001}},"id":1}`))
	respBad := d.Dispatch(context.Background(), reqBad)
	if respBad.Error == nil {
		t.Fatal("expected out-of-range value to be rejected")
	}
	if HTTPStatusFor(respBad) != 400 {
		t.Fatalf("expected HTTP 400, got %d", HTTPStatusFor(respBad))
	}
}

func TestParse_RejectsWrongVersion(t *testing.T) {
	_, err := Parse([]byte(`{"jsonrpc":"1.0","method":"tools/list","id":1}`))
	if err == nil || err.Kind != InvalidRequest {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestParse_RejectsMissingID(t *testing.T) {
	_, err := Parse([]byte(`{"jsonrpc":"2.0","method":"tools/list"}`))
	if err == nil || err.Kind != InvalidRequest {
		t.Fatalf("expected INVALID_REQUEST for a request without an id, got %v", err)
	}
}

func TestParse_RejectsEmptyMethod(t *testing.T) {
	_, err := Parse([]byte(`{"jsonrpc":"2.0","method":"","id":1}`))
	if err == nil || err.Kind != InvalidRequest {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestDispatch_UnknownMethod(t *testing.T) {
	d := newDispatcherWith(t, echoTool)
	req, _ := Parse([]byte(`{"jsonrpc":"2.0","method":"bogus","id":1}`))
	resp := d.Dispatch(context.Background(), req)
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatalf("expected METHOD_NOT_FOUND, got %v", resp.Error)
	}
}

func TestDispatch_ToolsList(t *testing.T) {
	d := newDispatcherWith(t, echoTool, numericTool)
	req, _ := Parse([]byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	resp := d.Dispatch(context.Background(), req)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	asJSON, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(asJSON), "echo") || !strings.Contains(string(asJSON), "numeric") {
		t.Fatalf("expected both tools listed, got %s", asJSON)
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	d := newDispatcherWith(t, echoTool)
	req, _ := Parse([]byte(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"nope","arguments":{}},"id":1}`))
	resp := d.Dispatch(context.Background(), req)
	if resp.Error == nil || HTTPStatusFor(resp) != 404 {
		t.Fatalf("expected 404 TOOL_NOT_FOUND, got %v", resp.Error)
	}
}
