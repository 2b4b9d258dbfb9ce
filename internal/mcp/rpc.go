package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Request is a parsed JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 response. Exactly one of Result/Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// RPCError is the JSON-RPC wire error shape.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolCallParams is the shape of params for a tools/call request.
type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// DefaultTimeout is used when a tool does not declare its own TimeoutMs.
const DefaultTimeout = 10 * time.Second

// Dispatcher routes parsed JSON-RPC requests to the Registry and Mapper and
// formats the response.
type Dispatcher struct {
	Registry       *Registry
	DefaultTimeout time.Duration
}

// NewDispatcher constructs a Dispatcher over reg with the given default tool
// timeout (used when a tool's own TimeoutMs is zero).
func NewDispatcher(reg *Registry, defaultTimeout time.Duration) *Dispatcher {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	return &Dispatcher{Registry: reg, DefaultTimeout: defaultTimeout}
}

// Parse validates the raw JSON-RPC envelope shape.
func Parse(raw []byte) (Request, *Error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, NewError(ParseError, fmt.Sprintf("invalid JSON: %v", err))
	}
	if req.JSONRPC != "2.0" {
		return Request{}, NewError(InvalidRequest, `"jsonrpc" must be "2.0"`)
	}
	if req.Method == "" {
		return Request{}, NewError(InvalidRequest, `"method" must be non-empty`)
	}
	// Every supported method returns a result, so a request without an id
	// (a notification) has nothing to carry the result back on. An explicit
	// JSON null id still counts as present; only a wholly absent field is
	// rejected.
	if len(req.ID) == 0 {
		return Request{}, NewError(InvalidRequest, `non-notification requests must carry an "id"`)
	}
	return req, nil
}

// Dispatch routes req to the appropriate method handler and always returns
// a well-formed Response (errors are carried in Response.Error).
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	switch req.Method {
	case "tools/list":
		return d.handleToolsList(req)
	case "tools/call":
		return d.handleToolsCall(ctx, req)
	default:
		return errorResponse(req.ID, NewError(MethodNotFound, fmt.Sprintf("unknown method %q", req.Method)))
	}
}

func (d *Dispatcher) handleToolsList(req Request) Response {
	tools := d.Registry.List()
	return Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"tools": tools}}
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req Request) Response {
	var params toolCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, NewError(InvalidParams, fmt.Sprintf("invalid params: %v", err)))
		}
	}
	if params.Name == "" {
		return errorResponse(req.ID, NewError(InvalidParams, `"name" is required`))
	}

	result, callErr := d.CallTool(ctx, params.Name, params.Arguments)
	if callErr != nil {
		return errorResponse(req.ID, callErr)
	}
	return Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

// CallTool resolves name, maps arguments, invokes the handler under a
// timeout, and serialises the result. It is also used directly by the
// /v1/tools/call legacy shim.
func (d *Dispatcher) CallTool(ctx context.Context, name string, arguments map[string]any) (ToolCallResult, *Error) {
	descriptor, ok := d.Registry.Lookup(name)
	if !ok {
		return ToolCallResult{}, NewError(ToolNotFound, fmt.Sprintf("no such tool: %q", name))
	}
	handler, ok := d.Registry.HandlerFor(name)
	if !ok {
		return ToolCallResult{}, NewError(ToolNotFound, fmt.Sprintf("no such tool: %q", name))
	}

	args, mapErr := MapParameters(descriptor.Parameters, arguments)
	if mapErr != nil {
		var e *Error
		if ae, ok := mapErr.(*Error); ok {
			e = ae
		} else {
			e = NewError(ParameterValidation, mapErr.Error())
		}
		return ToolCallResult{}, e
	}

	timeout := d.DefaultTimeout
	if descriptor.TimeoutMs > 0 {
		timeout = time.Duration(descriptor.TimeoutMs) * time.Millisecond
	}

	return d.invoke(ctx, name, handler, args, timeout)
}

// invoke runs handler under timeout using the goroutine+channel+select
// pattern: the handler runs to completion on its own goroutine even past
// the deadline (it is the handler's job to observe ctx.Done() cooperatively
// between suspension points), but the caller stops waiting at the deadline.
func (d *Dispatcher) invoke(ctx context.Context, name string, handler Handler, args map[string]any, timeout time.Duration) (ToolCallResult, *Error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value any
		err   error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		hctx := HandlerContext{Ctx: callCtx}
		value, err := handler(hctx, args)
		resultCh <- outcome{value: value, err: err}
	}()

	select {
	case out := <-resultCh:
		if out.err != nil {
			return ToolCallResult{}, Classify(name, out.err)
		}
		return Serialise(out.value), nil
	case <-callCtx.Done():
		return ToolCallResult{}, NewError(ToolTimeout,
			fmt.Sprintf("tool %q did not complete within %s", name, timeout))
	}
}

func errorResponse(id json.RawMessage, err *Error) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: err.RPCCode(), Message: err.Error()},
	}
}

// HTTPStatusFor returns the HTTP status a Response should be sent with.
func HTTPStatusFor(resp Response) int {
	if resp.Error == nil {
		return 200
	}
	for kind, code := range rpcCode {
		if code == resp.Error.Code {
			return httpStatus[kind]
		}
	}
	return 500
}
