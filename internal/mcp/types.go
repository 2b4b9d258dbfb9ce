// Package mcp implements the tool-discovery, parameter-marshalling, and
// JSON-RPC dispatch core of the MCP tool-server runtime: schema derivation,
// the tool registry, the parameter mapper, content serialisation, and the
// JSON-RPC dispatcher. Long-running task execution lives in internal/executor.
package mcp

import "encoding/json"

// ParamType is the closed set of parameter types a tool may declare.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamLong    ParamType = "long"
	ParamDouble  ParamType = "double"
	ParamBoolean ParamType = "boolean"
	ParamObject  ParamType = "object"
)

// ParameterDescriptor declares one typed, validated tool argument.
// Min/Max apply only when the matching HasMin/HasMax flag is set.
type ParameterDescriptor struct {
	Name         string    `json:"name"`
	Type         ParamType `json:"type"`
	Required     bool      `json:"required"`
	DefaultValue string    `json:"defaultValue,omitempty"` // string form; meaningful only with HasDefault
	HasDefault   bool      `json:"-"`
	Pattern      string    `json:"pattern,omitempty"` // regex, strings only
	Min          float64   `json:"-"`
	Max          float64   `json:"-"`
	HasMin       bool      `json:"-"`
	HasMax       bool      `json:"-"`
	EnumValues   []string  `json:"enumValues,omitempty"`
	Example      string    `json:"example,omitempty"`
	Description  string    `json:"description,omitempty"`
}

// HasMinBound reports whether Min should be applied during validation.
func (p ParameterDescriptor) HasMinBound() bool { return p.HasMin }

// HasMaxBound reports whether Max should be applied during validation.
func (p ParameterDescriptor) HasMaxBound() bool { return p.HasMax }

// EffectivelyRequired reports whether a caller must supply this parameter:
// required=true AND no default value is configured.
func (p ParameterDescriptor) EffectivelyRequired() bool {
	return p.Required && !p.HasDefault
}

// ToolDescriptor is the immutable, registered description of one tool.
// InputSchema is always derived from Parameters via BuildSchema and must
// never be hand-edited independently of it.
type ToolDescriptor struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Enabled     bool                  `json:"enabled"`
	TimeoutMs   int                   `json:"timeoutMs,omitempty"` // 0 = use the dispatcher's configured default
	Parameters  []ParameterDescriptor `json:"parameters,omitempty"`
	InputSchema json.RawMessage       `json:"inputSchema"`
}

// Handler is the executable behind a registered tool. It receives the typed
// argument vector already validated and coerced by the Parameter Mapper and
// returns a raw Go value for the Result Serialiser to convert, or an error.
//
// A Handler that wants a specific error classification (TOOL_NOT_FOUND,
// PARAMETER_VALIDATION, TOOL_TIMEOUT) should return an *Error with that Kind;
// any other error is classified TOOL_EXECUTION.
type Handler func(ctx HandlerContext, args map[string]any) (any, error)

// HandlerContext is the minimal per-call context passed to a Handler.
// It is intentionally not context.Context-shaped alone: handlers that need
// cancellation/deadlines read Ctx. The Dispatcher sets only Ctx; TaskID is
// left empty and Progress nil.
type HandlerContext struct {
	Ctx      ctxer
	TaskID   string
	Progress func(percent int, message string)
}

// ctxer is the subset of context.Context a Handler needs; declared locally
// so this file does not have to import "context" just for the field type.
type ctxer interface {
	Done() <-chan struct{}
	Err() error
}

// Content is the tagged sum wire envelope for tool results.
type Content interface {
	contentType() string
}

// TextContent is plain text content.
type TextContent struct {
	Text string `json:"text"`
}

func (TextContent) contentType() string { return "text" }

// ImageContentBase64 is an inline base64-encoded image.
type ImageContentBase64 struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

func (ImageContentBase64) contentType() string { return "image_base64" }

// ImageContentUrl is an image referenced by URL.
type ImageContentUrl struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType,omitempty"`
	Alt      string `json:"alt,omitempty"`
}

func (ImageContentUrl) contentType() string { return "image_url" }

// wireContent is the JSON shape of a Content value, carrying the "type"
// discriminator every envelope puts on the wire.
type wireContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	URL      string `json:"url,omitempty"`
	Alt      string `json:"alt,omitempty"`
}

// MarshalContent converts a Content value to its wire JSON form.
func MarshalContent(c Content) ([]byte, error) {
	var w wireContent
	switch v := c.(type) {
	case TextContent:
		w = wireContent{Type: "text", Text: v.Text}
	case ImageContentBase64:
		w = wireContent{Type: "image_base64", Data: v.Data, MimeType: v.MimeType}
	case ImageContentUrl:
		w = wireContent{Type: "image_url", URL: v.URL, MimeType: v.MimeType, Alt: v.Alt}
	default:
		w = wireContent{Type: "text", Text: ""}
	}
	return json.Marshal(w)
}

// UnmarshalContent parses the wire JSON form back into a Content value.
func UnmarshalContent(data []byte) (Content, error) {
	var w wireContent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case "image_base64":
		return ImageContentBase64{Data: w.Data, MimeType: w.MimeType}, nil
	case "image_url":
		return ImageContentUrl{URL: w.URL, MimeType: w.MimeType, Alt: w.Alt}, nil
	default:
		return TextContent{Text: w.Text}, nil
	}
}

// ToolCallResult is the outcome of invoking a tool. IsError=true is still a
// successful JSON-RPC response — distinct from a JSON-RPC error.
type ToolCallResult struct {
	Content []Content
	IsError bool
}

// MarshalJSON renders ToolCallResult with each Content item in wire form.
func (r ToolCallResult) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, 0, len(r.Content))
	for _, c := range r.Content {
		raw, err := MarshalContent(c)
		if err != nil {
			return nil, err
		}
		items = append(items, raw)
	}
	return json.Marshal(struct {
		Content []json.RawMessage `json:"content"`
		IsError bool               `json:"isError"`
	}{Content: items, IsError: r.IsError})
}
