package mcp

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/argo-mcp/argo/internal/logger"
)

const largeResultWarningChars = 10000

// Serialise converts a handler's raw return value to a ToolCallResult.
// Serialisation failures never become a JSON-RPC error — they become an
// error ToolCallResult.
func Serialise(value any) ToolCallResult {
	content, err := serialiseValue(value)
	if err != nil {
		return ToolCallResult{
			Content: []Content{TextContent{Text: fmt.Sprintf("failed to serialise result: %v", err)}},
			IsError: true,
		}
	}
	return ToolCallResult{Content: []Content{content}}
}

func serialiseValue(value any) (Content, error) {
	switch v := value.(type) {
	case nil:
		return TextContent{Text: "Tool executed successfully with no output"}, nil
	case Content:
		return v, nil
	case string:
		return serialiseString(v), nil
	case []byte:
		return ImageContentBase64{Data: base64.StdEncoding.EncodeToString(v), MimeType: sniffMime(v)}, nil
	case bool:
		return TextContent{Text: fmt.Sprintf("%v", v)}, nil
	case int, int64, float64, float32, int32:
		return TextContent{Text: fmt.Sprintf("%v", v)}, nil
	case map[string]any, []any:
		return serialiseStructured(v)
	default:
		return serialiseOther(v)
	}
}

func serialiseString(s string) Content {
	if looksLikeBase64Image(s) {
		data := s
		mimeType := "image/png"
		if strings.HasPrefix(s, "data:image/") {
			if idx := strings.Index(s, ","); idx >= 0 {
				header := s[5:idx] // after "data:"
				if semi := strings.Index(header, ";"); semi >= 0 {
					mimeType = header[:semi]
				}
				data = s[idx+1:]
			}
		} else if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
			mimeType = sniffMime(decoded)
		}
		return ImageContentBase64{Data: data, MimeType: mimeType}
	}
	return TextContent{Text: s}
}

// looksLikeBase64Image reports whether s is plausibly an encoded image:
// long enough and decodes as base64, or carries a data: URL prefix.
func looksLikeBase64Image(s string) bool {
	if strings.HasPrefix(s, "data:image/") {
		return true
	}
	if len(s) <= 1000 {
		return false
	}
	body := s
	if idx := strings.Index(s, ","); idx >= 0 && strings.HasPrefix(s, "data:") {
		body = s[idx+1:]
	}
	_, err := base64.StdEncoding.DecodeString(body)
	return err == nil
}

// sniffMime inspects magic bytes, defaulting to PNG.
func sniffMime(data []byte) string {
	if len(data) >= 4 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	return "image/png"
}

func serialiseStructured(v any) (Content, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(b) > largeResultWarningChars {
		logger.Warning("serialised result is %d characters, exceeding the %d-character guideline", len(b), largeResultWarningChars)
	}
	return TextContent{Text: string(b)}, nil
}

func serialiseOther(v any) (Content, error) {
	if s, ok := v.(fmt.Stringer); ok {
		text := s.String()
		if text != "" && !strings.Contains(text, "@") {
			return TextContent{Text: text}, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return TextContent{Text: string(b)}, nil
}
