package providers

import "fmt"

// NewProvider builds the Provider for kind ("anthropic" or "openai_compat").
// Unlike the commercial product this pattern is drawn from, no model roster
// or per-token pricing table is hardcoded here: modelID and baseURL are
// supplied by the operator's configuration, since this deployment
// is a generic MCP host, not a single product with a fixed model lineup.
func NewProvider(kind, modelID, apiKey, baseURL string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("providers: API key is required for provider kind %q", kind)
	}
	switch kind {
	case "anthropic":
		return NewAnthropicProvider(apiKey, modelID), nil
	case "openai_compat":
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return NewOpenAICompatProvider(apiKey, modelID, baseURL), nil
	default:
		return nil, fmt.Errorf("providers: unknown provider kind %q", kind)
	}
}
