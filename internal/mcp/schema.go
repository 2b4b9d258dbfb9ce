package mcp

import "encoding/json"

// SingleStringSentinelKey is the well-known fallback argument key accepted
// when a tool declares exactly one string parameter, for callers that
// cannot name parameters.
const SingleStringSentinelKey = "provideAllValuesInPlainEnglish"

type schemaProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
}

type objectSchema struct {
	Type                 string                    `json:"type"`
	Properties           map[string]schemaProperty `json:"properties"`
	Required             []string                  `json:"required"`
	AdditionalProperties bool                      `json:"additionalProperties"`
}

// BuildSchema derives the JSON Schema for a tool from its parameter
// descriptors. It is pure: the same parameters always produce a
// byte-identical schema, and it performs no I/O.
func BuildSchema(params []ParameterDescriptor) (json.RawMessage, error) {
	props := make(map[string]schemaProperty, len(params))
	required := make([]string, 0, len(params))

	for _, p := range params {
		props[p.Name] = buildProperty(p)
		if p.EffectivelyRequired() {
			required = append(required, p.Name)
		}
	}

	schema := objectSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: false,
	}
	return json.Marshal(schema)
}

func buildProperty(p ParameterDescriptor) schemaProperty {
	sp := schemaProperty{Description: p.Description}

	switch p.Type {
	case ParamString:
		sp.Type = "string"
		sp.Pattern = p.Pattern
		if len(p.EnumValues) > 0 {
			sp.Enum = p.EnumValues
		}
	case ParamInteger, ParamLong:
		sp.Type = "integer"
		setBounds(&sp, p)
	case ParamDouble:
		sp.Type = "number"
		setBounds(&sp, p)
	case ParamBoolean:
		sp.Type = "boolean"
	case ParamObject:
		sp.Type = "object"
	default:
		sp.Type = "string"
	}
	return sp
}

func setBounds(sp *schemaProperty, p ParameterDescriptor) {
	if p.HasMin {
		min := p.Min
		sp.Minimum = &min
	}
	if p.HasMax {
		max := p.Max
		sp.Maximum = &max
	}
}

// SupportsSingleStringSentinel reports whether params qualifies for the
// single-string convenience fallback: exactly one string parameter.
func SupportsSingleStringSentinel(params []ParameterDescriptor) (string, bool) {
	if len(params) != 1 || params[0].Type != ParamString {
		return "", false
	}
	return params[0].Name, true
}
