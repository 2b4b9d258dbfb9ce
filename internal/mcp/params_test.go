package mcp

import "testing"

func TestMapParameters_DefaultSatisfiesRequired(t *testing.T) {
	params := []ParameterDescriptor{
		{Name: "mode", Type: ParamString, Required: true, DefaultValue: "fast", HasDefault: true},
	}
	out, err := MapParameters(params, map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["mode"] != "fast" {
		t.Fatalf("expected default to apply, got %v", out["mode"])
	}
}

func TestMapParameters_OptionalAbsentGetsZeroValue(t *testing.T) {
	params := []ParameterDescriptor{{Name: "n", Type: ParamInteger, Required: false}}
	out, err := MapParameters(params, map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if out["n"] != int64(0) {
		t.Fatalf("expected zero value, got %v", out["n"])
	}
}

func TestMapParameters_SingleStringSentinel(t *testing.T) {
	params := []ParameterDescriptor{{Name: "query", Type: ParamString, Required: true}}
	out, err := MapParameters(params, map[string]any{SingleStringSentinelKey: "hello world"})
	if err != nil {
		t.Fatal(err)
	}
	if out["query"] != "hello world" {
		t.Fatalf("expected sentinel fallback to populate query, got %v", out["query"])
	}
}

func TestMapParameters_BooleanStringCoercion(t *testing.T) {
	params := []ParameterDescriptor{{Name: "flag", Type: ParamBoolean, Required: true}}
	out, err := MapParameters(params, map[string]any{"flag": "TRUE"})
	if err != nil {
		t.Fatal(err)
	}
	if out["flag"] != true {
		t.Fatalf("expected case-insensitive string coercion, got %v", out["flag"])
	}
}

func TestMapParameters_NumberAsDecimalString(t *testing.T) {
	params := []ParameterDescriptor{{Name: "x", Type: ParamDouble, Required: true}}
	out, err := MapParameters(params, map[string]any{"x": "3.25"})
	if err != nil {
		t.Fatal(err)
	}
	if out["x"] != 3.25 {
		t.Fatalf("expected 3.25, got %v", out["x"])
	}
}

func TestMapParameters_EnumRejection(t *testing.T) {
	params := []ParameterDescriptor{{Name: "color", Type: ParamString, Required: true, EnumValues: []string{"red", "blue"}}}
	_, err := MapParameters(params, map[string]any{"color": "green"})
	if err == nil {
		t.Fatal("expected enum violation to be rejected")
	}
}

func TestMapParameters_PatternBoundary(t *testing.T) {
	params := []ParameterDescriptor{{Name: "code", Type: ParamString, Required: true, Pattern: `^[A-Z]{3}$`}}
	if _, err := MapParameters(params, map[string]any{"code": "ABC"}); err != nil {
		t.Fatalf("expected exact pattern match to be accepted: %v", err)
	}
	if _, err := MapParameters(params, map[string]any{"code": "ABCD"}); err == nil {
		t.Fatal("expected non-matching value to be rejected")
	}
}

func TestMapParameters_UnknownArgumentRejected(t *testing.T) {
	params := []ParameterDescriptor{{Name: "text", Type: ParamString, Required: true}}
	_, err := MapParameters(params, map[string]any{"text": "hi", "bogus": 1})
	e, ok := err.(*Error)
	if !ok || e.ParameterName != "bogus" {
		t.Fatalf("expected unknown argument to be rejected naming 'bogus', got %v", err)
	}
}

func TestMapParameters_ZeroParamToolRejectsNonEmptyArgs(t *testing.T) {
	if _, err := MapParameters(nil, map[string]any{}); err != nil {
		t.Fatalf("expected empty arguments to be accepted: %v", err)
	}
	if _, err := MapParameters(nil, map[string]any{"anything": true}); err == nil {
		t.Fatal("expected non-empty arguments to be rejected for a zero-parameter tool")
	}
}

func TestMapParameters_MissingRequiredNamesParameter(t *testing.T) {
	params := []ParameterDescriptor{{Name: "text", Type: ParamString, Required: true}}
	_, err := MapParameters(params, map[string]any{})
	e, ok := err.(*Error)
	if !ok || e.ParameterName != "text" {
		t.Fatalf("expected PARAMETER_MAPPING_ERROR naming 'text', got %v", err)
	}
}
