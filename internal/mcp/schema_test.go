package mcp

import (
	"encoding/json"
	"testing"
)

func TestBuildSchema_Purity(t *testing.T) {
	params := []ParameterDescriptor{
		{Name: "x", Type: ParamDouble, Required: true, Min: 0, Max: 1, HasMin: true, HasMax: true},
	}
	a, err := BuildSchema(params)
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildSchema(params)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatalf("schema build is not pure: %s != %s", a, b)
	}
}

func TestBuildSchema_RequiredExcludesDefaulted(t *testing.T) {
	params := []ParameterDescriptor{
		{Name: "a", Type: ParamString, Required: true},
		{Name: "b", Type: ParamString, Required: true, DefaultValue: "x", HasDefault: true},
	}
	raw, err := BuildSchema(params)
	if err != nil {
		t.Fatal(err)
	}
	var decoded objectSchema
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Required) != 1 || decoded.Required[0] != "a" {
		t.Fatalf("expected only %q required, got %v", "a", decoded.Required)
	}
	if decoded.AdditionalProperties {
		t.Fatal("additionalProperties must be false")
	}
}

func TestBuildSchema_ZeroParamTool(t *testing.T) {
	raw, err := BuildSchema(nil)
	if err != nil {
		t.Fatal(err)
	}
	var decoded objectSchema
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Properties) != 0 || len(decoded.Required) != 0 || decoded.AdditionalProperties {
		t.Fatalf("expected empty schema with additionalProperties:false, got %+v", decoded)
	}
}

func TestBuildSchema_NumericBoundsOmittedWhenUnset(t *testing.T) {
	params := []ParameterDescriptor{{Name: "n", Type: ParamInteger}}
	raw, err := BuildSchema(params)
	if err != nil {
		t.Fatal(err)
	}
	var decoded objectSchema
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	prop := decoded.Properties["n"]
	if prop.Minimum != nil || prop.Maximum != nil {
		t.Fatalf("expected no bounds, got %+v", prop)
	}
}
