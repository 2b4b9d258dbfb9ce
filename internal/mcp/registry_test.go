package mcp

import "testing"

func noopHandler(HandlerContext, map[string]any) (any, error) { return nil, nil }

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	tools := []ToolDescriptor{{Name: "a"}, {Name: "b"}}
	handlers := map[string]Handler{"a": noopHandler, "b": noopHandler}

	if err := reg.Register(tools, handlers); err != nil {
		t.Fatalf("register: %v", err)
	}

	stats := reg.Stats()
	if stats.ToolCount != 2 || stats.HandlerCount != 2 || !stats.Initialised {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if _, ok := reg.Lookup("a"); !ok {
		t.Fatal("expected to find tool a")
	}
	if _, ok := reg.HandlerFor("b"); !ok {
		t.Fatal("expected to find handler b")
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Fatal("did not expect to find tool 'missing'")
	}

	list := reg.List()
	if len(list) != 2 || list[0].Name != "a" || list[1].Name != "b" {
		t.Fatalf("expected insertion order [a b], got %+v", list)
	}
}

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	reg := NewRegistry()
	tools := []ToolDescriptor{{Name: "a"}, {Name: "a"}}
	handlers := map[string]Handler{"a": noopHandler}

	if err := reg.Register(tools, handlers); err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
	if reg.Stats().Initialised {
		t.Fatal("registry must not be left initialised after a rejected register")
	}
}

func TestRegistry_MissingHandlerLeavesPriorState(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register([]ToolDescriptor{{Name: "a"}}, map[string]Handler{"a": noopHandler}); err != nil {
		t.Fatalf("initial register: %v", err)
	}

	badTools := []ToolDescriptor{{Name: "a"}, {Name: "b"}}
	badHandlers := map[string]Handler{"a": noopHandler} // missing handler for b
	if err := reg.Register(badTools, badHandlers); err == nil {
		t.Fatal("expected rejection for mismatched tools/handlers")
	}

	// Prior registration (tool "a" only) must still be intact.
	list := reg.List()
	if len(list) != 1 || list[0].Name != "a" {
		t.Fatalf("expected registry to retain prior state [a], got %+v", list)
	}
}

func TestRegistry_SchemaMatchesBuildSchema(t *testing.T) {
	reg := NewRegistry()
	params := []ParameterDescriptor{{Name: "x", Type: ParamString, Required: true}}
	tools := []ToolDescriptor{{Name: "t", Parameters: params}}
	if err := reg.Register(tools, map[string]Handler{"t": noopHandler}); err != nil {
		t.Fatalf("register: %v", err)
	}

	want, err := BuildSchema(params)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := reg.Lookup("t")
	if string(got.InputSchema) != string(want) {
		t.Fatalf("registered schema drifted from BuildSchema(params): %s != %s", got.InputSchema, want)
	}
}
