package mcp

import (
	"fmt"
	"sync"
)

// Registry is the atomic, read-mostly map from tool name to
// (ToolDescriptor, Handler). It is published once at startup and only read
// thereafter.
type Registry struct {
	mu          sync.RWMutex
	order       []string
	descriptors map[string]ToolDescriptor
	handlers    map[string]Handler
	initialised bool
}

// NewRegistry returns an empty, uninitialised Registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]ToolDescriptor),
		handlers:    make(map[string]Handler),
	}
}

// Register atomically publishes a set of tools and their handlers. On any
// precondition violation the registry is left exactly as it was before the
// call: no partial registration.
func (r *Registry) Register(tools []ToolDescriptor, handlers map[string]Handler) error {
	if len(tools) == 0 && len(handlers) == 0 {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.initialised = true
		return nil
	}
	if len(tools) == 0 || len(handlers) == 0 {
		return NewError(InternalError, "register: tools and handlers must be non-empty together")
	}
	if len(tools) != len(handlers) {
		return NewError(InternalError, fmt.Sprintf("register: %d tools but %d handlers", len(tools), len(handlers)))
	}

	seen := make(map[string]bool, len(tools))
	built := make(map[string]ToolDescriptor, len(tools))
	order := make([]string, 0, len(tools))

	for _, t := range tools {
		if t.Name == "" {
			return NewError(InternalError, "register: tool with empty name")
		}
		if seen[t.Name] {
			return NewError(InternalError, fmt.Sprintf("register: duplicate tool name %q", t.Name))
		}
		h, ok := handlers[t.Name]
		if !ok || h == nil {
			return NewError(InternalError, fmt.Sprintf("register: no handler for tool %q", t.Name))
		}

		schema, err := BuildSchema(t.Parameters)
		if err != nil {
			return NewError(InternalError, fmt.Sprintf("register: schema build failed for %q: %v", t.Name, err))
		}
		t.InputSchema = schema

		seen[t.Name] = true
		built[t.Name] = t
		order = append(order, t.Name)
	}

	for name := range handlers {
		if !seen[name] {
			return NewError(InternalError, fmt.Sprintf("register: handler %q has no matching tool", name))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors = built
	r.handlers = handlers
	r.order = order
	r.initialised = true
	return nil
}

// Lookup returns the descriptor for name, or false if not registered.
func (r *Registry) Lookup(name string) (ToolDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	return d, ok
}

// HandlerFor returns the handler for name, or false if not registered.
func (r *Registry) HandlerFor(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// List returns all registered tool descriptors in insertion order.
func (r *Registry) List() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.descriptors[name])
	}
	return out
}

// Stats summarises the registry's current state.
type Stats struct {
	ToolCount    int
	HandlerCount int
	Initialised  bool
}

// Stats returns the current registry statistics.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{
		ToolCount:    len(r.descriptors),
		HandlerCount: len(r.handlers),
		Initialised:  r.initialised,
	}
}
