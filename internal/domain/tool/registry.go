package tool

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// Registry maps tool names to handlers. Dispatch of an unregistered name
// yields ErrUnknownTool rather than a panic.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register associates a handler with a tool name. Re-registering a name
// replaces the previous handler.
func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute dispatches to the handler registered under name.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage, meta CallMeta) (json.RawMessage, error) {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, NewError(ErrUnknownTool, "no handler registered for tool: "+name)
	}
	return handler.Execute(ctx, args, meta)
}

// Ensure interface compliance.
var _ Executor = (*Registry)(nil)
