package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry holds tools by name and dispatches parsed tool calls to them.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a registry holding ts.
func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range ts {
		r.Register(t)
	}
	return r
}

// Register adds t, replacing any tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get returns the tool called name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Visible returns the tools currently offered, sorted by name.
func (r *Registry) Visible() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		if Visible(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Call runs the tool named in tc. Hidden tools are rejected the same way as
// unknown ones.
func (r *Registry) Call(ctx context.Context, tc *ToolCall) (string, map[string]interface{}, error) {
	if err := ValidateToolCall(tc); err != nil {
		return "", nil, err
	}
	t, ok := r.Get(tc.ToolName)
	if !ok || !Visible(t) {
		return "", nil, fmt.Errorf("tool %q is not available", tc.ToolName)
	}
	return t.Execute(ctx, tc.GetArgumentsXML())
}
