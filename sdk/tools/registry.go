// Package tools exposes the agents' capabilities as a registry of named
// tools invocable with loose JSON parameters, the same surface the HTTP
// boundary serves under /mcp/invoke.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound reports an invocation of an unregistered tool.
var ErrNotFound = errors.New("tool not found")

// Handler executes one tool invocation.
type Handler func(ctx context.Context, params map[string]any) (any, error)

// Definition describes a callable tool.
type Definition struct {
	ID          string  `json:"tool_id"`
	Description string  `json:"description"`
	Handler     Handler `json:"-"`
}

// Registry maps tool IDs to handlers.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Definition)}
}

// Register adds a tool definition, replacing any previous one with the same ID.
func (r *Registry) Register(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[def.ID] = def
}

// List returns all registered tools sorted by ID.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Invoke runs the named tool with the given parameters.
func (r *Registry) Invoke(ctx context.Context, id string, params map[string]any) (any, error) {
	r.mu.RLock()
	def, ok := r.tools[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tool %q: %w", id, ErrNotFound)
	}
	return def.Handler(ctx, params)
}

// stringParam pulls a required string parameter out of a loose JSON map.
func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing %q parameter", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

// intParam pulls an optional integer parameter, tolerating the float64 that
// JSON decoding produces.
func intParam(params map[string]any, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return fallback
	}
}
