package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/PEZ/joyride-ai-chat/internal/providers"
)

// Registry manages tool registration and execution. It implements
// Invoker, so the agent loop can dispatch calls against it directly.
type Registry struct {
	tools       map[string]Tool
	mu          sync.RWMutex
	rateLimiter *RateLimiter // nil = no rate limiting
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// SetRateLimiter enables per-key tool rate limiting.
func (r *Registry) SetRateLimiter(rl *RateLimiter) {
	r.rateLimiter = rl
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Unregister removes a tool from the registry by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Invoke runs a tool by name and returns its raw payload.
// RawTool payloads pass through opaque; plain tools yield their text.
// A tool-reported error becomes a Go error so callers can record it
// per-call without aborting the batch.
func (r *Registry) Invoke(ctx context.Context, name string, input map[string]any) (any, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	if r.rateLimiter != nil {
		if err := r.rateLimiter.Allow(name); err != nil {
			return nil, err
		}
	}

	start := time.Now()

	if raw, ok := tool.(RawTool); ok {
		payload, err := raw.ExecuteRaw(ctx, input)
		logExecution(name, start, err != nil)
		return payload, err
	}

	result := tool.Execute(ctx, input)
	logExecution(name, start, result.IsError)

	if result.IsError {
		if result.Err != nil {
			return nil, result.Err
		}
		return nil, fmt.Errorf("%s: %s", name, result.ForLLM)
	}
	return result.ForLLM, nil
}

func logExecution(name string, start time.Time, isError bool) {
	slog.Debug("tool executed",
		"tool", name,
		"duration_ms", time.Since(start).Milliseconds(),
		"is_error", isError,
	)
}

// ProviderDefs returns tool definitions for LLM provider APIs, sorted by
// name so the request payload is deterministic.
func (r *Registry) ProviderDefs(names ...string) []providers.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	selected := make([]Tool, 0, len(r.tools))
	if len(names) == 0 {
		for _, tool := range r.tools {
			selected = append(selected, tool)
		}
	} else {
		for _, name := range names {
			if tool, ok := r.tools[name]; ok {
				selected = append(selected, tool)
			}
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Name() < selected[j].Name() })

	defs := make([]providers.ToolDefinition, 0, len(selected))
	for _, tool := range selected {
		defs = append(defs, ToProviderDef(tool))
	}
	return defs
}

// List returns all registered tool names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
