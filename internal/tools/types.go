package tools

import (
	"context"

	"github.com/PEZ/joyride-ai-chat/internal/providers"
)

// Tool is the interface all tools must implement.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) *Result
}

// RawTool is implemented by tools whose output is an opaque structured
// payload rather than plain text (e.g. MCP content trees). The dispatcher
// reduces raw payloads to text with ExtractText.
type RawTool interface {
	Tool
	ExecuteRaw(ctx context.Context, args map[string]any) (any, error)
}

// Invoker is the capability the agent loop dispatches tool calls against.
// The returned payload is opaque; callers reduce it with ExtractText.
type Invoker interface {
	Invoke(ctx context.Context, name string, input map[string]any) (any, error)
}

// ToProviderDef converts a Tool to a providers.ToolDefinition for LLM APIs.
func ToProviderDef(t Tool) providers.ToolDefinition {
	return providers.ToolDefinition{
		Type: "function",
		Function: providers.ToolFunctionSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}
