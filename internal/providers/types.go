package providers

import "context"

// ChatMessage is a single message in a model conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ToolCall is a model-requested invocation of a named tool.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolFunctionSchema describes a callable function for LLM APIs.
type ToolFunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolDefinition is the wire shape for tool declarations.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function ToolFunctionSchema `json:"function"`
}

// ChatRequest is a single model invocation.
type ChatRequest struct {
	Model    string
	System   string
	Messages []ChatMessage
	Tools    []ToolDefinition
}

// StreamPart is one element of a forward-only response stream.
// Exactly one of Text / ToolCall / Done / Err is meaningful per part;
// the stream is terminated by a Done or Err part.
type StreamPart struct {
	Text     string
	ToolCall *ToolCall
	Done     bool
	Err      error
}

// Provider is a model transport. Stream returns a forward-only part
// channel; the channel is closed after the terminating Done/Err part.
type Provider interface {
	Name() string
	Stream(ctx context.Context, req ChatRequest) (<-chan StreamPart, error)
}
