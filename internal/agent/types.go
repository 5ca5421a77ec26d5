package agent

import (
	"github.com/google/uuid"

	"github.com/PEZ/joyride-ai-chat/internal/providers"
)

// Reason tags why the loop continued or stopped.
type Reason string

const (
	ReasonMaxTurns        Reason = "max-turns-reached"
	ReasonToolsExecuting  Reason = "tools-executing"
	ReasonAgentContinuing Reason = "agent-continuing"
	ReasonTaskComplete    Reason = "task-complete"
	ReasonAgentFinished   Reason = "agent-finished"
	ReasonModelNotFound   Reason = "model-not-found-error"
)

// Outcome is the classifier's continue/stop decision.
type Outcome struct {
	Continue bool
	Reason   Reason
}

// EntryKind discriminates conversation history entries.
type EntryKind string

const (
	EntryAssistant   EntryKind = "assistant"
	EntryToolResults EntryKind = "tool-results"
)

// HistoryEntry is one element of the conversation history. The history is
// append-only and owned exclusively by the Loop; entries are causal
// (an assistant entry precedes its tool-results entry).
type HistoryEntry struct {
	Kind      EntryKind            `json:"kind"`
	Content   string               `json:"content,omitempty"`
	ToolCalls []providers.ToolCall `json:"toolCalls,omitempty"`
	Results   []ToolResult         `json:"results,omitempty"`
	Turn      int                  `json:"turn"`
}

// ToolResult is the outcome of one dispatched tool call, correlated to
// its ToolCall by CallID. Exactly one of Result/Error is meaningful.
type ToolResult struct {
	CallID   string `json:"callId"`
	ToolName string `json:"toolName"`
	Result   string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RunRequest configures one agent run.
type RunRequest struct {
	Goal       string
	ModelID    string
	ToolNames  []string // empty = all registered tools
	MaxTurns   int
	OnProgress func(note string) // optional, called once per turn
}

// RunResult is the terminal outcome of a run. RunID keys the run's
// trace in the collector; it is uuid.Nil when no tracer was attached.
type RunResult struct {
	RunID         uuid.UUID      `json:"runId"`
	History       []HistoryEntry `json:"history"`
	Reason        Reason         `json:"reason"`
	FinalResponse string         `json:"finalResponse"`
}
