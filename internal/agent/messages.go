package agent

import (
	"fmt"
	"strings"

	"github.com/PEZ/joyride-ai-chat/internal/providers"
)

// systemPrompt frames every run. The completion phrasing matters: the
// outcome detector looks for a task/goal noun next to a completion word.
const systemPrompt = `You are an autonomous agent working toward a goal.
Use the available tools when they help. Work step by step.
When the goal is fully achieved, say clearly that the task is complete.
If you cannot make progress, say so and stop.`

// buildMessages renders the goal and the conversation history into the
// message list for one model call.
//
// Message 1 always states the goal and the current turn index. Every
// assistant history entry maps to one assistant message; every
// tool-results entry expands into one user message per result. Unknown
// entry kinds are skipped so future history shapes stay non-breaking.
func buildMessages(goal string, turn, maxTurns int, history []HistoryEntry) []providers.ChatMessage {
	messages := []providers.ChatMessage{{
		Role:    "user",
		Content: fmt.Sprintf("Goal: %s\n(You are on turn %d of %d.)", goal, turn, maxTurns),
	}}

	for _, entry := range history {
		switch entry.Kind {
		case EntryAssistant:
			messages = append(messages, providers.ChatMessage{
				Role:    "assistant",
				Content: renderAssistant(entry),
			})
		case EntryToolResults:
			for _, res := range entry.Results {
				messages = append(messages, providers.ChatMessage{
					Role:    "user",
					Content: renderToolResult(res),
				})
			}
		default:
			// Unknown entry kinds are a forward-compatible no-op.
		}
	}

	return messages
}

func renderAssistant(entry HistoryEntry) string {
	var b strings.Builder
	b.WriteString(entry.Content)
	for _, call := range entry.ToolCalls {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[requested tool call: %s]", call.Name)
	}
	return b.String()
}

func renderToolResult(res ToolResult) string {
	if res.Error != "" {
		return fmt.Sprintf("Tool %s failed: %s\nAnalyze the failure and continue toward the goal or adapt your approach.", res.ToolName, res.Error)
	}
	return fmt.Sprintf("Tool %s returned:\n%s\nAnalyze this result and continue toward the goal or adapt your approach.", res.ToolName, res.Result)
}
