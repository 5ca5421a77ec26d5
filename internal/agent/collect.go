package agent

import (
	"strings"

	"github.com/PEZ/joyride-ai-chat/internal/providers"
)

// Collected is one model response reduced to its two useful pieces.
type Collected struct {
	Text      string
	ToolCalls []providers.ToolCall
}

// Collect consumes a forward-only part stream to completion: text parts
// concatenate in arrival order, tool-call parts append in arrival order,
// anything else is ignored. The transport only exposes a single pass, so
// the two accumulators are the only buffering.
//
// A mid-stream Err part aborts collection and is returned as the error.
func Collect(parts <-chan providers.StreamPart) (Collected, error) {
	var text strings.Builder
	var calls []providers.ToolCall

	for part := range parts {
		switch {
		case part.Err != nil:
			return Collected{}, part.Err
		case part.Done:
			return Collected{Text: text.String(), ToolCalls: calls}, nil
		case part.ToolCall != nil:
			calls = append(calls, *part.ToolCall)
		case part.Text != "":
			text.WriteString(part.Text)
		}
	}
	// Channel closed without a Done part: treat what arrived as complete.
	return Collected{Text: text.String(), ToolCalls: calls}, nil
}
