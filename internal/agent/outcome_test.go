package agent

import (
	"testing"

	"github.com/PEZ/joyride-ai-chat/internal/providers"
)

func TestClassifyPriority(t *testing.T) {
	d := NewRegexDetector()
	calls := []providers.ToolCall{{ID: "c1", Name: "current_time"}}

	tests := []struct {
		name         string
		turn         int
		maxTurns     int
		toolCalls    []providers.ToolCall
		text         string
		wantContinue bool
		wantReason   Reason
	}{
		{
			name: "budget spent outranks everything",
			turn: 5, maxTurns: 5, toolCalls: calls,
			text:         "The task is complete.",
			wantContinue: false, wantReason: ReasonMaxTurns,
		},
		{
			name: "tool calls outrank completion text",
			turn: 1, maxTurns: 5, toolCalls: calls,
			text:         "Task complete, just verifying.",
			wantContinue: true, wantReason: ReasonToolsExecuting,
		},
		{
			name: "continuation outranks completion",
			turn: 1, maxTurns: 5,
			text:         "The task is complete. Next step: double-check the output.",
			wantContinue: true, wantReason: ReasonAgentContinuing,
		},
		{
			name: "completion declared",
			turn: 1, maxTurns: 5,
			text:         "The goal has been achieved.",
			wantContinue: false, wantReason: ReasonTaskComplete,
		},
		{
			name: "nothing detected",
			turn: 1, maxTurns: 5,
			text:         "Here is a summary of what I found.",
			wantContinue: false, wantReason: ReasonAgentFinished,
		},
		{
			name: "empty response",
			turn: 0, maxTurns: 5,
			text:         "",
			wantContinue: false, wantReason: ReasonAgentFinished,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(d, tt.turn, tt.maxTurns, tt.toolCalls, tt.text)
			if got.Continue != tt.wantContinue {
				t.Errorf("Continue = %v, want %v", got.Continue, tt.wantContinue)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestContinuationDetection(t *testing.T) {
	d := NewRegexDetector()

	tests := []struct {
		text string
		want bool
	}{
		{"I'll check the weather first.", true},
		{"I will fetch the page now.", true},
		{"Let me analyze these results.", true},
		{"Continuing with step two.", true},
		{"I proceed to the final check.", true},
		{"The next step is verification.", true},
		{"The next action is to wait.", true},
		{"Here is the answer you asked for.", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := d.Continuation(tt.text); got != tt.want {
			t.Errorf("Continuation(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestCompletionDetection(t *testing.T) {
	d := NewRegexDetector()

	tests := []struct {
		text string
		want bool
	}{
		{"The task is complete.", true},
		{"Task completed successfully.", true},
		{"Mission accomplished.", true},
		{"The goal has been reached.", true},
		{"All done, the task is finished.", true},
		// Negation immediately before the synonym suppresses the match.
		{"The task is not complete.", false},
		{"The goal is not achieved yet.", false},
		// Noun and synonym must share a clause.
		{"The task remains open. Everything else is done.", false},
		{"I fetched the data. The task is now complete.", true},
		// No completion noun at all.
		{"Everything is done and finished.", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := d.Completion(tt.text); got != tt.want {
			t.Errorf("Completion(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
