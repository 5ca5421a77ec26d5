package agent

import (
	"strings"
	"testing"

	"github.com/PEZ/joyride-ai-chat/internal/providers"
)

func TestBuildMessagesFirstMessage(t *testing.T) {
	msgs := buildMessages("find the answer", 3, 10, nil)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Role != "user" {
		t.Errorf("role = %q, want user", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].Content, "Goal: find the answer") {
		t.Errorf("missing goal in %q", msgs[0].Content)
	}
	if !strings.Contains(msgs[0].Content, "turn 3 of 10") {
		t.Errorf("missing turn header in %q", msgs[0].Content)
	}
}

func TestBuildMessagesCount(t *testing.T) {
	// 1 goal message + one assistant message per assistant entry + one
	// user message per tool result.
	history := []HistoryEntry{
		{Kind: EntryAssistant, Content: "thinking", Turn: 1},
		{Kind: EntryToolResults, Turn: 1, Results: []ToolResult{
			{CallID: "c1", ToolName: "a", Result: "ra"},
			{CallID: "c2", ToolName: "b", Result: "rb"},
			{CallID: "c3", ToolName: "c", Error: "ec"},
		}},
		{Kind: EntryAssistant, Content: "more thinking", Turn: 2},
	}

	msgs := buildMessages("g", 3, 5, history)
	if want := 1 + 2 + 3; len(msgs) != want {
		t.Fatalf("expected %d messages, got %d", want, len(msgs))
	}

	wantRoles := []string{"user", "assistant", "user", "user", "user", "assistant"}
	for i, r := range wantRoles {
		if msgs[i].Role != r {
			t.Errorf("message %d: role = %q, want %q", i, msgs[i].Role, r)
		}
	}
}

func TestBuildMessagesRendersToolCalls(t *testing.T) {
	history := []HistoryEntry{
		{
			Kind:    EntryAssistant,
			Content: "checking",
			ToolCalls: []providers.ToolCall{
				{ID: "c1", Name: "web_fetch"},
			},
			Turn: 1,
		},
	}

	msgs := buildMessages("g", 2, 5, history)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if !strings.Contains(msgs[1].Content, "[requested tool call: web_fetch]") {
		t.Errorf("missing tool call marker in %q", msgs[1].Content)
	}
}

func TestBuildMessagesToolResultRendering(t *testing.T) {
	history := []HistoryEntry{
		{Kind: EntryToolResults, Turn: 1, Results: []ToolResult{
			{CallID: "c1", ToolName: "clock", Result: "12:00"},
			{CallID: "c2", ToolName: "fetch", Error: "connection refused"},
		}},
	}

	msgs := buildMessages("g", 2, 5, history)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}

	if !strings.Contains(msgs[1].Content, "Tool clock returned:") ||
		!strings.Contains(msgs[1].Content, "12:00") {
		t.Errorf("bad success rendering: %q", msgs[1].Content)
	}
	if !strings.Contains(msgs[2].Content, "Tool fetch failed:") ||
		!strings.Contains(msgs[2].Content, "connection refused") {
		t.Errorf("bad error rendering: %q", msgs[2].Content)
	}
}

func TestBuildMessagesSkipsUnknownKinds(t *testing.T) {
	history := []HistoryEntry{
		{Kind: EntryKind("future-thing"), Content: "??", Turn: 1},
		{Kind: EntryAssistant, Content: "ok", Turn: 1},
	}

	msgs := buildMessages("g", 2, 5, history)
	if len(msgs) != 2 {
		t.Fatalf("expected unknown kind skipped, got %d messages", len(msgs))
	}
}
