package tools

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/PEZ/joyride-ai-chat/internal/ask"
)

// AskHumanTool lets the model put a question to the human mid-run. The
// answer (or "timeout"/"cancelled") comes back as the tool result.
type AskHumanTool struct {
	svc            *ask.Service
	defaultTimeout atomic.Int64 // nanoseconds
}

func NewAskHumanTool(svc *ask.Service, defaultTimeout time.Duration) *AskHumanTool {
	if defaultTimeout <= 0 {
		defaultTimeout = time.Minute
	}
	t := &AskHumanTool{svc: svc}
	t.defaultTimeout.Store(int64(defaultTimeout))
	return t
}

// SetDefaultTimeout updates the fallback timeout. Safe to call while a
// run is in flight; queries already on screen keep their deadline.
func (t *AskHumanTool) SetDefaultTimeout(d time.Duration) {
	if d > 0 {
		t.defaultTimeout.Store(int64(d))
	}
}

func (t *AskHumanTool) Name() string { return "ask_human" }

func (t *AskHumanTool) Description() string {
	return "Ask the human a question with selectable options. Use when a decision needs human judgement. Returns the chosen option, free text, or \"timeout\"/\"cancelled\"."
}

func (t *AskHumanTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question to ask.",
			},
			"context": map[string]any{
				"type":        "string",
				"description": "Optional background shown under the question.",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Choices to offer. An \"Other\" free-text entry is always added.",
			},
			"timeoutSeconds": map[string]any{
				"type":        "number",
				"description": "Seconds to wait before giving up.",
			},
		},
		"required": []string{"question"},
	}
}

func (t *AskHumanTool) Execute(ctx context.Context, args map[string]any) *Result {
	question, _ := args["question"].(string)
	if question == "" {
		return ErrorResult("question is required")
	}

	q := ask.Query{
		Question: question,
		Timeout:  time.Duration(t.defaultTimeout.Load()),
	}
	if c, ok := args["context"].(string); ok {
		q.Context = c
	}
	if opts, ok := args["options"].([]any); ok {
		for _, o := range opts {
			if s, ok := o.(string); ok && s != "" {
				q.Items = append(q.Items, ask.Item{Label: s})
			}
		}
	}
	if secs, ok := args["timeoutSeconds"].(float64); ok && secs > 0 {
		q.Timeout = time.Duration(secs) * time.Second
	}

	resp, err := t.svc.Ask(ctx, q)
	if err != nil && resp == nil {
		return ErrorResult(err.Error()).WithError(err)
	}
	return NewResult(resp.Answer())
}
