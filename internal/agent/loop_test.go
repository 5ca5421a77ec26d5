package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/PEZ/joyride-ai-chat/internal/providers"
	"github.com/PEZ/joyride-ai-chat/internal/tools"
	"github.com/PEZ/joyride-ai-chat/internal/tracing"
)

// scriptStep is one scripted model response.
type scriptStep struct {
	text      string
	toolCalls []providers.ToolCall
	err       error
}

// scriptedProvider returns one scripted response per Stream call.
type scriptedProvider struct {
	script []scriptStep
	calls  int
}

func (p *scriptedProvider) Name() string { return "fake" }

func (p *scriptedProvider) Stream(ctx context.Context, req providers.ChatRequest) (<-chan providers.StreamPart, error) {
	if p.calls >= len(p.script) {
		return nil, errors.New("script exhausted")
	}
	step := p.script[p.calls]
	p.calls++

	if step.err != nil {
		return nil, step.err
	}

	ch := make(chan providers.StreamPart, len(step.toolCalls)+2)
	if step.text != "" {
		ch <- providers.StreamPart{Text: step.text}
	}
	for _, tc := range step.toolCalls {
		call := tc
		ch <- providers.StreamPart{ToolCall: &call}
	}
	ch <- providers.StreamPart{Done: true}
	close(ch)
	return ch, nil
}

// echoTool is a minimal registrable tool.
type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes" }
func (echoTool) Parameters() map[string]any {
	return map[string]any{"type": "object"}
}
func (echoTool) Execute(ctx context.Context, args map[string]any) *tools.Result {
	return tools.NewResult("echo-ok")
}

func newTestLoop(script []scriptStep) (*Loop, *scriptedProvider) {
	fp := &scriptedProvider{script: script}
	models := providers.NewRegistry()
	models.Register(fp, "fake-model")

	registry := tools.NewRegistry()
	registry.Register(echoTool{})

	return NewLoop(models, registry), fp
}

func TestRunCompletesOnFinalTurn(t *testing.T) {
	loop, fp := newTestLoop([]scriptStep{
		{text: "I'll look into it."},
		{text: "Checking now.", toolCalls: []providers.ToolCall{{ID: "c1", Name: "echo"}}},
		{text: "The task is complete."},
	})

	result, err := loop.Run(context.Background(), RunRequest{
		Goal:     "answer the question",
		ModelID:  "fake-model",
		MaxTurns: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Reason != ReasonTaskComplete {
		t.Errorf("Reason = %q, want %q", result.Reason, ReasonTaskComplete)
	}
	if result.FinalResponse != "The task is complete." {
		t.Errorf("FinalResponse = %q", result.FinalResponse)
	}
	if fp.calls != 3 {
		t.Errorf("model calls = %d, want 3", fp.calls)
	}

	// assistant, assistant, tool-results, assistant
	if len(result.History) != 4 {
		t.Fatalf("history length = %d, want 4", len(result.History))
	}
	tr := result.History[2]
	if tr.Kind != EntryToolResults || len(tr.Results) != 1 {
		t.Fatalf("expected tool-results entry, got %+v", tr)
	}
	if tr.Results[0].Result != "echo-ok" {
		t.Errorf("tool result = %q, want echo-ok", tr.Results[0].Result)
	}
}

func TestRunStopsAtTurnBudget(t *testing.T) {
	loop, fp := newTestLoop([]scriptStep{
		{text: "I'll keep working on it."},
		{text: "I'll keep working on it."},
	})

	result, err := loop.Run(context.Background(), RunRequest{
		Goal:     "never finishes",
		ModelID:  "fake-model",
		MaxTurns: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Reason != ReasonMaxTurns {
		t.Errorf("Reason = %q, want %q", result.Reason, ReasonMaxTurns)
	}
	if fp.calls != 2 {
		t.Errorf("model calls = %d, want exactly 2", fp.calls)
	}
	if result.FinalResponse != "I'll keep working on it." {
		t.Errorf("FinalResponse = %q", result.FinalResponse)
	}
}

func TestRunModelNotFound(t *testing.T) {
	loop, fp := newTestLoop(nil)

	result, err := loop.Run(context.Background(), RunRequest{
		Goal:    "anything",
		ModelID: "no-such-model",
	})
	if err != nil {
		t.Fatalf("unresolvable model must not be an error, got %v", err)
	}

	if result.Reason != ReasonModelNotFound {
		t.Errorf("Reason = %q, want %q", result.Reason, ReasonModelNotFound)
	}
	if result.History == nil || len(result.History) != 0 {
		t.Errorf("expected empty history, got %v", result.History)
	}
	if fp.calls != 0 {
		t.Errorf("model calls = %d, want 0", fp.calls)
	}
}

func TestRunTransportErrorIsFatal(t *testing.T) {
	loop, _ := newTestLoop([]scriptStep{
		{err: errors.New("connection reset")},
	})

	_, err := loop.Run(context.Background(), RunRequest{
		Goal:     "anything",
		ModelID:  "fake-model",
		MaxTurns: 3,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model call failed on turn 1") {
		t.Errorf("error = %v", err)
	}
}

// captureSpans collects everything the collector flushes.
type captureSpans struct {
	mu    sync.Mutex
	spans []tracing.SpanData
}

func (c *captureSpans) ExportSpans(ctx context.Context, spans []tracing.SpanData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spans = append(c.spans, spans...)
}

func (c *captureSpans) Shutdown(ctx context.Context) error { return nil }

func TestRunEmitsSpansPerTurn(t *testing.T) {
	loop, _ := newTestLoop([]scriptStep{
		{text: "Checking now.", toolCalls: []providers.ToolCall{{ID: "c1", Name: "echo"}}},
		{text: "The task is complete."},
	})

	exp := &captureSpans{}
	collector := tracing.NewCollector()
	collector.SetExporter(exp)
	collector.Start()
	loop.SetTracer(collector)

	result, err := loop.Run(context.Background(), RunRequest{
		Goal:     "traced run",
		ModelID:  "fake-model",
		MaxTurns: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	collector.Stop()

	if result.RunID == uuid.Nil {
		t.Fatal("expected the result to carry the trace run id")
	}

	exp.mu.Lock()
	defer exp.mu.Unlock()
	kinds := map[tracing.SpanKind]int{}
	for _, s := range exp.spans {
		if s.RunID != result.RunID {
			t.Errorf("span %q has run id %s, want %s", s.Name, s.RunID, result.RunID)
		}
		kinds[s.Kind]++
	}
	// Two executed turns: one llm span each, one tool span for the
	// first turn's call, one turn span each.
	if kinds[tracing.SpanLLM] != 2 || kinds[tracing.SpanTool] != 1 || kinds[tracing.SpanTurn] != 2 {
		t.Errorf("span kinds = %v, want llm:2 tool:1 turn:2", kinds)
	}
}

func TestRunFailedToolKeepsGoing(t *testing.T) {
	// An unknown tool name fails the call but never the run.
	loop, fp := newTestLoop([]scriptStep{
		{text: "Trying a tool.", toolCalls: []providers.ToolCall{{ID: "c1", Name: "does-not-exist"}}},
		{text: "The task is done."},
	})

	result, err := loop.Run(context.Background(), RunRequest{
		Goal:     "recovers from tool failure",
		ModelID:  "fake-model",
		MaxTurns: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Reason != ReasonTaskComplete {
		t.Errorf("Reason = %q, want %q", result.Reason, ReasonTaskComplete)
	}
	if fp.calls != 2 {
		t.Errorf("model calls = %d, want 2", fp.calls)
	}

	tr := result.History[1]
	if tr.Kind != EntryToolResults || len(tr.Results) != 1 {
		t.Fatalf("expected tool-results entry, got %+v", tr)
	}
	if tr.Results[0].Error == "" {
		t.Error("expected the failed call to carry an error")
	}
}
