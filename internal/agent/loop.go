package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/PEZ/joyride-ai-chat/internal/providers"
	"github.com/PEZ/joyride-ai-chat/internal/tools"
	"github.com/PEZ/joyride-ai-chat/internal/tracing"
)

const defaultMaxTurns = 10

// Loop drives a goal-directed conversation with a model until the
// outcome classifier stops it or the turn budget runs out.
//
// The loop is an explicit iterative driver over (history, turn,
// lastText); turns are strictly sequential and the history cell is owned
// by Run alone.
type Loop struct {
	models     *providers.Registry
	registry   *tools.Registry
	dispatcher *Dispatcher
	detector   Detector
	tracer     *tracing.Collector // optional
}

func NewLoop(models *providers.Registry, registry *tools.Registry) *Loop {
	return &Loop{
		models:     models,
		registry:   registry,
		dispatcher: NewDispatcher(registry),
		detector:   NewRegexDetector(),
	}
}

// SetDetector swaps the outcome detection policy.
func (l *Loop) SetDetector(d Detector) {
	l.detector = d
}

// SetTracer attaches a run trace collector.
func (l *Loop) SetTracer(c *tracing.Collector) {
	l.tracer = c
}

// Run executes one agent run to its terminal outcome.
//
// An unresolvable model is reported as a structured result (never as an
// error). A transport failure mid-run is fatal and surfaces as the
// returned error: an identical retry is as likely to fail again within
// the same turn budget, so the loop does not retry.
func (l *Loop) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	maxTurns := req.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	// Resolve once, before any turn runs.
	handle, err := l.models.Resolve(req.ModelID)
	if err != nil {
		if errors.Is(err, providers.ErrModelNotFound) {
			slog.Warn("agent run aborted", "model", req.ModelID, "error", err)
			return &RunResult{
				History:       []HistoryEntry{},
				Reason:        ReasonModelNotFound,
				FinalResponse: err.Error(),
			}, nil
		}
		return nil, err
	}

	toolDefs := l.registry.ProviderDefs(req.ToolNames...)
	runID := l.startTrace(req.Goal, handle.Model)

	slog.Info("agent run starting",
		"model", handle.Model,
		"max_turns", maxTurns,
		"tools", len(toolDefs),
	)

	history := make([]HistoryEntry, 0, maxTurns*2)
	lastText := ""

	// turn counts completed turns; the turn being executed displays
	// as turn+1. The classifier receives the completed-turn count so
	// its max-turns rule trips exactly when the budget is spent.
	for turn := 0; ; turn++ {
		display := turn + 1
		l.progress(req, fmt.Sprintf("turn %d/%d", display, maxTurns))

		if turn >= maxTurns {
			return l.finish(runID, history, ReasonMaxTurns, lastText, turn), nil
		}
		turnStart := time.Now()

		collected, err := l.callModel(ctx, runID, handle, req.Goal, display, maxTurns, history, toolDefs)
		if err != nil {
			l.endTrace(runID, "transport-error", turn)
			return nil, fmt.Errorf("model call failed on turn %d: %w", display, err)
		}

		history = append(history, HistoryEntry{
			Kind:      EntryAssistant,
			Content:   collected.Text,
			ToolCalls: collected.ToolCalls,
			Turn:      display,
		})

		if len(collected.ToolCalls) > 0 {
			results := l.dispatchTools(ctx, runID, collected.ToolCalls)
			history = append(history, HistoryEntry{
				Kind:    EntryToolResults,
				Results: results,
				Turn:    display,
			})
		}

		outcome := Classify(l.detector, turn, maxTurns, collected.ToolCalls, collected.Text)
		lastText = collected.Text

		slog.Debug("turn classified",
			"turn", display,
			"continue", outcome.Continue,
			"reason", outcome.Reason,
			"tool_calls", len(collected.ToolCalls),
		)

		// One span per executed turn, covering model call through
		// classification.
		l.emitSpanFor(runID, tracing.SpanData{
			Kind:      tracing.SpanTurn,
			Name:      fmt.Sprintf("turn %d", display),
			StartedAt: turnStart,
			Preview:   string(outcome.Reason),
		})

		if !outcome.Continue {
			return l.finish(runID, history, outcome.Reason, lastText, display), nil
		}
	}
}

func (l *Loop) callModel(ctx context.Context, runID uuid.UUID, handle providers.Handle, goal string, turn, maxTurns int, history []HistoryEntry, toolDefs []providers.ToolDefinition) (Collected, error) {
	start := time.Now()

	parts, err := handle.Provider.Stream(ctx, providers.ChatRequest{
		Model:    handle.Model,
		System:   systemPrompt,
		Messages: buildMessages(goal, turn, maxTurns, history),
		Tools:    toolDefs,
	})
	if err != nil {
		return Collected{}, err
	}

	collected, err := Collect(parts)
	l.emitSpanFor(runID, tracing.SpanData{
		Kind:      tracing.SpanLLM,
		Name:      fmt.Sprintf("llm turn %d", turn),
		StartedAt: start,
		IsError:   err != nil,
		Preview:   collected.Text,
	})
	return collected, err
}

func (l *Loop) dispatchTools(ctx context.Context, runID uuid.UUID, calls []providers.ToolCall) []ToolResult {
	start := time.Now()
	results := l.dispatcher.Dispatch(ctx, calls)
	for _, res := range results {
		l.emitSpanFor(runID, tracing.SpanData{
			Kind:      tracing.SpanTool,
			Name:      res.ToolName,
			StartedAt: start,
			IsError:   res.Error != "",
			Preview:   firstNonEmpty(res.Error, res.Result),
		})
	}
	return results
}

func (l *Loop) finish(runID uuid.UUID, history []HistoryEntry, reason Reason, finalResponse string, turns int) *RunResult {
	l.endTrace(runID, string(reason), turns)
	slog.Info("agent run finished", "reason", reason, "turns", turns)
	return &RunResult{
		RunID:         runID,
		History:       history,
		Reason:        reason,
		FinalResponse: finalResponse,
	}
}

func (l *Loop) progress(req RunRequest, note string) {
	if req.OnProgress != nil {
		req.OnProgress(note)
	}
}

// --- tracing plumbing; every hook tolerates a nil collector ---

func (l *Loop) startTrace(goal, model string) uuid.UUID {
	if l.tracer == nil {
		return uuid.Nil
	}
	return l.tracer.StartRun(goal, model)
}

func (l *Loop) emitSpanFor(runID uuid.UUID, span tracing.SpanData) {
	if l.tracer == nil {
		return
	}
	span.RunID = runID
	l.tracer.EmitSpan(span)
}

func (l *Loop) endTrace(runID uuid.UUID, reason string, turns int) {
	if l.tracer == nil {
		return
	}
	l.tracer.EndRun(runID, reason, turns)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
