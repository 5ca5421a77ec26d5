package agent

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/PEZ/joyride-ai-chat/internal/providers"
	"github.com/PEZ/joyride-ai-chat/internal/tools"
)

// dispatchConcurrency bounds the per-turn tool fan-out; a model can
// request arbitrarily many calls in one response.
const dispatchConcurrency = 8

// Dispatcher executes a turn's tool calls against an Invoker.
type Dispatcher struct {
	invoker tools.Invoker
}

func NewDispatcher(invoker tools.Invoker) *Dispatcher {
	return &Dispatcher{invoker: invoker}
}

// Dispatch invokes every call concurrently and returns results in input
// order. Each invocation is isolated: a failing call yields a ToolResult
// carrying its error and never cancels or blocks the others. An empty
// input returns an empty slice without touching the invoker.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []providers.ToolCall) []ToolResult {
	if len(calls) == 0 {
		return []ToolResult{}
	}

	results := make([]ToolResult, len(calls))

	g := &errgroup.Group{}
	g.SetLimit(dispatchConcurrency)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = d.invokeOne(ctx, call)
			return nil
		})
	}
	g.Wait()

	return results
}

func (d *Dispatcher) invokeOne(ctx context.Context, call providers.ToolCall) ToolResult {
	res := ToolResult{CallID: call.ID, ToolName: call.Name}

	payload, err := d.invoker.Invoke(ctx, call.Name, call.Input)
	if err != nil {
		slog.Warn("tool call failed", "tool", call.Name, "call_id", call.ID, "error", err)
		res.Error = err.Error()
		return res
	}

	res.Result = tools.ExtractText(payload)
	return res
}
