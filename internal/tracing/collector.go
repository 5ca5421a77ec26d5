// Package tracing records what an agent run actually did: one trace per
// run, one span per model call, tool call, or turn. Spans live in a
// bounded in-memory buffer (runs are ephemeral, nothing persists) and can
// additionally be exported over OTLP.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultFlushInterval = 5 * time.Second
	defaultBufferSize    = 1000
	maxRetainedSpans     = 5000
	previewMaxLen        = 500
)

// SpanKind tags what a span measured.
type SpanKind string

const (
	SpanLLM  SpanKind = "llm"
	SpanTool SpanKind = "tool"
	SpanTurn SpanKind = "turn"
)

// SpanData is one recorded operation within a run.
type SpanData struct {
	ID        uuid.UUID
	RunID     uuid.UUID
	Kind      SpanKind
	Name      string
	StartedAt time.Time
	EndedAt   time.Time
	IsError   bool
	Preview   string // truncated output preview
}

// RunTrace is the per-run aggregate.
type RunTrace struct {
	ID        uuid.UUID
	Goal      string
	Model     string
	StartedAt time.Time
	EndedAt   time.Time
	Reason    string
	Turns     int
}

// SpanExporter is implemented by backends that receive span batches
// (e.g. OpenTelemetry OTLP). Keeping this as an interface lets the OTel
// dependency live in a separate sub-package.
type SpanExporter interface {
	ExportSpans(ctx context.Context, spans []SpanData)
	Shutdown(ctx context.Context) error
}

// Collector buffers spans and flushes them in batches to the retained
// in-memory window and, when attached, to an external exporter.
// Run traces are created and ended synchronously.
type Collector struct {
	spanCh   chan SpanData
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu       sync.Mutex
	runs     map[uuid.UUID]*RunTrace
	retained []SpanData

	exporter SpanExporter // optional (nil = disabled)
}

func NewCollector() *Collector {
	return &Collector{
		spanCh: make(chan SpanData, defaultBufferSize),
		stopCh: make(chan struct{}),
		runs:   make(map[uuid.UUID]*RunTrace),
	}
}

// SetExporter attaches an external span exporter.
func (c *Collector) SetExporter(exp SpanExporter) {
	c.exporter = exp
}

// Start begins the background flush loop.
func (c *Collector) Start() {
	c.wg.Add(1)
	go c.flushLoop()
	slog.Debug("tracing collector started")
}

// Stop shuts down the collector, flushing remaining spans. Safe to call
// more than once; later calls are no-ops.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.wg.Wait()

		if c.exporter != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.exporter.Shutdown(ctx); err != nil {
				slog.Warn("span exporter shutdown failed", "error", err)
			}
		}
	})
}

// StartRun opens a trace for one agent run and returns its ID.
func (c *Collector) StartRun(goal, model string) uuid.UUID {
	id := uuid.New()
	c.mu.Lock()
	c.runs[id] = &RunTrace{
		ID:        id,
		Goal:      truncatePreview(goal),
		Model:     model,
		StartedAt: time.Now().UTC(),
	}
	c.mu.Unlock()
	return id
}

// EndRun closes a run trace with its terminal reason and turn count.
func (c *Collector) EndRun(id uuid.UUID, reason string, turns int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rt, ok := c.runs[id]; ok {
		rt.EndedAt = time.Now().UTC()
		rt.Reason = reason
		rt.Turns = turns
	}
}

// Run returns a snapshot of a run trace.
func (c *Collector) Run(id uuid.UUID) (RunTrace, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rt, ok := c.runs[id]
	if !ok {
		return RunTrace{}, false
	}
	return *rt, true
}

// EmitSpan enqueues a span for async batch processing.
// Non-blocking: drops the span if the buffer is full.
func (c *Collector) EmitSpan(span SpanData) {
	if span.ID == uuid.Nil {
		span.ID = uuid.New()
	}
	if span.EndedAt.IsZero() {
		span.EndedAt = time.Now().UTC()
	}
	span.Preview = truncatePreview(span.Preview)

	select {
	case c.spanCh <- span:
	default:
		slog.Debug("span buffer full, dropping span", "kind", span.Kind, "name", span.Name)
	}
}

// Spans returns the retained spans for one run, in emission order.
func (c *Collector) Spans(runID uuid.UUID) []SpanData {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []SpanData
	for _, s := range c.retained {
		if s.RunID == runID {
			out = append(out, s)
		}
	}
	return out
}

func (c *Collector) flushLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(defaultFlushInterval)
	defer ticker.Stop()

	var batch []SpanData
	for {
		select {
		case span := <-c.spanCh:
			batch = append(batch, span)
		case <-ticker.C:
			batch = c.flush(batch)
		case <-c.stopCh:
			// Drain whatever is still queued, then flush once.
			for {
				select {
				case span := <-c.spanCh:
					batch = append(batch, span)
					continue
				default:
				}
				break
			}
			c.flush(batch)
			return
		}
	}
}

// flush moves a batch into the retained window and exports it.
// Returns the reset batch slice.
func (c *Collector) flush(batch []SpanData) []SpanData {
	if len(batch) == 0 {
		return batch
	}

	c.mu.Lock()
	c.retained = append(c.retained, batch...)
	if over := len(c.retained) - maxRetainedSpans; over > 0 {
		c.retained = c.retained[over:]
	}
	c.mu.Unlock()

	if c.exporter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		c.exporter.ExportSpans(ctx, batch)
		cancel()
	}
	return batch[:0]
}

func truncatePreview(s string) string {
	if len(s) > previewMaxLen {
		return s[:previewMaxLen] + "…"
	}
	return s
}
