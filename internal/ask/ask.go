// Package ask manages one pending interactive question: a deadline-bound
// choice presented to a human, with free-text fallback via a synthetic
// "Other" entry. User action, widget dismissal, and the deadline race
// toward a single resolution.
package ask

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// OtherLabel is the synthetic sentinel entry appended to every item list.
// Selecting it opens a free-text prompt instead of resolving directly.
const OtherLabel = "Other…"

// engagementGrace absorbs the widget's own initial auto-focus
// active-change event; only engagement after this window counts as the
// user actually driving the list.
const engagementGrace = 400 * time.Millisecond

// Status is the terminal state of a query.
type Status string

const (
	StatusAnswered  Status = "answered"
	StatusTimedOut  Status = "timeout"
	StatusCancelled Status = "cancelled"
)

// Item is one caller-supplied choice. Resolution returns the original
// item, never its display wrapper.
type Item struct {
	Label  string
	Detail string
}

// Query is one question put to the human.
type Query struct {
	Question string
	Context  string
	Items    []Item
	Timeout  time.Duration
}

// Response is the single resolution of a query. Selected holds the
// original items; FreeText is set when the sentinel path was taken.
type Response struct {
	Status   Status
	Selected []Item
	FreeText string
}

// Answer renders the response as one string for callers that just want
// the human's answer.
func (r *Response) Answer() string {
	if r.Status != StatusAnswered {
		return string(r.Status)
	}
	parts := make([]string, 0, len(r.Selected)+1)
	for _, it := range r.Selected {
		parts = append(parts, it.Label)
	}
	if r.FreeText != "" {
		parts = append(parts, r.FreeText)
	}
	return strings.Join(parts, ", ")
}

// Service asks questions through a UI. One Service handles one pending
// query at a time per Ask call; concurrent Ask calls are independent.
type Service struct {
	ui    UI
	grace time.Duration
}

func NewService(ui UI) *Service {
	return &Service{ui: ui, grace: engagementGrace}
}

// pending is the mutable cell for one in-flight query. All fields are
// mutated under mu inside event handlers; resolved is the single guard
// every terminal producer must win before acting.
type pending struct {
	mu         sync.Mutex
	resolved   atomic.Bool
	timer      *time.Timer
	shownAt    time.Time
	engagement int
	deadlined  bool // deadline fired before any accept
	freeText   bool // sentinel accepted, input prompt open
	done       chan *Response
}

// resolve is the single-resolution gate: whichever terminal producer
// calls it first wins; every later call is a no-op. The deadline timer
// is always cleared so a late callback cannot fire after resolution.
func (p *pending) resolve(r *Response) {
	if !p.resolved.CompareAndSwap(false, true) {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.done <- r
}

// Ask presents the query and blocks until exactly one of answered,
// timeout, or cancelled. Context cancellation counts as cancelled.
func (s *Service) Ask(ctx context.Context, q Query) (*Response, error) {
	if q.Timeout <= 0 {
		q.Timeout = time.Minute
	}

	// Augment with the sentinel before display.
	labels := make([]string, 0, len(q.Items)+1)
	for _, it := range q.Items {
		labels = append(labels, it.Label)
	}
	labels = append(labels, OtherLabel)
	sentinelIdx := len(q.Items)

	list := s.ui.NewList(q.Question, q.Context, labels)

	p := &pending{
		done:    make(chan *Response, 1),
		shownAt: time.Now(),
	}

	p.timer = time.AfterFunc(q.Timeout, func() {
		p.mu.Lock()
		p.deadlined = true
		p.mu.Unlock()
		list.Close()
		p.resolve(&Response{Status: StatusTimedOut})
	})

	list.OnActiveChange(func(index int) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.engagement++
		// Demonstrated engagement disables the timeout, but the widget
		// emits one active-change on its own when it auto-focuses the
		// first entry; the grace window filters that out.
		if p.engagement > 0 && time.Since(p.shownAt) > s.grace {
			p.timer.Stop()
		}
	})

	list.OnAccept(func(indices []int) {
		p.mu.Lock()
		var selected []Item
		sentinel := false
		for _, i := range indices {
			switch {
			case i == sentinelIdx:
				sentinel = true
			case i >= 0 && i < len(q.Items):
				selected = append(selected, q.Items[i])
			}
		}
		if sentinel {
			p.freeText = true
			p.timer.Stop()
			p.mu.Unlock()
			s.openFreeText(p, selected)
			return
		}
		p.mu.Unlock()
		p.resolve(&Response{Status: StatusAnswered, Selected: selected})
	})

	list.OnHide(func() {
		p.mu.Lock()
		deadlined, freeText := p.deadlined, p.freeText
		p.mu.Unlock()
		if freeText {
			// The list closing on its way to the input prompt is not a
			// dismissal.
			return
		}
		if deadlined {
			p.resolve(&Response{Status: StatusTimedOut})
			return
		}
		p.resolve(&Response{Status: StatusCancelled})
	})

	if err := list.Show(); err != nil {
		p.resolve(&Response{Status: StatusCancelled})
		return nil, err
	}

	select {
	case r := <-p.done:
		return r, nil
	case <-ctx.Done():
		list.Close()
		p.resolve(&Response{Status: StatusCancelled})
		return <-p.done, ctx.Err()
	}
}

// openFreeText runs the secondary text-entry prompt after the sentinel
// was accepted. The typed value joins any already-selected items.
func (s *Service) openFreeText(p *pending, selected []Item) {
	// An accept that lost the race to the deadline must not open
	// another widget.
	if p.resolved.Load() {
		return
	}

	input := s.ui.NewInput("Your answer", "type a response…")

	input.OnAccept(func(text string) {
		p.resolve(&Response{
			Status:   StatusAnswered,
			Selected: selected,
			FreeText: strings.TrimSpace(text),
		})
	})

	input.OnHide(func() {
		p.resolve(&Response{Status: StatusCancelled})
	})

	if err := input.Show(); err != nil {
		p.resolve(&Response{Status: StatusCancelled})
	}
}
