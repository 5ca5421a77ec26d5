package ask

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeList drives the list widget's event handlers from a scripted
// Show function.
type fakeList struct {
	onAccept func([]int)
	onHide   func()
	onActive func(int)
	script   func(l *fakeList) error

	labels    []string
	closed    chan struct{}
	closeOnce sync.Once
}

func (l *fakeList) OnAccept(fn func([]int))     { l.onAccept = fn }
func (l *fakeList) OnHide(fn func())            { l.onHide = fn }
func (l *fakeList) OnActiveChange(fn func(int)) { l.onActive = fn }
func (l *fakeList) Show() error                 { return l.script(l) }
func (l *fakeList) Close() {
	l.closeOnce.Do(func() { close(l.closed) })
}

type fakeInput struct {
	onAccept func(string)
	onHide   func()
	script   func(i *fakeInput) error
}

func (i *fakeInput) OnAccept(fn func(string)) { i.onAccept = fn }
func (i *fakeInput) OnHide(fn func())         { i.onHide = fn }
func (i *fakeInput) Show() error              { return i.script(i) }
func (i *fakeInput) Close()                   {}

type fakeUI struct {
	listScript  func(l *fakeList) error
	inputScript func(i *fakeInput) error
	lastList    *fakeList
}

func (u *fakeUI) NewList(title, description string, options []string) ListWidget {
	l := &fakeList{script: u.listScript, labels: options, closed: make(chan struct{})}
	u.lastList = l
	return l
}

func (u *fakeUI) NewInput(title, placeholder string) InputWidget {
	return &fakeInput{script: u.inputScript}
}

func newTestService(ui UI, grace time.Duration) *Service {
	return &Service{ui: ui, grace: grace}
}

var testItems = []Item{
	{Label: "Option A", Detail: "first"},
	{Label: "Option B", Detail: "second"},
}

func TestAskAnswered(t *testing.T) {
	ui := &fakeUI{
		listScript: func(l *fakeList) error {
			l.onActive(0) // widget auto-focus
			l.onAccept([]int{1})
			l.onHide()
			return nil
		},
	}
	svc := newTestService(ui, engagementGrace)

	resp, err := svc.Ask(context.Background(), Query{
		Question: "Which one?",
		Items:    testItems,
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != StatusAnswered {
		t.Fatalf("Status = %q, want answered", resp.Status)
	}
	if len(resp.Selected) != 1 {
		t.Fatalf("expected 1 selected item, got %d", len(resp.Selected))
	}
	// Resolution returns the caller's original item, detail included.
	if resp.Selected[0] != testItems[1] {
		t.Errorf("Selected[0] = %+v, want %+v", resp.Selected[0], testItems[1])
	}
	if got := resp.Answer(); got != "Option B" {
		t.Errorf("Answer() = %q", got)
	}
}

func TestAskSentinelAppended(t *testing.T) {
	ui := &fakeUI{
		listScript: func(l *fakeList) error {
			l.onAccept([]int{0})
			l.onHide()
			return nil
		},
	}
	svc := newTestService(ui, engagementGrace)

	_, err := svc.Ask(context.Background(), Query{
		Question: "q",
		Items:    testItems,
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	labels := ui.lastList.labels
	if len(labels) != len(testItems)+1 {
		t.Fatalf("expected %d labels, got %d", len(testItems)+1, len(labels))
	}
	if labels[len(labels)-1] != OtherLabel {
		t.Errorf("last label = %q, want %q", labels[len(labels)-1], OtherLabel)
	}
}

func TestAskTimeout(t *testing.T) {
	ui := &fakeUI{
		listScript: func(l *fakeList) error {
			<-l.closed // deadline expiry force-dismisses
			l.onHide()
			return nil
		},
	}
	svc := newTestService(ui, engagementGrace)

	start := time.Now()
	resp, err := svc.Ask(context.Background(), Query{
		Question: "q",
		Items:    testItems,
		Timeout:  30 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != StatusTimedOut {
		t.Errorf("Status = %q, want timeout", resp.Status)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("took too long: %v", elapsed)
	}
	if got := resp.Answer(); got != "timeout" {
		t.Errorf("Answer() = %q, want timeout", got)
	}
}

func TestAskEngagementDisablesTimeout(t *testing.T) {
	ui := &fakeUI{
		listScript: func(l *fakeList) error {
			l.onActive(0) // auto-focus, inside the grace window
			time.Sleep(20 * time.Millisecond)
			l.onActive(1) // human engagement after grace
			time.Sleep(100 * time.Millisecond)
			l.onAccept([]int{1})
			l.onHide()
			return nil
		},
	}
	svc := newTestService(ui, 5*time.Millisecond)

	resp, err := svc.Ask(context.Background(), Query{
		Question: "q",
		Items:    testItems,
		Timeout:  40 * time.Millisecond, // would expire mid-sleep
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != StatusAnswered {
		t.Errorf("Status = %q, want answered after engagement", resp.Status)
	}
}

func TestAskAutoFocusDoesNotDisableTimeout(t *testing.T) {
	ui := &fakeUI{
		listScript: func(l *fakeList) error {
			l.onActive(0) // auto-focus only, no human engagement
			<-l.closed
			l.onHide()
			return nil
		},
	}
	svc := newTestService(ui, 50*time.Millisecond)

	resp, err := svc.Ask(context.Background(), Query{
		Question: "q",
		Items:    testItems,
		Timeout:  30 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != StatusTimedOut {
		t.Errorf("Status = %q, want timeout despite auto-focus", resp.Status)
	}
}

func TestAskCancelled(t *testing.T) {
	ui := &fakeUI{
		listScript: func(l *fakeList) error {
			l.onHide() // dismissed without accepting
			return nil
		},
	}
	svc := newTestService(ui, engagementGrace)

	resp, err := svc.Ask(context.Background(), Query{
		Question: "q",
		Items:    testItems,
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != StatusCancelled {
		t.Errorf("Status = %q, want cancelled", resp.Status)
	}
}

func TestAskFreeTextFallback(t *testing.T) {
	sentinelIdx := len(testItems)
	ui := &fakeUI{
		listScript: func(l *fakeList) error {
			l.onAccept([]int{0, sentinelIdx})
			l.onHide() // list leaving the screen for the input prompt
			return nil
		},
		inputScript: func(i *fakeInput) error {
			i.onAccept("  something else  ")
			i.onHide()
			return nil
		},
	}
	svc := newTestService(ui, engagementGrace)

	resp, err := svc.Ask(context.Background(), Query{
		Question: "q",
		Items:    testItems,
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != StatusAnswered {
		t.Fatalf("Status = %q, want answered", resp.Status)
	}
	if resp.FreeText != "something else" {
		t.Errorf("FreeText = %q, want trimmed text", resp.FreeText)
	}
	if len(resp.Selected) != 1 || resp.Selected[0] != testItems[0] {
		t.Errorf("Selected = %+v, want [%+v]", resp.Selected, testItems[0])
	}
	if got := resp.Answer(); got != "Option A, something else" {
		t.Errorf("Answer() = %q", got)
	}
}

func TestAskFreeTextDismissed(t *testing.T) {
	ui := &fakeUI{
		listScript: func(l *fakeList) error {
			l.onAccept([]int{len(testItems)})
			l.onHide()
			return nil
		},
		inputScript: func(i *fakeInput) error {
			i.onHide() // input dismissed without typing
			return nil
		},
	}
	svc := newTestService(ui, engagementGrace)

	resp, err := svc.Ask(context.Background(), Query{
		Question: "q",
		Items:    testItems,
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != StatusCancelled {
		t.Errorf("Status = %q, want cancelled", resp.Status)
	}
}

func TestAskSingleResolution(t *testing.T) {
	ui := &fakeUI{
		listScript: func(l *fakeList) error {
			l.onAccept([]int{0})
			l.onAccept([]int{1}) // late duplicate, must lose
			l.onHide()           // would otherwise report cancelled
			return nil
		},
	}
	svc := newTestService(ui, engagementGrace)

	resp, err := svc.Ask(context.Background(), Query{
		Question: "q",
		Items:    testItems,
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != StatusAnswered {
		t.Fatalf("Status = %q, want answered", resp.Status)
	}
	if len(resp.Selected) != 1 || resp.Selected[0] != testItems[0] {
		t.Errorf("first resolution must win, got %+v", resp.Selected)
	}
}

func TestAskContextCancelled(t *testing.T) {
	ui := &fakeUI{
		listScript: func(l *fakeList) error {
			return nil // widget shown, no events yet
		},
	}
	svc := newTestService(ui, engagementGrace)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := svc.Ask(ctx, Query{
		Question: "q",
		Items:    testItems,
		Timeout:  time.Second,
	})
	if err == nil {
		t.Fatal("expected context error")
	}
	if resp.Status != StatusCancelled {
		t.Errorf("Status = %q, want cancelled", resp.Status)
	}
}
