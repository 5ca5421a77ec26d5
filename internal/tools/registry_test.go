package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubTool struct {
	name   string
	result *Result
}

func (s *stubTool) Name() string               { return s.name }
func (s *stubTool) Description() string        { return "stub" }
func (s *stubTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (s *stubTool) Execute(ctx context.Context, args map[string]any) *Result {
	return s.result
}

type stubRawTool struct {
	stubTool
	payload any
	err     error
}

func (s *stubRawTool) ExecuteRaw(ctx context.Context, args map[string]any) (any, error) {
	return s.payload, s.err
}

func TestInvokeUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Invoke(context.Background(), "ghost", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unknown tool") {
		t.Errorf("error = %v", err)
	}
}

func TestInvokePlainTool(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "ok", result: NewResult("fine")})

	payload, err := r.Invoke(context.Background(), "ok", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload != "fine" {
		t.Errorf("payload = %v", payload)
	}
}

func TestInvokeToolError(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "bad", result: ErrorResult("it broke")})

	_, err := r.Invoke(context.Background(), "bad", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "it broke") {
		t.Errorf("error = %v", err)
	}

	wrapped := errors.New("inner")
	r.Register(&stubTool{name: "bad2", result: ErrorResult("outer").WithError(wrapped)})
	_, err = r.Invoke(context.Background(), "bad2", nil)
	if !errors.Is(err, wrapped) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestInvokeRawToolPassthrough(t *testing.T) {
	tree := &Node{Text: "raw"}
	r := NewRegistry()
	r.Register(&stubRawTool{stubTool: stubTool{name: "raw"}, payload: tree})

	payload, err := r.Invoke(context.Background(), "raw", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload != tree {
		t.Errorf("expected the payload to pass through untouched, got %v", payload)
	}
}

func TestInvokeRateLimited(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "tick", result: NewResult("ok")})
	r.SetRateLimiter(NewRateLimiter(2, time.Minute))

	for i := 0; i < 2; i++ {
		if _, err := r.Invoke(context.Background(), "tick", nil); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	_, err := r.Invoke(context.Background(), "tick", nil)
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	if !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("error = %v", err)
	}
}

func TestProviderDefsSortedAndFiltered(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "zeta", result: NewResult("")})
	r.Register(&stubTool{name: "alpha", result: NewResult("")})
	r.Register(&stubTool{name: "mid", result: NewResult("")})

	defs := r.ProviderDefs()
	if len(defs) != 3 {
		t.Fatalf("expected 3 defs, got %d", len(defs))
	}
	if defs[0].Function.Name != "alpha" || defs[2].Function.Name != "zeta" {
		t.Errorf("defs not sorted: %v, %v", defs[0].Function.Name, defs[2].Function.Name)
	}

	filtered := r.ProviderDefs("mid", "missing")
	if len(filtered) != 1 || filtered[0].Function.Name != "mid" {
		t.Errorf("filtered = %+v", filtered)
	}
}

func TestRegisterUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "a", result: NewResult("")})
	r.Register(&stubTool{name: "b", result: NewResult("")})

	if r.Count() != 2 {
		t.Errorf("Count = %d, want 2", r.Count())
	}

	r.Unregister("a")
	if _, ok := r.Get("a"); ok {
		t.Error("expected a to be gone")
	}
	if got := r.List(); len(got) != 1 || got[0] != "b" {
		t.Errorf("List = %v", got)
	}
}
