package tools

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter is a sliding-window limiter for tool executions, keyed by
// tool name. It caps how hard a runaway loop can hammer any one tool
// within a single process lifetime.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	max     int
	window  time.Duration
}

// NewRateLimiter creates a limiter allowing max executions per key within
// the window. Pass max <= 0 to disable (returns nil, safe to set).
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		max:     max,
		window:  window,
	}
}

// Allow checks whether an execution is allowed for the given key.
// Returns nil when allowed; recording happens on success.
func (rl *RateLimiter) Allow(key string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	entries := rl.windows[key]
	start := 0
	for start < len(entries) && entries[start].Before(cutoff) {
		start++
	}
	entries = entries[start:]

	if len(entries) >= rl.max {
		return fmt.Errorf("tool rate limit exceeded: %d calls per %s for %s", rl.max, rl.window, key)
	}

	rl.windows[key] = append(entries, now)
	return nil
}

// Cleanup drops stale windows. Call periodically in long-lived processes.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for key, entries := range rl.windows {
		start := 0
		for start < len(entries) && entries[start].Before(cutoff) {
			start++
		}
		if start == len(entries) {
			delete(rl.windows, key)
		} else {
			rl.windows[key] = entries[start:]
		}
	}
}
