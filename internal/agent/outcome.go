// Package agent drives goal-directed multi-turn conversations with a
// language model: per turn it streams one response, dispatches any
// requested tool calls, and classifies whether the agent should keep
// going or stop.
package agent

import (
	"regexp"
	"strings"

	"github.com/PEZ/joyride-ai-chat/internal/providers"
)

// Detector decides from response text alone whether the agent announced
// more work or declared the task resolved. It is an interface so the
// detection policy can be swapped without touching the loop.
type Detector interface {
	Continuation(text string) bool
	Completion(text string) bool
}

// Classify maps one turn's observations to a continue/stop decision.
// Pure and order-sensitive; the priority is fixed:
//
//  1. turn >= maxTurns           → stop, max-turns-reached
//  2. tool calls pending         → continue, tools-executing
//  3. text announces more work   → continue, agent-continuing
//  4. text declares completion   → stop, task-complete
//  5. otherwise                  → stop, agent-finished
//
// Tool calls outrank completion-sounding text: a response that requests
// tools has not resolved the task yet, whatever the prose claims.
func Classify(d Detector, turn, maxTurns int, toolCalls []providers.ToolCall, text string) Outcome {
	if turn >= maxTurns {
		return Outcome{Continue: false, Reason: ReasonMaxTurns}
	}
	if len(toolCalls) > 0 {
		return Outcome{Continue: true, Reason: ReasonToolsExecuting}
	}
	if d.Continuation(text) {
		return Outcome{Continue: true, Reason: ReasonAgentContinuing}
	}
	if d.Completion(text) {
		return Outcome{Continue: false, Reason: ReasonTaskComplete}
	}
	return Outcome{Continue: false, Reason: ReasonAgentFinished}
}

// detectorPattern pairs a human-readable name with a compiled regex.
type detectorPattern struct {
	name    string
	pattern *regexp.Regexp
}

// RegexDetector classifies response text with a fixed pattern table.
type RegexDetector struct {
	continuation []detectorPattern
	nounRe       *regexp.Regexp
	synonymRe    *regexp.Regexp
}

// NewRegexDetector builds the default detector.
func NewRegexDetector() *RegexDetector {
	return &RegexDetector{
		continuation: []detectorPattern{
			{"next-step", regexp.MustCompile(`(?i)\bnext\s+(step|action)\b`)},
			{"ill", regexp.MustCompile(`(?i)\bi'll\b`)},
			{"i-will", regexp.MustCompile(`(?i)\bi\s+will\b`)},
			{"let-me", regexp.MustCompile(`(?i)\blet\s+me\b`)},
			{"continuing", regexp.MustCompile(`(?i)\bcontinu`)},
			{"proceed", regexp.MustCompile(`(?i)\bproceed`)},
		},
		nounRe:    regexp.MustCompile(`(?i)\b(task|goal|mission)\b`),
		synonymRe: regexp.MustCompile(`(?i)\b(completed?|done|finished|achieved|reached|accomplished|success\w*)\b`),
	}
}

// Continuation reports whether the text announces further work.
func (d *RegexDetector) Continuation(text string) bool {
	if text == "" {
		return false
	}
	for _, p := range d.continuation {
		if p.pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// Completion reports whether the text declares the task resolved: a
// completion noun (task/goal/mission) co-occurring with a completion
// synonym in the same clause, where the synonym is not immediately
// preceded by the token "not".
//
// Only that single leading "not" is recognized; compound negations like
// "absolutely not yet complete" still read as completion. Known
// limitation, kept until there is product guidance on the heuristic.
func (d *RegexDetector) Completion(text string) bool {
	if text == "" {
		return false
	}
	for _, clause := range splitClauses(text) {
		if !d.nounRe.MatchString(clause) {
			continue
		}
		loc := d.synonymRe.FindStringIndex(clause)
		if loc == nil {
			continue
		}
		if precedingToken(clause[:loc[0]]) == "not" {
			continue
		}
		return true
	}
	return false
}

var clauseSplitRe = regexp.MustCompile(`[.!?;\n]+`)

func splitClauses(text string) []string {
	return clauseSplitRe.Split(text, -1)
}

// precedingToken returns the last whitespace-separated token of s,
// lowercased.
func precedingToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}
