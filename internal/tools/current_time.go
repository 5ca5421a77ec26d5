package tools

import (
	"context"
	"time"
)

// CurrentTimeTool reports the local date and time. Models have no clock;
// goals like "remind me in an hour" need one.
type CurrentTimeTool struct{}

func NewCurrentTimeTool() *CurrentTimeTool { return &CurrentTimeTool{} }

func (t *CurrentTimeTool) Name() string { return "current_time" }

func (t *CurrentTimeTool) Description() string {
	return "Get the current local date and time, optionally in a named IANA timezone."
}

func (t *CurrentTimeTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timezone": map[string]any{
				"type":        "string",
				"description": `IANA timezone name (e.g. "Europe/Stockholm"). Default: local.`,
			},
		},
	}
}

func (t *CurrentTimeTool) Execute(ctx context.Context, args map[string]any) *Result {
	now := time.Now()
	if tz, ok := args["timezone"].(string); ok && tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return ErrorResult("unknown timezone: " + tz)
		}
		now = now.In(loc)
	}
	return NewResult(now.Format("Monday, 2 January 2006 15:04:05 MST"))
}
