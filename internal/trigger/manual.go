package trigger

import (
	"context"
)

// ManualTrigger passes a payload through unchanged, for callers that
// submit work programmatically rather than over HTTP.
type ManualTrigger struct{}

func NewManual() *ManualTrigger { return &ManualTrigger{} }

// Fire hands the payload to the submission path as-is.
func (t *ManualTrigger) Fire(ctx context.Context, payload map[string]any) (context.Context, map[string]any) {
	return ctx, payload
}
