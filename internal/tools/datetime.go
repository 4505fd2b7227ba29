package tools

import (
	"context"
	"encoding/json"
	"time"
)

// DatetimeTool reports the current date and time. Pure and synchronous.
type DatetimeTool struct {
	now func() time.Time
}

// NewDatetimeTool creates a DatetimeTool using the wall clock.
func NewDatetimeTool() *DatetimeTool {
	return &DatetimeTool{now: time.Now}
}

func (t *DatetimeTool) Name() string { return string(ToolGetDatetime) }

func (t *DatetimeTool) Description() string {
	return "Get the current date and time in ISO 8601 format"
}

func (t *DatetimeTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *DatetimeTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	return t.now().Format(time.RFC3339), nil
}
