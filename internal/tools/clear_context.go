package tools

import (
	"context"
	"encoding/json"
)

// ContextResetter is the view of the session the ClearContextTool needs.
type ContextResetter interface {
	Clear()
}

// ClearContextTool truncates the transcript to empty on the model's request.
type ClearContextTool struct {
	resetter ContextResetter
}

// NewClearContextTool creates a ClearContextTool backed by the given resetter.
func NewClearContextTool(resetter ContextResetter) *ClearContextTool {
	return &ClearContextTool{resetter: resetter}
}

func (t *ClearContextTool) Name() string { return string(ToolClearContext) }

func (t *ClearContextTool) Description() string {
	return "Clear the current conversation context"
}

func (t *ClearContextTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *ClearContextTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	t.resetter.Clear()
	return "Context cleared.", nil
}
