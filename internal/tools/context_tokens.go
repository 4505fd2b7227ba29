package tools

import (
	"context"
	"encoding/json"
	"strconv"
)

// TokenCounter is the view of the session the ContextTokensTool needs.
type TokenCounter interface {
	TotalContextTokens() int
}

// ContextTokensTool reports the approximate token count of the current
// transcript. The count is a length-based estimate, not a tokenizer.
type ContextTokensTool struct {
	counter TokenCounter
}

// NewContextTokensTool creates a ContextTokensTool backed by the given counter.
func NewContextTokensTool(counter TokenCounter) *ContextTokensTool {
	return &ContextTokensTool{counter: counter}
}

func (t *ContextTokensTool) Name() string { return string(ToolGetTotalContextTokens) }

func (t *ContextTokensTool) Description() string {
	return "Get the total number of tokens in the current context"
}

func (t *ContextTokensTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *ContextTokensTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	return strconv.Itoa(t.counter.TotalContextTokens()), nil
}
