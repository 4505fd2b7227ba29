package mcp

import (
	"context"
	"encoding/json"

	"github.com/moonjelly/moonjelly/internal/schema"
)

// toolWrapper wraps a single tool discovered from an MCP server and implements
// schema.Tool. Execution errors surface as plain errors; the dispatch site in
// the agent converts them to error-kind tool results.
type toolWrapper struct {
	client      *client
	name        string
	description string
	parameters  json.RawMessage
}

func (w *toolWrapper) Name() string                { return w.name }
func (w *toolWrapper) Description() string         { return w.description }
func (w *toolWrapper) Parameters() json.RawMessage { return w.parameters }

func (w *toolWrapper) Execute(ctx context.Context, params map[string]any) (string, error) {
	return w.client.callTool(ctx, w.name, params)
}

// Ensure toolWrapper implements schema.Tool at compile time.
var _ schema.Tool = (*toolWrapper)(nil)
