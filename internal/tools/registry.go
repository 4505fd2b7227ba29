package tools

import (
	"encoding/json"

	"github.com/moonjelly/moonjelly/internal/schema"
)

// ToolName is the canonical name of a built-in tool.
type ToolName string

const (
	ToolGetDatetime           ToolName = "get_datetime"
	ToolGetTotalContextTokens ToolName = "get_total_context_tokens"
	ToolClearContext          ToolName = "clear_context"
)

// Registry holds the named set of tools advertised to the LLM.
// It is created once at startup; MCP discovery extends it at connect time via
// Add. There is no removal operation.
type Registry struct {
	tools map[string]schema.Tool
}

// NewRegistry returns a Registry seeded with the given tools.
func NewRegistry(ts ...schema.Tool) *Registry {
	r := &Registry{tools: make(map[string]schema.Tool, len(ts))}
	for _, t := range ts {
		r.tools[t.Name()] = t
	}
	return r
}

// Get returns the tool with the given name, or nil if not registered.
func (r *Registry) Get(name string) schema.Tool {
	return r.tools[name]
}

// Add registers a tool, replacing any existing tool with the same name.
func (r *Registry) Add(t schema.Tool) schema.Tool {
	r.tools[t.Name()] = t

	return t
}

// Names returns the names of all registered tools.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Definitions returns all tool definitions in OpenAI function-calling format.
func (r *Registry) Definitions() []map[string]any {
	list := make([]map[string]any, 0, len(r.tools))
	for _, t := range r.tools {
		var params any
		if err := json.Unmarshal(t.Parameters(), &params); err != nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		list = append(list, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name(),
				"description": t.Description(),
				"parameters":  params,
			},
		})
	}
	return list
}

// Ensure Registry satisfies the registrar contract used by MCP discovery.
var _ schema.ToolRegistrar = (*Registry)(nil)
