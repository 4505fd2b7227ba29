package tools

import "github.com/moonjelly/moonjelly/internal/schema"

// RegistryBuilder accumulates tools during the construction phase.
// Call Build() to produce a Registry ready for use.
type RegistryBuilder struct {
	tools map[string]schema.Tool
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{tools: make(map[string]schema.Tool)}
}

// WithTool adds a tool and returns the builder, enabling chaining.
// Later registrations with the same name win.
func (b *RegistryBuilder) WithTool(tool schema.Tool) *RegistryBuilder {
	b.tools[tool.Name()] = tool

	return b
}

// Build produces a Registry from the accumulated tools.
func (b *RegistryBuilder) Build() *Registry {
	r := &Registry{tools: make(map[string]schema.Tool, len(b.tools))}
	for k, v := range b.tools {
		r.tools[k] = v
	}
	return r
}
