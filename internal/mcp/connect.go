package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/moonjelly/moonjelly/internal/schema"
)

// Manager owns the lifecycle of all MCP server connections for a single agent.
type Manager struct {
	servers map[string]ServerConfig

	mu      sync.Mutex // guards clients and registrar writes during connect
	clients []*client
	once    sync.Once
}

// NewManager returns a Manager configured with the given MCP servers.
func NewManager(servers map[string]ServerConfig) *Manager {
	return &Manager{servers: servers}
}

// ConnectOnce connects to all configured MCP servers and registers their
// discovered tools into reg under their advertised names (last registration
// wins). Servers are connected concurrently; connection happens at most once.
// Failed servers are logged and skipped (non-fatal).
func (m *Manager) ConnectOnce(ctx context.Context, reg schema.ToolRegistrar) {
	m.once.Do(func() {
		g, gctx := errgroup.WithContext(ctx)
		for name, cfg := range m.servers {
			name, cfg := name, cfg
			g.Go(func() error {
				c := newClient(name, cfg)
				if err := c.connect(gctx); err != nil {
					slog.Error("MCP server connect failed", "server", name, "err", err)
					return nil
				}
				m.registerTools(gctx, c, reg)
				return nil
			})
		}
		_ = g.Wait()
	})
}

// Attach registers an MCP server reachable over an already-open stdio-style
// transport (e.g. an in-process server behind an io.Pipe).
func (m *Manager) Attach(ctx context.Context, name string, in io.WriteCloser, out io.Reader, reg schema.ToolRegistrar) error {
	c := newClient(name, ServerConfig{})
	if err := c.attach(ctx, in, out); err != nil {
		return err
	}
	m.registerTools(ctx, c, reg)
	return nil
}

// registerTools lists the server's tools and wraps each as a schema.Tool.
func (m *Manager) registerTools(ctx context.Context, c *client, reg schema.ToolRegistrar) {
	toolDefs, err := c.listTools(ctx)
	if err != nil {
		slog.Error("MCP server list_tools failed", "server", c.name, "err", err)
		c.close()
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, toolDef := range toolDefs {
		toolName, _ := toolDef["name"].(string)
		if toolName == "" {
			continue
		}
		desc, _ := toolDef["description"].(string)
		inputSchema, _ := toolDef["inputSchema"].(map[string]any)
		if inputSchema == nil {
			inputSchema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		schemaBytes, _ := json.Marshal(inputSchema)

		w := &toolWrapper{
			client:      c,
			name:        toolName,
			description: desc,
			parameters:  json.RawMessage(schemaBytes),
		}
		reg.Add(w)
		slog.Debug("MCP tool registered", "server", c.name, "tool", w.name)
	}
	slog.Info("MCP server connected", "server", c.name, "tools", len(toolDefs))
	m.clients = append(m.clients, c)
}

// Close stops all MCP server connections owned by this manager.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		c.close()
	}
	m.clients = nil
}
