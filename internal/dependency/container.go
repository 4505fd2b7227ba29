// Package dependency wires the core moonjelly services using go.uber.org/dig.
package dependency

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/moonjelly/moonjelly/internal/agent"
	"github.com/moonjelly/moonjelly/internal/config"
	"github.com/moonjelly/moonjelly/internal/mcp"
	"github.com/moonjelly/moonjelly/internal/providers"
	"github.com/moonjelly/moonjelly/internal/schema"
	"github.com/moonjelly/moonjelly/internal/session"
	"github.com/moonjelly/moonjelly/internal/tools"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	provider schema.LLMProvider
	agent    *agent.Agent
}

func (c *Container) Provider() schema.LLMProvider { return c.provider }
func (c *Container) Agent() *agent.Agent          { return c.agent }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	constructors := []any{
		func() *config.Config { return cfg },
		newProvider,
		newSettings,
		newSession,
		newRegistry,
		newMCPManager,
		newAgent,
	}
	for _, ctor := range constructors {
		if err := d.Provide(ctor); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(provider schema.LLMProvider, a *agent.Agent) {
		result = &Container{provider: provider, agent: a}
	})
	return result, err
}

func newProvider(cfg *config.Config) (schema.LLMProvider, error) {
	p := cfg.ActiveProvider()
	if p.APIKey == "" {
		return nil, fmt.Errorf(
			"no API key configured: edit %s or set OPENROUTER_API_KEY", config.ConfigPath())
	}
	return providers.NewOpenAIProvider(
		p.APIKey, p.APIBase, cfg.Agents.Defaults.Model, p.ExtraHeaders), nil
}

func newSettings(cfg *config.Config) schema.AgentSettings {
	def := cfg.Agents.Defaults
	return schema.NewAgentSettings(
		def.Model, def.MaxToolIterations, def.Temperature, def.MaxTokens, def.MaxContextTokens)
}

func newSession() *session.Session {
	return session.New("cli:direct")
}

func newRegistry(sess *session.Session) *tools.Registry {
	return tools.NewRegistryBuilder().
		WithTool(tools.NewDatetimeTool()).
		WithTool(tools.NewContextTokensTool(sess)).
		WithTool(tools.NewClearContextTool(sess)).
		Build()
}

func newMCPManager(cfg *config.Config) *mcp.Manager {
	servers := make(map[string]mcp.ServerConfig, len(cfg.MCPServers))
	for name, sc := range cfg.MCPServers {
		servers[name] = mcp.ServerConfig{
			Command: sc.Command,
			Args:    sc.Args,
			Env:     sc.Env,
			URL:     sc.URL,
			Headers: sc.Headers,
		}
	}
	return mcp.NewManager(servers)
}

func newAgent(
	provider schema.LLMProvider,
	settings schema.AgentSettings,
	sess *session.Session,
	registry *tools.Registry,
	mcpManager *mcp.Manager,
) *agent.Agent {
	return agent.New(provider, settings, sess, registry, mcpManager)
}
