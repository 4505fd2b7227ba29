// Package config defines the moonjelly configuration schema and loader.
//
// JSON keys use camelCase, matching the hand-edited config file layout.
package config

import "os"

// ProviderConfig holds credentials for one LLM provider.
type ProviderConfig struct {
	APIKey       string            `json:"apiKey"`
	APIBase      string            `json:"apiBase,omitempty"`
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty"`
}

// ProvidersConfig holds credentials for the supported completion endpoints.
// OpenRouter is the default gateway; Custom points at any other
// OpenAI-compatible endpoint.
type ProvidersConfig struct {
	OpenRouter ProviderConfig `json:"openrouter"`
	OpenAI     ProviderConfig `json:"openai"`
	Custom     ProviderConfig `json:"custom"`
}

// AgentDefaults holds default values for agent behaviour.
type AgentDefaults struct {
	Model             string  `json:"model"`
	MaxTokens         int     `json:"maxTokens"`
	Temperature       float64 `json:"temperature"`
	MaxToolIterations int     `json:"maxToolIterations"`
	MaxContextTokens  int     `json:"maxContextTokens"`
	SystemPrompt      string  `json:"systemPrompt,omitempty"`
}

func defaultAgentDefaults() AgentDefaults {
	return AgentDefaults{
		Model:             "deepseek/deepseek-chat-v3.1:free",
		MaxTokens:         4096,
		Temperature:       0.7,
		MaxToolIterations: 5,
		MaxContextTokens:  4000,
		SystemPrompt:      "You are a smart assistant. Answer briefly and to the point.",
	}
}

// AgentsConfig wraps agent defaults.
type AgentsConfig struct {
	Defaults AgentDefaults `json:"defaults"`
}

// MCPServerConfig describes one external MCP tool provider.
// Either Command (stdio subprocess) or URL (streamable HTTP) must be set.
type MCPServerConfig struct {
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Config is the root configuration object.
type Config struct {
	Providers  ProvidersConfig            `json:"providers"`
	Agents     AgentsConfig               `json:"agents"`
	MCPServers map[string]MCPServerConfig `json:"mcpServers,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Agents:     AgentsConfig{Defaults: defaultAgentDefaults()},
		MCPServers: map[string]MCPServerConfig{},
	}
}

// ActiveProvider picks the first provider with a configured credential or
// endpoint, falling back to OpenRouter with the OPENROUTER_API_KEY
// environment variable. The static credential is read once at startup.
func (c *Config) ActiveProvider() ProviderConfig {
	for _, p := range []ProviderConfig{c.Providers.Custom, c.Providers.OpenRouter, c.Providers.OpenAI} {
		if p.APIKey != "" || p.APIBase != "" {
			if p.APIKey == "" {
				p.APIKey = os.Getenv("OPENROUTER_API_KEY")
			}
			return p
		}
	}
	return ProviderConfig{APIKey: os.Getenv("OPENROUTER_API_KEY")}
}
