package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	def := DefaultConfig()
	if cfg.Agents.Defaults.Model != def.Agents.Defaults.Model {
		t.Errorf("expected default model %q, got %q", def.Agents.Defaults.Model, cfg.Agents.Defaults.Model)
	}
	if cfg.Agents.Defaults.MaxToolIterations != 5 {
		t.Errorf("expected default round bound 5, got %d", cfg.Agents.Defaults.MaxToolIterations)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"agents": map[string]any{
			"defaults": map[string]any{
				"model":             "openai/gpt-4o",
				"maxToolIterations": 3,
			},
		},
		"mcpServers": map[string]any{
			"calc": map[string]any{"command": "moonjelly", "args": []string{"mcp"}},
		},
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Agents.Defaults.Model != "openai/gpt-4o" {
		t.Errorf("expected model %q, got %q", "openai/gpt-4o", cfg.Agents.Defaults.Model)
	}
	if cfg.Agents.Defaults.MaxToolIterations != 3 {
		t.Errorf("expected maxToolIterations 3, got %d", cfg.Agents.Defaults.MaxToolIterations)
	}
	if cfg.MCPServers["calc"].Command != "moonjelly" {
		t.Errorf("expected MCP server parsed, got %+v", cfg.MCPServers)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error for invalid JSON (falls back to default), got: %v", err)
	}
	def := DefaultConfig()
	if cfg.Agents.Defaults.Model != def.Agents.Defaults.Model {
		t.Errorf("expected default model %q, got %q", def.Agents.Defaults.Model, cfg.Agents.Defaults.Model)
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := DefaultConfig()
	cfg.Providers.OpenRouter.APIKey = "sk-or-test"
	cfg.Agents.Defaults.MaxContextTokens = 9000

	if err := Save(&cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Providers.OpenRouter.APIKey != "sk-or-test" {
		t.Errorf("api key lost in roundtrip: %+v", loaded.Providers.OpenRouter)
	}
	if loaded.Agents.Defaults.MaxContextTokens != 9000 {
		t.Errorf("maxContextTokens lost in roundtrip: %d", loaded.Agents.Defaults.MaxContextTokens)
	}
}

func TestActiveProvider_EnvFallback(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-env-key")

	cfg := DefaultConfig()
	p := cfg.ActiveProvider()
	if p.APIKey != "sk-env-key" {
		t.Errorf("expected env credential fallback, got %q", p.APIKey)
	}
}

func TestActiveProvider_ConfigWins(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-env-key")

	cfg := DefaultConfig()
	cfg.Providers.OpenRouter.APIKey = "sk-config-key"
	p := cfg.ActiveProvider()
	if p.APIKey != "sk-config-key" {
		t.Errorf("expected config credential to win, got %q", p.APIKey)
	}
}
