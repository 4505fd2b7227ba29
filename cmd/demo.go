package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/moonjelly/moonjelly/internal/agent"
	"github.com/moonjelly/moonjelly/internal/config"
	"github.com/moonjelly/moonjelly/internal/dependency"
	"github.com/moonjelly/moonjelly/internal/mcpserver"
	"github.com/moonjelly/moonjelly/internal/shared/llmutils"
)

var demoScriptPath string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the scripted demonstration conversation",
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoScriptPath, "script", "", "YAML file with system prompt and queries")
}

// demoScript is the YAML shape of a demo script file.
type demoScript struct {
	System  string   `yaml:"system"`
	Queries []string `yaml:"queries"`
}

// defaultScript mirrors the canonical demonstration sequence.
func defaultScript() demoScript {
	return demoScript{
		System: "You are a smart assistant. Answer briefly and to the point.",
		Queries: []string{
			"My favorite color is blue.",
			"What is my favorite color?",
			"How many tokens are in the context?",
			"Clear the context.",
			"How many tokens are in the context?",
			"What time is it?",
			"Add 15 and 27",
			"What's the weather in Lisbon?",
		},
	}
}

func loadScript(path string) (demoScript, error) {
	if path == "" {
		return defaultScript(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return demoScript{}, fmt.Errorf("read script %s: %w", path, err)
	}
	var script demoScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return demoScript{}, fmt.Errorf("parse script %s: %w", path, err)
	}
	if len(script.Queries) == 0 {
		return demoScript{}, fmt.Errorf("script %s has no queries", path)
	}
	return script, nil
}

func runDemo(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	script, err := loadScript(demoScriptPath)
	if err != nil {
		return err
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}

	a := container.Agent()
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	// Attach the built-in calculator MCP server in-process so the demo has
	// remote-provided tools even with an empty mcpServers config.
	if err := attachCalculator(ctx, a); err != nil {
		return fmt.Errorf("attach calculator server: %w", err)
	}

	fmt.Printf("Max tool call iterations: %d\n", cfg.Agents.Defaults.MaxToolIterations)
	fmt.Printf("Max context tokens: %d\n\n", cfg.Agents.Defaults.MaxContextTokens)

	if script.System != "" {
		a.SetSystemMessage(script.System)
	}

	fmt.Printf("Available tools: %v\n\n", a.Registry().Names())

	for _, query := range script.Queries {
		fmt.Printf("You: %s\n", query)
		res, err := a.SendMessage(ctx, query)
		if err != nil {
			return err
		}
		fmt.Printf(">>> %s\n\n", res)
	}

	fmt.Println("=== Agent Context ===")
	for i, msg := range a.Session().Messages().Messages {
		fmt.Printf("%d. %s: %s\n", i+1, msg.Role, llmutils.Truncate(msg.Text(), 100))
	}

	return nil
}

// attachCalculator runs the built-in MCP server in-process and registers its
// tools with the agent. The server goroutine exits when the client pipe closes.
func attachCalculator(ctx context.Context, a *agent.Agent) error {
	clientReads, serverWrites := io.Pipe()
	serverReads, clientWrites := io.Pipe()

	go func() {
		defer serverWrites.Close()
		_ = mcpserver.New().Serve(ctx, serverReads, serverWrites)
	}()

	return a.AttachMCP(ctx, "calculator", clientWrites, clientReads)
}
