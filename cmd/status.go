package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moonjelly/moonjelly/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show moonjelly status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Printf("%s moonjelly Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:  %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	def := cfg.Agents.Defaults
	fmt.Printf("Model:   %s\n", def.Model)
	fmt.Printf("Limits:  %d tool rounds, %d context tokens\n\n", def.MaxToolIterations, def.MaxContextTokens)

	keyMark := "✗"
	if cfg.ActiveProvider().APIKey != "" {
		keyMark = "✓"
	}
	fmt.Printf("API key: %s\n\n", keyMark)

	if len(cfg.MCPServers) == 0 {
		fmt.Println("MCP servers: none configured")
		return nil
	}
	fmt.Println("MCP servers:")
	for name, sc := range cfg.MCPServers {
		target := sc.URL
		if target == "" {
			target = sc.Command
		}
		fmt.Printf("  %-16s %s\n", name, target)
	}
	return nil
}
