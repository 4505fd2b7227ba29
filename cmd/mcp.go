package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moonjelly/moonjelly/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the built-in calculator MCP server on stdio",
	Long: `Run the built-in calculator-and-utilities MCP server, speaking
JSON-RPC 2.0 on stdin/stdout. Point an mcpServers config entry at
"moonjelly mcp" to expose add, multiply and get_weather to the agent.`,
	RunE: runMCP,
}

func runMCP(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := mcpserver.New().Serve(ctx, os.Stdin, os.Stdout)
	if err == context.Canceled {
		return nil
	}
	return err
}
