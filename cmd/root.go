// Package cmd implements the moonjelly CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"
const logo = "🪼"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "moonjelly",
	Short: logo + " moonjelly - a tool-calling LLM agent",
	Long:  logo + " moonjelly - a single-session LLM agent with built-in and MCP-provided tools",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(statusCmd)
}
