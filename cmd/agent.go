package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moonjelly/moonjelly/internal/agent"
	"github.com/moonjelly/moonjelly/internal/config"
	"github.com/moonjelly/moonjelly/internal/dependency"
)

var (
	agentMessage string
	agentSystem  string
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Interact with the agent",
	RunE:  runAgent,
}

func init() {
	agentCmd.Flags().StringVarP(&agentMessage, "message", "m", "", "Send a single message and exit")
	agentCmd.Flags().StringVar(&agentSystem, "system", "", "Override the system prompt")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runAgent(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}

	a := container.Agent()
	defer a.Close()

	system := agentSystem
	if system == "" {
		system = cfg.Agents.Defaults.SystemPrompt
	}
	if system != "" {
		a.SetSystemMessage(system)
	}

	if agentMessage != "" {
		return runSingleMessage(a)
	}

	return runInteractive(a)
}

// runSingleMessage sends one message to the agent and prints the response.
func runSingleMessage(a *agent.Agent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Fprintf(os.Stderr, "  ↳ thinking...\n")
	res, err := a.SendMessage(ctx, agentMessage)
	if err != nil {
		return err
	}

	printResponse(res)
	return nil
}

// runInteractive starts the REPL loop: reads lines from stdin, sends each to
// the agent, and waits for each reply before prompting again.
func runInteractive(a *agent.Agent) error {
	fmt.Printf("%s Interactive mode (type 'exit' or Ctrl+C to quit, '/clear' to reset the context)\n\n", logo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listenForSignals(cancel)

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("You: ")

		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if exitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return nil
		}

		if strings.EqualFold(line, "/clear") || strings.EqualFold(line, "/new") {
			a.ResetContext()
			fmt.Println("Context cleared.")
			continue
		}

		res, err := a.SendMessage(ctx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		printResponse(res)
	}
}

// listenForSignals cancels ctx on SIGINT or SIGTERM and exits.
func listenForSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		switch <-sigChan {
		case syscall.SIGINT:
			fmt.Println("\nReceived SIGINT, shutting down...")
		case syscall.SIGTERM:
			fmt.Println("\nReceived SIGTERM, shutting down...")
		}

		cancel()
		os.Exit(0)
	}()
}

func printResponse(text string) {
	fmt.Printf("\n%s moonjelly\n%s\n\n", logo, text)
}
