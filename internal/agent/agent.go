// Package agent implements the conversation loop: it forwards user text to
// the completion endpoint together with the registered tool schemas, executes
// any tool calls the model requests, splices the results back into the
// transcript, and repeats until the model answers in plain text or the
// per-turn round bound is reached.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/moonjelly/moonjelly/internal/mcp"
	"github.com/moonjelly/moonjelly/internal/schema"
	"github.com/moonjelly/moonjelly/internal/session"
	"github.com/moonjelly/moonjelly/internal/shared/llmutils"
	"github.com/moonjelly/moonjelly/internal/tools"
)

// RoundLimitMessage is the fixed fallback answer when a turn exhausts its
// tool-execution rounds without producing plain text.
const RoundLimitMessage = "I've reached the maximum number of tool iterations without a final answer."

// Agent processes one conversation, strictly sequentially: a user turn is
// fully handled, including all nested tool-execution rounds, before the next
// one is accepted.
type Agent struct {
	provider   schema.LLMProvider
	settings   schema.AgentSettings
	sess       *session.Session
	registry   *tools.Registry
	mcpManager *mcp.Manager
}

// New creates an Agent. mcpManager may be nil when no external tool provider
// is configured.
func New(
	provider schema.LLMProvider,
	settings schema.AgentSettings,
	sess *session.Session,
	registry *tools.Registry,
	mcpManager *mcp.Manager,
) *Agent {
	return &Agent{
		provider:   provider,
		settings:   settings,
		sess:       sess,
		registry:   registry,
		mcpManager: mcpManager,
	}
}

// Session returns the agent's transcript.
func (a *Agent) Session() *session.Session { return a.sess }

// Registry returns the agent's tool registry.
func (a *Agent) Registry() *tools.Registry { return a.registry }

// SetSystemMessage replaces (or injects) the transcript's system prompt.
func (a *Agent) SetSystemMessage(content string) {
	a.sess.SetSystem(content)
}

// ResetContext clears the transcript.
func (a *Agent) ResetContext() {
	a.sess.Clear()
}

// AttachMCP registers an MCP server reachable over an already-open
// stdio-style transport (e.g. an in-process server behind an io.Pipe) and
// adds its tools to the registry.
func (a *Agent) AttachMCP(ctx context.Context, name string, in io.WriteCloser, out io.Reader) error {
	if a.mcpManager == nil {
		a.mcpManager = mcp.NewManager(nil)
	}
	return a.mcpManager.Attach(ctx, name, in, out, a.registry)
}

// Close shuts down any MCP server connections the agent owns.
func (a *Agent) Close() {
	if a.mcpManager != nil {
		a.mcpManager.Close()
	}
}

// SendMessage runs one user turn and returns the model's final text answer.
//
// A completion whose response contains tool calls starts a tool-execution
// round: every requested tool produces exactly one result (success or error)
// appended to the transcript before the next completion is requested. Rounds
// are bounded by settings.MaxToolIter; exceeding the bound ends the turn with
// RoundLimitMessage. Endpoint failures are not recovered here and propagate
// to the caller, ending the turn.
func (a *Agent) SendMessage(ctx context.Context, text string) (string, error) {
	if a.mcpManager != nil {
		a.mcpManager.ConnectOnce(ctx, a.registry)
	}

	a.sess.AddUser(text)

	for round := 0; round < a.settings.MaxToolIter; round++ {
		resp, err := a.provider.Chat(ctx,
			a.sess.Messages(),
			a.registry.Definitions(),
			schema.NewChatOptions(a.settings.Model, a.settings.MaxTokens, a.settings.Temperature),
		)
		if err != nil {
			return "", fmt.Errorf("request completion: %w", err)
		}

		if total := resp.Usage["total_tokens"]; total > 0 {
			a.sess.SetReportedTokens(total)
			a.sess.TrimToBudget(a.settings.MaxContextTokens)
		}

		toolCalls := make([]schema.ToolCall, 0, len(resp.ToolCalls))
		for _, tc := range resp.ToolCalls {
			id := tc.ID
			if id == "" {
				// Some endpoints omit the correlation id; results still need one.
				id = uuid.NewString()
			}
			toolCalls = append(toolCalls, schema.ToolCall{ID: id, Name: tc.Name, Arguments: tc.Arguments})
		}

		a.sess.AddAssistant(resp.Content, toolCalls)

		if len(toolCalls) == 0 {
			content := ""
			if resp.Content != nil {
				content = *resp.Content
			}
			return llmutils.StripThink(content), nil
		}

		for _, tc := range toolCalls {
			result := a.dispatch(ctx, tc)
			a.sess.AddToolResult(tc.ID, tc.Name, result)
		}
	}

	slog.Warn("Tool round limit reached", "limit", a.settings.MaxToolIter)
	return RoundLimitMessage, nil
}

// dispatch executes one tool call and returns its textual result. Failures
// of any kind - unknown name, returned error, panic in the callable - are
// converted to error-kind results here and never escape the dispatch boundary.
func (a *Agent) dispatch(ctx context.Context, tc schema.ToolCall) (result string) {
	argsJSON, _ := json.Marshal(tc.Arguments)
	slog.Info("Tool call", "name", tc.Name, "args", llmutils.Truncate(string(argsJSON), 200))

	t := a.registry.Get(tc.Name)
	if t == nil {
		slog.Warn("Unknown tool requested", "name", tc.Name)
		return fmt.Sprintf("Unknown tool: %s", tc.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Tool panicked", "name", tc.Name, "panic", r)
			result = fmt.Sprintf("Error: %v", r)
		}
	}()

	out, err := t.Execute(ctx, tc.Arguments)
	if err != nil {
		slog.Error("Tool failed", "name", tc.Name, "err", err)
		return fmt.Sprintf("Error: %s", err.Error())
	}
	return out
}
