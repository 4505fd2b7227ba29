package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/moonjelly/moonjelly/internal/schema"
	"github.com/moonjelly/moonjelly/internal/session"
	"github.com/moonjelly/moonjelly/internal/tools"
)

// scriptedProvider replays a fixed sequence of responses and records what it
// was asked.
type scriptedProvider struct {
	responses []schema.LLMResponse
	err       error // returned on every call when non-nil

	calls        int
	seenMessages []schema.Messages
	seenTools    [][]map[string]any
}

func (p *scriptedProvider) Chat(
	_ context.Context,
	messages schema.Messages,
	toolDefs []map[string]any,
	_ schema.ChatOptions,
) (schema.LLMResponse, error) {
	p.seenMessages = append(p.seenMessages, messages.Clone())
	p.seenTools = append(p.seenTools, toolDefs)
	p.calls++
	if p.err != nil {
		return schema.LLMResponse{}, p.err
	}
	idx := p.calls - 1
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	return p.responses[idx], nil
}

func (p *scriptedProvider) DefaultModel() string { return "test-model" }

func textResponse(text string) schema.LLMResponse {
	return schema.LLMResponse{Content: &text, FinishReason: "stop"}
}

func toolResponse(calls ...schema.ToolCallRequest) schema.LLMResponse {
	return schema.LLMResponse{ToolCalls: calls, FinishReason: "tool_calls"}
}

// addTool adds two numbers; the local stand-in for the remote calculator.
type addTool struct{}

func (addTool) Name() string                { return "add" }
func (addTool) Description() string         { return "Add two numbers" }
func (addTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (addTool) Execute(_ context.Context, params map[string]any) (string, error) {
	a, _ := params["a"].(float64)
	b, _ := params["b"].(float64)
	return fmt.Sprintf("%d", int(a+b)), nil
}

type failingTool struct{}

func (failingTool) Name() string                { return "broken" }
func (failingTool) Description() string         { return "Always fails" }
func (failingTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (failingTool) Execute(context.Context, map[string]any) (string, error) {
	return "", fmt.Errorf("kaboom")
}

type panickyTool struct{}

func (panickyTool) Name() string                { return "unstable" }
func (panickyTool) Description() string         { return "Always panics" }
func (panickyTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (panickyTool) Execute(context.Context, map[string]any) (string, error) {
	panic("tool blew up")
}

func newTestAgent(t *testing.T, provider schema.LLMProvider) *Agent {
	t.Helper()
	sess := session.New("test")
	registry := tools.NewRegistryBuilder().
		WithTool(tools.NewDatetimeTool()).
		WithTool(tools.NewContextTokensTool(sess)).
		WithTool(tools.NewClearContextTool(sess)).
		WithTool(addTool{}).
		WithTool(failingTool{}).
		WithTool(panickyTool{}).
		Build()
	settings := schema.NewAgentSettings("test-model", 5, 0, 1024, 4000)
	return New(provider, settings, sess, registry, nil)
}

func lastToolResult(t *testing.T, a *Agent, name string) schema.Message {
	t.Helper()
	msgs := a.Session().Messages().Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "tool" && msgs[i].ToolName == name {
			return msgs[i]
		}
	}
	t.Fatalf("no tool result for %q in transcript", name)
	return schema.Message{}
}

func TestSendMessage_PlainText(t *testing.T) {
	p := &scriptedProvider{responses: []schema.LLMResponse{textResponse("hello there")}}
	a := newTestAgent(t, p)

	res, err := a.SendMessage(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "hello there" {
		t.Errorf("expected %q, got %q", "hello there", res)
	}
	if p.calls != 1 {
		t.Errorf("expected 1 completion request, got %d", p.calls)
	}
	if len(p.seenTools[0]) == 0 {
		t.Error("expected tool schemas to be advertised to the endpoint")
	}
}

func TestSendMessage_ToolRound(t *testing.T) {
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolResponse(schema.ToolCallRequest{
			ID:        "call_1",
			Name:      "add",
			Arguments: map[string]any{"a": float64(2), "b": float64(3)},
		}),
		textResponse("5"),
	}}
	a := newTestAgent(t, p)

	res, err := a.SendMessage(context.Background(), "What is 2 + 3?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "5" {
		t.Errorf("expected answer %q, got %q", "5", res)
	}
	if p.calls != 2 {
		t.Fatalf("expected 2 completion requests, got %d", p.calls)
	}

	result := lastToolResult(t, a, "add")
	if result.ToolCallID != "call_1" {
		t.Errorf("tool result correlation id = %q, want %q", result.ToolCallID, "call_1")
	}
	if result.Text() != "5" {
		t.Errorf("tool result = %q, want %q", result.Text(), "5")
	}

	// The second completion request must already include the tool result.
	second := p.seenMessages[1]
	found := false
	for _, m := range second.Messages {
		if m.Role == "tool" && m.ToolCallID == "call_1" {
			found = true
		}
	}
	if !found {
		t.Error("second completion request is missing the tool result")
	}
}

func TestSendMessage_UnknownTool(t *testing.T) {
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolResponse(schema.ToolCallRequest{
			ID:        "call_1",
			Name:      "subtract",
			Arguments: map[string]any{"a": float64(5), "b": float64(2)},
		}),
		textResponse("I can't subtract."),
	}}
	a := newTestAgent(t, p)

	res, err := a.SendMessage(context.Background(), "What is 5 - 2?")
	if err != nil {
		t.Fatalf("unknown tool must not fail the turn: %v", err)
	}
	if res != "I can't subtract." {
		t.Errorf("unexpected answer: %q", res)
	}

	result := lastToolResult(t, a, "subtract")
	if !strings.Contains(result.Text(), "Unknown tool") {
		t.Errorf("expected unknown-tool indicator, got %q", result.Text())
	}
	if p.calls != 2 {
		t.Errorf("loop must continue to a further completion, got %d calls", p.calls)
	}
}

func TestSendMessage_ToolError(t *testing.T) {
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolResponse(schema.ToolCallRequest{ID: "call_1", Name: "broken"}),
		textResponse("done"),
	}}
	a := newTestAgent(t, p)

	if _, err := a.SendMessage(context.Background(), "break it"); err != nil {
		t.Fatalf("tool error must not fail the turn: %v", err)
	}
	result := lastToolResult(t, a, "broken")
	if !strings.Contains(result.Text(), "Error: kaboom") {
		t.Errorf("expected error-kind result with message, got %q", result.Text())
	}
}

func TestSendMessage_ToolPanic(t *testing.T) {
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolResponse(schema.ToolCallRequest{ID: "call_1", Name: "unstable"}),
		textResponse("done"),
	}}
	a := newTestAgent(t, p)

	if _, err := a.SendMessage(context.Background(), "go"); err != nil {
		t.Fatalf("panic must not escape dispatch: %v", err)
	}
	result := lastToolResult(t, a, "unstable")
	if !strings.Contains(result.Text(), "Error:") {
		t.Errorf("expected error-kind result, got %q", result.Text())
	}
}

func TestSendMessage_RoundLimit(t *testing.T) {
	// The model keeps requesting tools forever.
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolResponse(schema.ToolCallRequest{ID: "call_x", Name: "add",
			Arguments: map[string]any{"a": float64(1), "b": float64(1)}}),
	}}
	a := newTestAgent(t, p)

	res, err := a.SendMessage(context.Background(), "loop forever")
	if err != nil {
		t.Fatalf("round limit must not be an error: %v", err)
	}
	if res != RoundLimitMessage {
		t.Errorf("expected fallback message, got %q", res)
	}
	if p.calls != 5 {
		t.Errorf("expected exactly 5 completion requests, got %d", p.calls)
	}
}

func TestSendMessage_ProviderErrorPropagates(t *testing.T) {
	p := &scriptedProvider{err: fmt.Errorf("HTTP 401: bad credential")}
	a := newTestAgent(t, p)

	_, err := a.SendMessage(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected endpoint failure to propagate")
	}
	if !strings.Contains(err.Error(), "HTTP 401") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSendMessage_MultipleCallsOneRound(t *testing.T) {
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolResponse(
			schema.ToolCallRequest{ID: "call_1", Name: "add",
				Arguments: map[string]any{"a": float64(1), "b": float64(2)}},
			schema.ToolCallRequest{ID: "call_2", Name: "add",
				Arguments: map[string]any{"a": float64(3), "b": float64(4)}},
		),
		textResponse("3 and 7"),
	}}
	a := newTestAgent(t, p)

	if _, err := a.SendMessage(context.Background(), "two sums"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Both results must be in the transcript before the second completion.
	second := p.seenMessages[1]
	var ids []string
	for _, m := range second.Messages {
		if m.Role == "tool" {
			ids = append(ids, m.ToolCallID)
		}
	}
	if len(ids) != 2 || ids[0] != "call_1" || ids[1] != "call_2" {
		t.Errorf("expected results for call_1 and call_2 in order, got %v", ids)
	}
}

func TestSendMessage_GeneratesCorrelationID(t *testing.T) {
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolResponse(schema.ToolCallRequest{Name: "add",
			Arguments: map[string]any{"a": float64(1), "b": float64(1)}}),
		textResponse("2"),
	}}
	a := newTestAgent(t, p)

	if _, err := a.SendMessage(context.Background(), "1+1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := lastToolResult(t, a, "add")
	if result.ToolCallID == "" {
		t.Error("expected a generated correlation id for the tool result")
	}
}

func TestSendMessage_StripsThinkBlocks(t *testing.T) {
	p := &scriptedProvider{responses: []schema.LLMResponse{
		textResponse("<think>secret reasoning</think>42"),
	}}
	a := newTestAgent(t, p)

	res, err := a.SendMessage(context.Background(), "answer?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "42" {
		t.Errorf("expected think block stripped, got %q", res)
	}
}

func TestSendMessage_ClearContextTool(t *testing.T) {
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolResponse(schema.ToolCallRequest{ID: "call_1", Name: "clear_context"}),
		textResponse("Context cleared."),
	}}
	a := newTestAgent(t, p)
	a.SetSystemMessage("be brief")

	if _, err := a.SendMessage(context.Background(), "clear everything"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The clear happened mid-turn; everything before it is gone and only the
	// post-clear tool result and final assistant message remain.
	for _, m := range a.Session().Messages().Messages {
		if m.Role == "user" {
			t.Errorf("user message survived clear_context: %q", m.Text())
		}
	}
}
