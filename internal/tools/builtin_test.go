package tools

import (
	"context"
	"strconv"
	"testing"
	"time"
)

type fakeCounter struct{ tokens int }

func (f *fakeCounter) TotalContextTokens() int { return f.tokens }

type fakeResetter struct{ cleared bool }

func (f *fakeResetter) Clear() { f.cleared = true }

func TestDatetimeTool(t *testing.T) {
	tool := NewDatetimeTool()
	out, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, out); err != nil {
		t.Errorf("expected RFC 3339 timestamp, got %q: %v", out, err)
	}
}

func TestContextTokensTool(t *testing.T) {
	counter := &fakeCounter{tokens: 421}
	tool := NewContextTokensTool(counter)

	out, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != strconv.Itoa(421) {
		t.Errorf("expected %q, got %q", "421", out)
	}
}

func TestClearContextTool(t *testing.T) {
	resetter := &fakeResetter{}
	tool := NewClearContextTool(resetter)

	out, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resetter.cleared {
		t.Error("expected the resetter to be invoked")
	}
	if out != "Context cleared." {
		t.Errorf("expected confirmation, got %q", out)
	}
}
