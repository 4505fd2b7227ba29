// Package session holds the in-memory conversation transcript for one agent.
//
// The transcript is append-only within a turn; it can be cleared on explicit
// request and trimmed from the front when the token budget is exceeded.
package session

import (
	"sync"
	"time"

	"github.com/moonjelly/moonjelly/internal/schema"
)

// Session holds one conversation's messages and token accounting.
//
// Token counts come from two sources: the total reported by the completion
// endpoint's usage block after each request, and a rough length-based estimate
// (len/4) accumulated as messages are appended. The estimate never decreases
// without an explicit Clear.
type Session struct {
	Key       string
	CreatedAt time.Time
	UpdatedAt time.Time

	mu              sync.Mutex
	messages        schema.Messages
	reportedTokens  int // last usage.total_tokens from the endpoint
	estimatedTokens int // running len/4 estimate over appended messages
}

// New creates an empty session with the given key.
func New(key string) *Session {
	now := time.Now()
	return &Session{
		Key:       key,
		CreatedAt: now,
		UpdatedAt: now,
		messages:  schema.NewMessages(),
	}
}

// SetSystem replaces the system message, or injects one at the front if the
// transcript has none yet.
func (s *Session) SetSystem(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages.Messages) > 0 && s.messages.Messages[0].Role == "system" {
		s.messages.Messages[0].Content = content
	} else {
		msgs := append([]schema.Message{schema.NewSystemMessage(content)}, s.messages.Messages...)
		s.messages.Messages = msgs
	}
	s.estimatedTokens += estimate(content)
	s.UpdatedAt = time.Now()
}

// AddUser appends a user message.
func (s *Session) AddUser(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages.AddUser(content)
	s.estimatedTokens += estimate(content)
	s.UpdatedAt = time.Now()
}

// AddAssistant appends an assistant message with optional tool calls.
func (s *Session) AddAssistant(content *string, toolCalls []schema.ToolCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages.AddAssistant(content, toolCalls)
	if content != nil {
		s.estimatedTokens += estimate(*content)
	}
	s.UpdatedAt = time.Now()
}

// AddToolResult appends a tool-result message.
func (s *Session) AddToolResult(toolCallID, toolName, result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages.AddToolResult(toolCallID, toolName, result)
	s.estimatedTokens += estimate(result)
	s.UpdatedAt = time.Now()
}

// Messages returns a snapshot of the current transcript.
func (s *Session) Messages() schema.Messages {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages.Clone()
}

// Len returns the number of messages in the transcript.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages.Len()
}

// SetReportedTokens records the total token count reported by the completion
// endpoint for the current transcript.
func (s *Session) SetReportedTokens(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportedTokens = n
}

// TotalContextTokens returns the best available token count for the current
// transcript: the endpoint-reported total when one exists, otherwise the
// running length-based estimate.
func (s *Session) TotalContextTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reportedTokens > 0 {
		return s.reportedTokens
	}
	return s.estimatedTokens
}

// TrimToBudget removes the oldest non-system messages while the reported token
// count exceeds maxTokens. The system message is never removed. Each removal
// reduces the count by the removed message's length estimate.
func (s *Session) TrimToBudget(maxTokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if maxTokens <= 0 {
		return
	}
	for s.reportedTokens > maxTokens && len(s.messages.Messages) > 1 {
		idx := 0
		if s.messages.Messages[0].Role == "system" {
			if len(s.messages.Messages) < 2 {
				break
			}
			idx = 1
		}
		removed := s.messages.Messages[idx]
		s.messages.Messages = append(s.messages.Messages[:idx], s.messages.Messages[idx+1:]...)
		s.reportedTokens -= estimate(removed.Text())
	}
	s.UpdatedAt = time.Now()
}

// Clear resets the transcript to empty and zeroes all token accounting.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = schema.NewMessages()
	s.reportedTokens = 0
	s.estimatedTokens = 0
	s.UpdatedAt = time.Now()
}

// estimate is the rough chars/4 token approximation; not a tokenizer.
func estimate(text string) int {
	return len(text) / 4
}
