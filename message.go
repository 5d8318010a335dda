package chiron

import (
	"context"
	"strings"
)

// Conversation roles. Tool results are their own role so the loop can
// distinguish them from ordinary user turns; model adapters fold them into
// whatever the wire protocol expects.
const (
	RoleUser       = "user"
	RoleAssistant  = "assistant"
	RoleToolResult = "tool_result"
)

// Block kinds.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Block is one content block inside a message: plain text, a tool-call
// request emitted by the model, or a tool result produced by the executor.
type Block struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// NewTextBlock builds a text block.
func NewTextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// NewToolUseBlock builds a tool-call request block.
func NewToolUseBlock(id, name string, input map[string]any) Block {
	return Block{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// NewToolResultBlock builds a tool-result block answering the given call id.
func NewToolResultBlock(toolUseID string, payload any) Block {
	return Block{Type: BlockToolResult, ToolUseID: toolUseID, Payload: payload}
}

// Message is one turn in a conversation.
type Message struct {
	Role   string  `json:"role"`
	Blocks []Block `json:"blocks"`
}

// NewUserMessage builds a single-text user turn.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Blocks: []Block{NewTextBlock(text)}}
}

// Text concatenates the message's text blocks in order.
func (m Message) Text() string {
	var sb strings.Builder
	for _, b := range m.Blocks {
		if b.Type == BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ToolUses returns the message's tool-call blocks in emitted order.
func (m Message) ToolUses() []Block {
	var calls []Block
	for _, b := range m.Blocks {
		if b.Type == BlockToolUse {
			calls = append(calls, b)
		}
	}
	return calls
}

// Session holds one conversation's accumulated turns plus the model
// parameters used for every request in it. A session is owned by a single
// in-flight Run; it is not safe for concurrent mutation.
type Session struct {
	SystemPrompt string
	Model        string
	MaxTokens    int

	messages []Message
}

// NewSession creates an empty session.
func NewSession(systemPrompt, model string, maxTokens int) *Session {
	return &Session{SystemPrompt: systemPrompt, Model: model, MaxTokens: maxTokens}
}

// Append adds a turn to the end of the session.
func (s *Session) Append(m Message) {
	s.messages = append(s.messages, m)
}

// Messages returns the accumulated turns in order. The returned slice is the
// session's backing storage; callers must treat it as read-only.
func (s *Session) Messages() []Message {
	return s.messages
}

// Len reports the number of turns.
func (s *Session) Len() int { return len(s.messages) }

// Clear drops all accumulated turns, keeping the configuration.
func (s *Session) Clear() { s.messages = nil }

// Request is the payload sent to a model backend for one round trip.
type Request struct {
	Model     string
	MaxTokens int
	System    string
	Messages  []Message
	Tools     []ToolSpec
}

// Response is one model reply: ordered content blocks plus the backend's
// stop reason, verbatim.
type Response struct {
	Blocks     []Block
	StopReason string
}

// ModelClient is the backend boundary. Implementations live in src/models.
type ModelClient interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
