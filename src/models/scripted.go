package models

import (
	"context"
	"fmt"
	"sync"

	chiron "github.com/chiron-labs/go-chiron"
)

// Scripted is a lightweight model implementation useful for local testing
// without API calls. It replays a fixed sequence of responses and records
// every request it receives.
type Scripted struct {
	mu        sync.Mutex
	responses []*chiron.Response
	requests  []chiron.Request
	next      int

	// Fallback is returned once the script is exhausted. When nil, running
	// past the end is an error.
	Fallback *chiron.Response
}

func NewScripted(responses ...*chiron.Response) *Scripted {
	return &Scripted{responses: responses}
}

// TextResponse builds a plain assistant reply, ending the conversation turn.
func TextResponse(text string) *chiron.Response {
	return &chiron.Response{
		Blocks:     []chiron.Block{chiron.NewTextBlock(text)},
		StopReason: "end_turn",
	}
}

// ToolResponse builds an assistant reply that requests the given tool calls.
func ToolResponse(calls ...chiron.Block) *chiron.Response {
	return &chiron.Response{Blocks: calls, StopReason: "tool_use"}
}

func (s *Scripted) Complete(_ context.Context, req chiron.Request) (*chiron.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.next >= len(s.responses) {
		if s.Fallback != nil {
			return s.Fallback, nil
		}
		return nil, fmt.Errorf("scripted model exhausted after %d responses", len(s.responses))
	}
	resp := s.responses[s.next]
	s.next++
	return resp, nil
}

// Requests returns a copy of every request seen so far.
func (s *Scripted) Requests() []chiron.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chiron.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls reports how many times Complete has been invoked.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

var _ chiron.ModelClient = (*Scripted)(nil)
