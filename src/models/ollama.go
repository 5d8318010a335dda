package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	ollama "github.com/ollama/ollama/api"

	chiron "github.com/chiron-labs/go-chiron"
)

// Ollama implements the model boundary against a local Ollama server using
// its native tool-calling chat API. Ollama does not assign tool call ids, so
// the adapter synthesizes one per emitted call; results are replayed as plain
// tool-role messages in order.
type Ollama struct {
	Client *ollama.Client
}

// NewOllama reads OLLAMA_HOST from the env, defaulting to the local daemon.
func NewOllama() (*Ollama, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse OLLAMA_HOST: %w", err)
	}
	client := ollama.NewClient(u, &http.Client{Timeout: 120 * time.Second})
	return &Ollama{Client: client}, nil
}

func (o *Ollama) Complete(ctx context.Context, req chiron.Request) (*chiron.Response, error) {
	var msgs []ollama.Message
	if req.System != "" {
		msgs = append(msgs, ollama.Message{Role: "system", Content: req.System})
	}
	history, err := ollamaMessages(req.Messages)
	if err != nil {
		return nil, &chiron.BackendError{Op: "encode request", Err: err}
	}
	msgs = append(msgs, history...)

	tools, err := ollamaTools(req.Tools)
	if err != nil {
		return nil, &chiron.BackendError{Op: "encode tools", Err: err}
	}

	stream := false
	chatReq := &ollama.ChatRequest{
		Model:    req.Model,
		Messages: msgs,
		Tools:    tools,
		Stream:   &stream,
	}

	var final *ollama.ChatResponse
	err = o.Client.Chat(ctx, chatReq, func(resp ollama.ChatResponse) error {
		final = &resp
		return nil
	})
	if err != nil {
		return nil, &chiron.BackendError{Op: "chat", Err: err}
	}
	if final == nil {
		return nil, &chiron.BackendError{Op: "chat", Err: fmt.Errorf("empty response stream")}
	}

	out := &chiron.Response{StopReason: final.DoneReason}
	if final.Message.Content != "" {
		out.Blocks = append(out.Blocks, chiron.NewTextBlock(final.Message.Content))
	}
	for _, call := range final.Message.ToolCalls {
		input := map[string]any(call.Function.Arguments)
		out.Blocks = append(out.Blocks, chiron.NewToolUseBlock(uuid.NewString(), call.Function.Name, input))
	}
	return out, nil
}

func ollamaMessages(messages []chiron.Message) ([]ollama.Message, error) {
	var out []ollama.Message
	for _, m := range messages {
		switch m.Role {
		case chiron.RoleUser:
			out = append(out, ollama.Message{Role: "user", Content: m.Text()})
		case chiron.RoleAssistant:
			msg := ollama.Message{Role: "assistant", Content: m.Text()}
			for _, b := range m.ToolUses() {
				msg.ToolCalls = append(msg.ToolCalls, ollama.ToolCall{
					Function: ollama.ToolCallFunction{
						Name:      b.Name,
						Arguments: ollama.ToolCallFunctionArguments(b.Input),
					},
				})
			}
			out = append(out, msg)
		case chiron.RoleToolResult:
			for _, b := range m.Blocks {
				if b.Type != chiron.BlockToolResult {
					continue
				}
				payload, _, err := encodePayload(b.Payload)
				if err != nil {
					return nil, err
				}
				out = append(out, ollama.Message{Role: "tool", Content: payload})
			}
		default:
			return nil, fmt.Errorf("unsupported role %q", m.Role)
		}
	}
	return out, nil
}

// ollamaTools builds tool declarations by round-tripping the generic JSON
// schema through the api types, which keeps this independent of the exact
// shape of the Parameters struct.
func ollamaTools(specs []chiron.ToolSpec) ([]ollama.Tool, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	raw := make([]map[string]any, 0, len(specs))
	for _, spec := range specs {
		raw = append(raw, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        spec.Name,
				"description": spec.Description,
				"parameters":  spec.InputSchema(),
			},
		})
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode tool schemas: %w", err)
	}
	var out []ollama.Tool
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode tool schemas: %w", err)
	}
	return out, nil
}

var _ chiron.ModelClient = (*Ollama)(nil)
