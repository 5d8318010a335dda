package models

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	chiron "github.com/chiron-labs/go-chiron"
)

// OpenAI implements the model boundary on the chat completions API with
// native function tools.
type OpenAI struct {
	Client *openai.Client
}

// NewOpenAI reads OPENAI_API_KEY (or OPENAI_KEY) from the env.
func NewOpenAI() *OpenAI {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_KEY")
	}
	return &OpenAI{Client: openai.NewClient(apiKey)}
}

func (o *OpenAI) Complete(ctx context.Context, req chiron.Request) (*chiron.Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
	}
	if req.System != "" {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, spec := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.InputSchema(),
			},
		})
	}

	msgs, err := openaiMessages(req.Messages)
	if err != nil {
		return nil, &chiron.BackendError{Op: "encode request", Err: err}
	}
	chatReq.Messages = append(chatReq.Messages, msgs...)

	resp, err := o.Client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, &chiron.BackendError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &chiron.BackendError{Op: "chat completion", Err: errors.New("no choices in response")}
	}

	choice := resp.Choices[0]
	out := &chiron.Response{StopReason: string(choice.FinishReason)}
	if choice.Message.Content != "" {
		out.Blocks = append(out.Blocks, chiron.NewTextBlock(choice.Message.Content))
	}
	for _, call := range choice.Message.ToolCalls {
		var input map[string]any
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
				return nil, &chiron.BackendError{Op: "decode tool arguments", Err: err}
			}
		}
		out.Blocks = append(out.Blocks, chiron.NewToolUseBlock(call.ID, call.Function.Name, input))
	}
	return out, nil
}

// openaiMessages converts chiron turns to chat messages. Assistant tool-use
// blocks become tool_calls entries; tool-result turns become role=tool
// messages keyed by call id.
func openaiMessages(messages []chiron.Message) ([]openai.ChatCompletionMessage, error) {
	var out []openai.ChatCompletionMessage
	for _, m := range messages {
		switch m.Role {
		case chiron.RoleUser:
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: m.Text(),
			})
		case chiron.RoleAssistant:
			msg := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: m.Text(),
			}
			for _, b := range m.ToolUses() {
				args, err := json.Marshal(b.Input)
				if err != nil {
					return nil, fmt.Errorf("encode tool arguments: %w", err)
				}
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   b.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      b.Name,
						Arguments: string(args),
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
				out = append(out, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    payload,
					ToolCallID: b.ToolUseID,
				})
			}
		default:
			return nil, fmt.Errorf("unsupported role %q", m.Role)
		}
	}
	return out, nil
}

var _ chiron.ModelClient = (*OpenAI)(nil)
