package models

import (
	"context"
	"fmt"
	"os"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	jsoniter "github.com/json-iterator/go"

	chiron "github.com/chiron-labs/go-chiron"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Anthropic implements the model boundary on the Anthropic Messages API.
// Tool calls ride the API's native tool_use/tool_result blocks, so call ids
// come straight from the provider.
type Anthropic struct {
	Client *anthropic.Client
}

// NewAnthropic constructs a client. It reads ANTHROPIC_API_KEY from the env.
func NewAnthropic() *Anthropic {
	cl := anthropic.NewClient(
		anthropicopt.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &Anthropic{Client: &cl}
}

func (a *Anthropic) Complete(ctx context.Context, req chiron.Request) (*chiron.Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	for _, spec := range req.Tools {
		schema := spec.InputSchema()
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        spec.Name,
				Description: anthropic.String(spec.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: schema["properties"],
					Required:   schema["required"].([]string),
				},
			},
		})
	}

	msgs, err := anthropicMessages(req.Messages)
	if err != nil {
		return nil, &chiron.BackendError{Op: "encode request", Err: err}
	}
	params.Messages = msgs

	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		return nil, &chiron.BackendError{Op: "messages.new", Err: err}
	}

	resp := &chiron.Response{StopReason: string(msg.StopReason)}
	for _, cb := range msg.Content {
		switch block := cb.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Blocks = append(resp.Blocks, chiron.NewTextBlock(block.Text))
		case anthropic.ToolUseBlock:
			var input map[string]any
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &input); err != nil {
					return nil, &chiron.BackendError{Op: "decode tool input", Err: err}
				}
			}
			resp.Blocks = append(resp.Blocks, chiron.NewToolUseBlock(block.ID, block.Name, input))
		}
	}
	return resp, nil
}

// anthropicMessages converts chiron turns to Anthropic message params.
// Tool-result turns become user messages carrying tool_result blocks, per
// the Messages API contract.
func anthropicMessages(messages []chiron.Message) ([]anthropic.MessageParam, error) {
	var out []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case chiron.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text())))
		case chiron.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			for _, b := range m.Blocks {
				switch b.Type {
				case chiron.BlockText:
					blocks = append(blocks, anthropic.NewTextBlock(b.Text))
				case chiron.BlockToolUse:
					blocks = append(blocks, anthropic.NewToolUseBlock(b.ID, b.Input, b.Name))
				}
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		case chiron.RoleToolResult:
			var blocks []anthropic.ContentBlockParamUnion
			for _, b := range m.Blocks {
				if b.Type != chiron.BlockToolResult {
					continue
				}
				payload, isError, err := encodePayload(b.Payload)
				if err != nil {
					return nil, err
				}
				result := anthropic.ToolResultBlockParam{
					ToolUseID: b.ToolUseID,
					IsError:   anthropic.Bool(isError),
					Content: []anthropic.ToolResultBlockParamContentUnion{
						{OfText: &anthropic.TextBlockParam{Text: payload}},
					},
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolResult: &result})
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewUserMessage(blocks...))
			}
		default:
			return nil, fmt.Errorf("unsupported role %q", m.Role)
		}
	}
	return out, nil
}

// encodePayload serializes a tool result for the wire and reports whether it
// is the executor's error shape.
func encodePayload(payload any) (string, bool, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", false, fmt.Errorf("encode tool result: %w", err)
	}
	isError := false
	if m, ok := payload.(map[string]any); ok {
		_, isError = m["error"]
	}
	return string(data), isError, nil
}

var _ chiron.ModelClient = (*Anthropic)(nil)
