package models

import (
	"context"
	"errors"
	"fmt"
	"os"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	chiron "github.com/chiron-labs/go-chiron"
)

// Gemini implements the model boundary on the Google generative AI SDK.
// Gemini function calls carry no ids, so the adapter synthesizes one per
// call and resolves result ids back to function names from the session
// history when replaying.
type Gemini struct {
	Client *genai.Client
}

// NewGemini reads GOOGLE_API_KEY (or GEMINI_API_KEY) from the env.
func NewGemini(ctx context.Context) (*Gemini, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &Gemini{Client: client}, nil
}

func (g *Gemini) Complete(ctx context.Context, req chiron.Request) (*chiron.Response, error) {
	model := g.Client.GenerativeModel(req.Model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		tool := &genai.Tool{}
		for _, spec := range req.Tools {
			tool.FunctionDeclarations = append(tool.FunctionDeclarations, geminiDeclaration(spec))
		}
		model.Tools = []*genai.Tool{tool}
	}

	history, last, err := geminiContents(req.Messages)
	if err != nil {
		return nil, &chiron.BackendError{Op: "encode request", Err: err}
	}

	chat := model.StartChat()
	chat.History = history
	resp, err := chat.SendMessage(ctx, last...)
	if err != nil {
		return nil, &chiron.BackendError{Op: "send message", Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &chiron.BackendError{Op: "send message", Err: errors.New("empty response")}
	}

	candidate := resp.Candidates[0]
	out := &chiron.Response{StopReason: candidate.FinishReason.String()}
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			out.Blocks = append(out.Blocks, chiron.NewTextBlock(string(p)))
		case genai.FunctionCall:
			out.Blocks = append(out.Blocks, chiron.NewToolUseBlock(uuid.NewString(), p.Name, p.Args))
		}
	}
	return out, nil
}

// geminiContents converts the session into chat history plus the parts of
// the final turn, which SendMessage takes separately.
func geminiContents(messages []chiron.Message) ([]*genai.Content, []genai.Part, error) {
	callNames := map[string]string{}
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case chiron.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(m.Text())},
			})
		case chiron.RoleAssistant:
			content := &genai.Content{Role: "model"}
			for _, b := range m.Blocks {
				switch b.Type {
				case chiron.BlockText:
					content.Parts = append(content.Parts, genai.Text(b.Text))
				case chiron.BlockToolUse:
					callNames[b.ID] = b.Name
					content.Parts = append(content.Parts, genai.FunctionCall{Name: b.Name, Args: b.Input})
				}
			}
			contents = append(contents, content)
		case chiron.RoleToolResult:
			content := &genai.Content{Role: "user"}
			for _, b := range m.Blocks {
				if b.Type != chiron.BlockToolResult {
					continue
				}
				name, ok := callNames[b.ToolUseID]
				if !ok {
					return nil, nil, fmt.Errorf("tool result %q has no matching call", b.ToolUseID)
				}
				content.Parts = append(content.Parts, genai.FunctionResponse{
					Name:     name,
					Response: geminiResponsePayload(b.Payload),
				})
			}
			contents = append(contents, content)
		default:
			return nil, nil, fmt.Errorf("unsupported role %q", m.Role)
		}
	}
	if len(contents) == 0 {
		return nil, nil, errors.New("no messages to send")
	}
	last := contents[len(contents)-1]
	return contents[:len(contents)-1], last.Parts, nil
}

// geminiResponsePayload wraps a tool result, since FunctionResponse requires
// an object payload.
func geminiResponsePayload(payload any) map[string]any {
	if m, ok := payload.(map[string]any); ok {
		return m
	}
	return map[string]any{"result": payload}
}

func geminiDeclaration(spec chiron.ToolSpec) *genai.FunctionDeclaration {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
	}
	for _, p := range spec.Params {
		prop := &genai.Schema{
			Type:        geminiType(p.Type),
			Description: p.Description,
		}
		if p.Type == chiron.TypeArray {
			itemType := p.Items
			if itemType == "" {
				itemType = chiron.TypeString
			}
			prop.Items = &genai.Schema{Type: geminiType(itemType)}
		}
		schema.Properties[p.Name] = prop
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return &genai.FunctionDeclaration{
		Name:        spec.Name,
		Description: spec.Description,
		Parameters:  schema,
	}
}

func geminiType(t string) genai.Type {
	switch t {
	case chiron.TypeString:
		return genai.TypeString
	case chiron.TypeInteger:
		return genai.TypeInteger
	case chiron.TypeNumber:
		return genai.TypeNumber
	case chiron.TypeBoolean:
		return genai.TypeBoolean
	case chiron.TypeArray:
		return genai.TypeArray
	default:
		return genai.TypeUnspecified
	}
}

var _ chiron.ModelClient = (*Gemini)(nil)
