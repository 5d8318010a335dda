package models

import (
	"context"
	"testing"

	chiron "github.com/chiron-labs/go-chiron"
)

func TestScriptedReplaysResponsesInOrder(t *testing.T) {
	model := NewScripted(
		TextResponse("first"),
		TextResponse("second"),
	)
	req := chiron.Request{Model: "test", Messages: []chiron.Message{
		{Role: chiron.RoleUser, Blocks: []chiron.Block{chiron.NewTextBlock("hi")}},
	}}

	resp, err := model.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got := resp.Blocks[0].Text; got != "first" {
		t.Fatalf("unexpected first response: %q", got)
	}
	resp, err = model.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got := resp.Blocks[0].Text; got != "second" {
		t.Fatalf("unexpected second response: %q", got)
	}
	if model.Calls() != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", model.Calls())
	}
}

func TestScriptedErrorsWhenExhausted(t *testing.T) {
	model := NewScripted(TextResponse("only"))
	req := chiron.Request{Model: "test"}
	if _, err := model.Complete(context.Background(), req); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if _, err := model.Complete(context.Background(), req); err == nil {
		t.Fatalf("expected error once script is exhausted")
	}
}

func TestScriptedFallbackAfterScript(t *testing.T) {
	model := NewScripted()
	model.Fallback = TextResponse("fallback")
	resp, err := model.Complete(context.Background(), chiron.Request{Model: "test"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got := resp.Blocks[0].Text; got != "fallback" {
		t.Fatalf("unexpected fallback response: %q", got)
	}
}

func TestNewProviderErrorsOnUnknownProvider(t *testing.T) {
	if _, err := NewProvider(context.Background(), "unknown"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestOpenAIMessagesConvertsToolTurns(t *testing.T) {
	messages := []chiron.Message{
		{Role: chiron.RoleUser, Blocks: []chiron.Block{chiron.NewTextBlock("lesson please")}},
		{Role: chiron.RoleAssistant, Blocks: []chiron.Block{
			chiron.NewTextBlock("looking it up"),
			chiron.NewToolUseBlock("call_1", "get_active_subject", map[string]any{}),
		}},
		{Role: chiron.RoleToolResult, Blocks: []chiron.Block{
			chiron.NewToolResultBlock("call_1", map[string]any{"subject_id": "math"}),
		}},
	}
	out, err := openaiMessages(messages)
	if err != nil {
		t.Fatalf("openaiMessages returned error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(out))
	}
	if len(out[1].ToolCalls) != 1 || out[1].ToolCalls[0].ID != "call_1" {
		t.Fatalf("assistant tool call not converted: %+v", out[1])
	}
	if out[2].Role != "tool" || out[2].ToolCallID != "call_1" {
		t.Fatalf("tool result not converted: %+v", out[2])
	}
}

func TestGeminiContentsResolvesCallNames(t *testing.T) {
	messages := []chiron.Message{
		{Role: chiron.RoleUser, Blocks: []chiron.Block{chiron.NewTextBlock("start")}},
		{Role: chiron.RoleAssistant, Blocks: []chiron.Block{
			chiron.NewToolUseBlock("id-7", "list_subjects", map[string]any{}),
		}},
		{Role: chiron.RoleToolResult, Blocks: []chiron.Block{
			chiron.NewToolResultBlock("id-7", map[string]any{"subjects": []any{}}),
		}},
	}
	history, last, err := geminiContents(messages)
	if err != nil {
		t.Fatalf("geminiContents returned error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if len(last) != 1 {
		t.Fatalf("expected 1 final part, got %d", len(last))
	}
}

func TestGeminiContentsErrorsOnOrphanResult(t *testing.T) {
	messages := []chiron.Message{
		{Role: chiron.RoleToolResult, Blocks: []chiron.Block{
			chiron.NewToolResultBlock("missing", "oops"),
		}},
	}
	if _, _, err := geminiContents(messages); err == nil {
		t.Fatalf("expected error for result without a matching call")
	}
}

func TestEncodePayloadFlagsErrors(t *testing.T) {
	payload, isError, err := encodePayload(map[string]any{"error": "Unknown tool: frobnicate"})
	if err != nil {
		t.Fatalf("encodePayload returned error: %v", err)
	}
	if !isError {
		t.Fatalf("error payload not flagged: %s", payload)
	}
	payload, isError, err = encodePayload(map[string]any{"status": "stored"})
	if err != nil {
		t.Fatalf("encodePayload returned error: %v", err)
	}
	if isError {
		t.Fatalf("plain payload flagged as error: %s", payload)
	}
}
