package chiron

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestExecutor(t *testing.T, tools ...Tool) *Executor {
	t.Helper()
	r := NewRegistry()
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
	}
	return NewExecutor(r, nil)
}

func TestExecuteReturnsToolResult(t *testing.T) {
	e := newTestExecutor(t, NewTool(ToolSpec{Name: "greet"},
		func(_ context.Context, req ToolRequest) (any, error) {
			return map[string]any{"greeting": "hello " + req.Arguments["name"].(string)}, nil
		}))

	out := e.Execute(context.Background(), "greet", map[string]any{"name": "world"})
	payload := out.(map[string]any)
	if payload["greeting"] != "hello world" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestExecuteUnknownToolYieldsErrorPayload(t *testing.T) {
	e := newTestExecutor(t)

	out := e.Execute(context.Background(), "frobnicate", nil)
	payload, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected error payload, got %T", out)
	}
	msg, _ := payload["error"].(string)
	if msg != "Unknown tool: frobnicate" {
		t.Fatalf("unexpected error message: %q", msg)
	}
}

func TestExecuteToolErrorBecomesPayload(t *testing.T) {
	e := newTestExecutor(t, NewTool(ToolSpec{Name: "fail"},
		func(context.Context, ToolRequest) (any, error) {
			return nil, errors.New("backing store unavailable")
		}))

	out := e.Execute(context.Background(), "fail", nil)
	payload := out.(map[string]any)
	if payload["error"] != "backing store unavailable" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestExecuteRecoversPanickingTool(t *testing.T) {
	e := newTestExecutor(t, NewTool(ToolSpec{Name: "explode"},
		func(context.Context, ToolRequest) (any, error) {
			panic("index out of range")
		}))

	out := e.Execute(context.Background(), "explode", nil)
	payload, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("panic escaped the executor: %T", out)
	}
	msg, _ := payload["error"].(string)
	if !strings.Contains(msg, "tool panicked") || !strings.Contains(msg, "index out of range") {
		t.Fatalf("unexpected panic payload: %q", msg)
	}
}

func TestExecuteDefaultsNilArguments(t *testing.T) {
	e := newTestExecutor(t, NewTool(ToolSpec{Name: "args"},
		func(_ context.Context, req ToolRequest) (any, error) {
			if req.Arguments == nil {
				return nil, errors.New("arguments were nil")
			}
			return "ok", nil
		}))

	out := e.Execute(context.Background(), "args", nil)
	if out != "ok" {
		t.Fatalf("nil args not defaulted: %v", out)
	}
}

func TestExecuteInjectsStores(t *testing.T) {
	stores := &Stores{}
	r := NewRegistry()
	var seen *Stores
	if err := r.Register(NewTool(ToolSpec{Name: "probe"},
		func(_ context.Context, req ToolRequest) (any, error) {
			seen = req.Stores
			return nil, nil
		})); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	e := NewExecutor(r, stores)

	e.Execute(context.Background(), "probe", nil)
	if seen != stores {
		t.Fatalf("stores not injected")
	}
}

func TestExecuteResolvesNameCaseInsensitively(t *testing.T) {
	e := newTestExecutor(t, NewTool(ToolSpec{Name: "vector_search"},
		func(context.Context, ToolRequest) (any, error) {
			return "hit", nil
		}))

	if out := e.Execute(context.Background(), "Vector_Search", nil); out != "hit" {
		t.Fatalf("case-insensitive lookup failed: %v", out)
	}
}
