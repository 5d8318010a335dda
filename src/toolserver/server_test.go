package toolserver

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	chiron "github.com/chiron-labs/go-chiron"
	"github.com/chiron-labs/go-chiron/src/storage"
	"github.com/chiron-labs/go-chiron/src/tools"
)

func dialTestServer(t *testing.T) *websocket.Conn {
	t.Helper()
	registry := chiron.NewRegistry()
	if err := tools.RegisterAll(registry); err != nil {
		t.Fatalf("RegisterAll returned error: %v", err)
	}
	executor := chiron.NewExecutor(registry, &chiron.Stores{
		DB:      storage.NewMemDB(),
		Vectors: storage.NewMemVector(nil),
	})

	srv := httptest.NewServer(New(executor, nil).Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func call(t *testing.T, conn *websocket.Conn, frame CallFrame) ResultFrame {
	t.Helper()
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var result ResultFrame
	if err := conn.ReadJSON(&result); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return result
}

func TestServerExecutesToolCalls(t *testing.T) {
	conn := dialTestServer(t)

	result := call(t, conn, CallFrame{
		ID:   "r1",
		Tool: "set_active_subject",
		Args: map[string]any{"subject_id": "latin"},
	})
	if result.ID != "r1" {
		t.Fatalf("result id mismatch: %+v", result)
	}
	payload, ok := result.Payload.(map[string]any)
	if !ok || payload["status"] != "success" {
		t.Fatalf("unexpected payload: %+v", result.Payload)
	}

	result = call(t, conn, CallFrame{ID: "r2", Tool: "get_active_subject"})
	payload, ok = result.Payload.(map[string]any)
	if !ok || payload["active_subject"] != "latin" {
		t.Fatalf("state not shared across calls: %+v", result.Payload)
	}
}

func TestServerReturnsErrorPayloadForUnknownTool(t *testing.T) {
	conn := dialTestServer(t)

	result := call(t, conn, CallFrame{ID: "r1", Tool: "frobnicate"})
	if result.ID != "r1" {
		t.Fatalf("result id mismatch: %+v", result)
	}
	payload, ok := result.Payload.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload type: %T", result.Payload)
	}
	msg, _ := payload["error"].(string)
	if !strings.Contains(msg, "Unknown tool") {
		t.Fatalf("unexpected error payload: %v", payload)
	}

	// Connection survives the failed call.
	result = call(t, conn, CallFrame{ID: "r2", Tool: "list_subjects"})
	if result.ID != "r2" {
		t.Fatalf("connection did not survive error: %+v", result)
	}
}

func TestServerRejectsFrameWithoutToolName(t *testing.T) {
	conn := dialTestServer(t)

	result := call(t, conn, CallFrame{ID: "r1"})
	payload, ok := result.Payload.(map[string]any)
	if !ok || payload["error"] == nil {
		t.Fatalf("expected error payload, got %+v", result.Payload)
	}
}
