// Package toolserver exposes the tool registry over a websocket endpoint so
// the same tool set can serve out-of-process callers. Call semantics match
// in-process execution exactly: failures come back as error payloads, never
// as closed connections.
package toolserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	chiron "github.com/chiron-labs/go-chiron"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// CallFrame is one inbound tool invocation.
type CallFrame struct {
	ID   string         `json:"id"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// ResultFrame answers one CallFrame, carrying the tool payload (or the
// executor's error payload) under the same id.
type ResultFrame struct {
	ID      string `json:"id"`
	Payload any    `json:"payload"`
}

type safeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (sc *safeConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.Conn.WriteMessage(websocket.TextMessage, data)
}

// Server serves the registry through an executor.
type Server struct {
	executor *chiron.Executor
	logger   *slog.Logger

	httpServer *http.Server
}

func New(executor *chiron.Executor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{executor: executor, logger: logger}
}

// Handler returns the websocket endpoint, mountable under any mux.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleWebSocket)
}

// ListenAndServe mounts the endpoint at /tools and serves until the context
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/tools", s.Handler())
	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = s.httpServer.Close()
	}()

	s.logger.Info("tool endpoint listening", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed || ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	sc := &safeConn{Conn: conn}
	defer sc.Close()

	ctx := r.Context()
	for {
		_, data, err := sc.ReadMessage()
		if err != nil {
			return
		}

		var call CallFrame
		if err := json.Unmarshal(data, &call); err != nil {
			// A malformed frame carries no id to answer under, so an
			// unkeyed error frame is the best available reply.
			_ = sc.writeJSON(ResultFrame{Payload: chiron.ErrorPayload("malformed call frame: " + err.Error())})
			continue
		}
		if call.Tool == "" {
			_ = sc.writeJSON(ResultFrame{ID: call.ID, Payload: chiron.ErrorPayload("call frame missing tool name")})
			continue
		}

		s.logger.Debug("remote tool call", "tool", call.Tool, "id", call.ID)
		payload := s.executor.Execute(ctx, call.Tool, call.Args)
		if err := sc.writeJSON(ResultFrame{ID: call.ID, Payload: payload}); err != nil {
			s.logger.Error("failed to write result frame", "tool", call.Tool, "error", err)
			return
		}
	}
}
