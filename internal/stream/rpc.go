package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sourcegraph/jsonrpc2"

	"travel-agent/internal/domain"
	"travel-agent/internal/logger"
	"travel-agent/internal/usecase"
)

const (
	MethodSend       = "message/send"
	MethodStream     = "message/stream"
	MethodGetTask    = "tasks/get"
	MethodTaskStatus = "task/status"

	// CodeTaskNotFound is returned by tasks/get for unknown IDs.
	CodeTaskNotFound int64 = -32001
)

type TravelService interface {
	Handle(ctx context.Context, in usecase.Request) <-chan domain.TaskEvent
	GetTask(ctx context.Context, id string) (domain.Task, error)
}

// RPCHandler serves JSON-RPC 2.0 over WebSocket.
type RPCHandler struct {
	svc            TravelService
	allowedOrigins []string
}

func NewRPCHandler(svc TravelService, allowedOrigins ...string) (*RPCHandler, error) {
	if svc == nil {
		return nil, errors.New("stream: travel service must not be nil")
	}
	return &RPCHandler{svc: svc, allowedOrigins: allowedOrigins}, nil
}

func (h *RPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		slog.Error("failed to accept websocket", "err", err)
		return
	}

	connID := uuid.NewString()
	h.HandleStream(r.Context(), newWebSocketStream(conn), connID)
}

// HandleStream serves one connection until the peer disconnects.
func (h *RPCHandler) HandleStream(ctx context.Context, stream jsonrpc2.ObjectStream, connID string) {
	ctx = logger.WithCorrelationID(ctx, connID)
	log := logger.FromContext(ctx)
	log.Info("new connection")

	handler := &rpcMethodHandler{svc: h.svc, log: log}
	rpcConn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.AsyncHandler(handler))

	<-rpcConn.DisconnectNotify()
	log.Info("connection closed")
}

type rpcMethodHandler struct {
	svc TravelService
	log *slog.Logger
}

type textPart struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type messageParams struct {
	TaskID  string `json:"taskId,omitempty"`
	Message struct {
		Parts []textPart `json:"parts"`
	} `json:"message"`
}

func (p messageParams) text() string {
	var texts []string
	for _, part := range p.Message.Parts {
		if part.Kind == "" || part.Kind == "text" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

type getTaskParams struct {
	ID string `json:"id"`
}

func (h *rpcMethodHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if req.Notif {
		return
	}

	switch req.Method {
	case MethodSend:
		h.handleMessage(ctx, conn, req, false)
	case MethodStream:
		h.handleMessage(ctx, conn, req, true)
	case MethodGetTask:
		h.handleGetTask(ctx, conn, req)
	default:
		h.replyError(ctx, conn, req.ID, jsonrpc2.CodeMethodNotFound, "method not found: "+req.Method)
	}
}

// handleMessage runs one message through the service. Task failures are
// reported as a failed task result, not as JSON-RPC errors.
func (h *rpcMethodHandler) handleMessage(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, notify bool) {
	var params messageParams
	if err := unmarshalParams(req, &params); err != nil {
		h.replyError(ctx, conn, req.ID, jsonrpc2.CodeInvalidParams, "invalid params")
		return
	}

	var last domain.TaskEvent
	for ev := range h.svc.Handle(ctx, usecase.Request{Message: params.text(), TaskID: params.TaskID}) {
		last = ev
		if notify {
			if err := conn.Notify(ctx, MethodTaskStatus, ev); err != nil {
				h.log.Warn("failed to send task status", "taskId", ev.TaskID, "state", ev.State, "err", err)
			}
		}
	}

	if !last.State.IsTerminal() {
		h.replyError(ctx, conn, req.ID, jsonrpc2.CodeInternalError, "task ended without a terminal state")
		return
	}
	if err := conn.Reply(ctx, req.ID, last); err != nil {
		h.log.Error("failed to send message response", "err", err)
	}
}

func (h *rpcMethodHandler) handleGetTask(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	var params getTaskParams
	if err := unmarshalParams(req, &params); err != nil {
		h.replyError(ctx, conn, req.ID, jsonrpc2.CodeInvalidParams, "invalid params")
		return
	}
	if params.ID == "" {
		h.replyError(ctx, conn, req.ID, jsonrpc2.CodeInvalidParams, "id is required")
		return
	}

	task, err := h.svc.GetTask(ctx, params.ID)
	if err != nil {
		var ucErr *usecase.Error
		if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorNotFound {
			h.replyError(ctx, conn, req.ID, CodeTaskNotFound, "task not found")
			return
		}
		h.log.Error("failed to get task", "taskId", params.ID, "err", err)
		h.replyError(ctx, conn, req.ID, jsonrpc2.CodeInternalError, "internal error")
		return
	}

	if err := conn.Reply(ctx, req.ID, task); err != nil {
		h.log.Error("failed to send task response", "err", err)
	}
}

func (h *rpcMethodHandler) replyError(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, code int64, message string) {
	err := &jsonrpc2.Error{
		Code:    code,
		Message: message,
	}
	if replyErr := conn.ReplyWithError(ctx, id, err); replyErr != nil {
		h.log.Error("failed to send error response", "err", replyErr)
	}
}

func unmarshalParams(req *jsonrpc2.Request, v any) error {
	if req.Params == nil || string(*req.Params) == "null" {
		return errors.New("params required")
	}
	return json.Unmarshal(*req.Params, v)
}

// webSocketStream adapts coder/websocket to jsonrpc2.ObjectStream.
type webSocketStream struct {
	conn *websocket.Conn
	mu   sync.Mutex // protects writes
}

func newWebSocketStream(conn *websocket.Conn) *webSocketStream {
	return &webSocketStream{conn: conn}
}

func (s *webSocketStream) ReadObject(v any) error {
	_, data, err := s.conn.Read(context.Background())
	if err != nil {
		// normal close frames end the jsonrpc2 read loop cleanly
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return io.EOF
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *webSocketStream) WriteObject(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Write(context.Background(), websocket.MessageText, data)
}

func (s *webSocketStream) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}

var _ jsonrpc2.ObjectStream = (*webSocketStream)(nil)
