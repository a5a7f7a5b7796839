package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"travel-agent/internal/domain"
	"travel-agent/internal/logger"
	"travel-agent/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	maxBodyBytes      = 1 << 20
	agentCardPath     = "/.well-known/agent-card.json"
	tasksPrefix       = "/tasks/"
)

// TravelService is the subset of usecase.TravelService the REST transport needs.
type TravelService interface {
	Reply(ctx context.Context, in usecase.Request) (usecase.Reply, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
}

type Handler struct {
	svc  TravelService
	card AgentCard
}

type messageRequest struct {
	Input *struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	} `json:"input"`
}

type agentMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Output struct {
		Messages []agentMessage `json:"messages"`
	} `json:"output"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func NewHandler(svc TravelService, card AgentCard) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: travel service must not be nil")
	}
	return &Handler{svc: svc, card: card}, nil
}

// Handle serves API Gateway proxy events. It never returns a non-nil error;
// failures are encoded in the response.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ctx = logger.WithCorrelationID(ctx, correlationID)
	log := logger.FromContext(ctx)

	path := strings.TrimRight(req.Path, "/")
	if path == "" {
		path = "/"
	}

	var resp events.APIGatewayProxyResponse
	switch {
	case path == "/" && req.HTTPMethod == http.MethodPost:
		resp = h.handleMessage(ctx, req.Body)
	case path == agentCardPath && req.HTTPMethod == http.MethodGet:
		resp = jsonResponse(http.StatusOK, h.card)
	case strings.HasPrefix(path, tasksPrefix) && req.HTTPMethod == http.MethodGet:
		resp = h.handleGetTask(ctx, strings.TrimPrefix(path, tasksPrefix))
	case path == "/healthz" && req.HTTPMethod == http.MethodGet:
		resp = jsonResponse(http.StatusOK, map[string]string{"status": "ok"})
	case path == "/" || path == agentCardPath || path == "/healthz" || strings.HasPrefix(path, tasksPrefix):
		resp = jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Code: string(usecase.ErrorInvalidInput)})
	default:
		resp = jsonResponse(http.StatusNotFound, errorResponse{Error: "not found", Code: string(usecase.ErrorNotFound)})
	}

	resp.Headers[correlationHeader] = correlationID
	log.Info("request handled", "method", req.HTTPMethod, "path", req.Path, "status", resp.StatusCode)
	return resp, nil
}

func (h *Handler) handleMessage(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var in messageRequest
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: "invalid JSON body", Code: string(usecase.ErrorInvalidInput)})
	}
	if in.Input == nil || len(in.Input.Messages) == 0 {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: "Missing messages in input", Code: string(usecase.ErrorInvalidInput)})
	}

	reply, err := h.svc.Reply(ctx, usecase.Request{Message: in.Input.Messages[0].Content})
	if err != nil {
		return errorResult(ctx, err)
	}

	var out messageResponse
	out.Output.Messages = []agentMessage{{Role: "agent", Content: reply.Message}}
	return jsonResponse(http.StatusOK, out)
}

func (h *Handler) handleGetTask(ctx context.Context, id string) events.APIGatewayProxyResponse {
	task, err := h.svc.GetTask(ctx, id)
	if err != nil {
		return errorResult(ctx, err)
	}
	return jsonResponse(http.StatusOK, task)
}

// ServeHTTP adapts net/http requests to Handle so the local server and
// Lambda share one routing table.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}
	query := make(map[string]string, len(r.URL.Query()))
	for k := range r.URL.Query() {
		query[k] = r.URL.Query().Get(k)
	}

	resp, _ := h.Handle(r.Context(), events.APIGatewayProxyRequest{
		HTTPMethod:            r.Method,
		Path:                  r.URL.Path,
		Headers:               headers,
		QueryStringParameters: query,
		Body:                  string(body),
	})

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}

func errorResult(ctx context.Context, err error) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		logger.FromContext(ctx).Error("unexpected error", "err", err)
		return jsonResponse(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: string(usecase.ErrorInternal)})
	}

	status := statusFor(ucErr.Code)
	if status >= http.StatusInternalServerError {
		logger.FromContext(ctx).Error("request failed", "code", ucErr.Code, "reason", ucErr.Reason, "err", ucErr.Err)
	}
	return jsonResponse(status, errorResponse{Error: ucErr.Message(), Code: string(ucErr.Code)})
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorAuth, usecase.ErrorSearch, usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error","code":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

// headerValue looks name up case-insensitively; API Gateway preserves the
// client's casing.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
