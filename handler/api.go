package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"chat-pipeline/internal/domain"
	"chat-pipeline/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"

	// defaultMessagesLimit is used when GET /messages carries no limit
	// parameter.
	defaultMessagesLimit = 50
)

// ChatService is the ingestion-side contract consumed by the API handler.
type ChatService interface {
	Submit(ctx context.Context, in usecase.SubmitInput) (usecase.SubmitOutput, error)
	GetMessages(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error)
	ListSessions(ctx context.Context, userID string) ([]string, error)
}

// API routes API Gateway proxy events to the chat service. Internal errors
// are converted to status codes here and never returned to the runtime.
type API struct {
	svc ChatService
}

// NewAPI creates the API handler.
func NewAPI(svc ChatService) (*API, error) {
	if svc == nil {
		return nil, errors.New("handler: chat service must not be nil")
	}
	return &API{svc: svc}, nil
}

type chatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

type chatResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type messagesResponse struct {
	Messages []domain.Message `json:"messages"`
	Count    int              `json:"count"`
}

type sessionsResponse struct {
	UserID   string   `json:"user_id"`
	Sessions []string `json:"sessions"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handle dispatches one API Gateway event.
func (h *API) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := resolveCorrelationID(req.Headers)

	path := strings.TrimRight(req.Path, "/")
	switch {
	case req.HTTPMethod == http.MethodPost && path == "/chat":
		return h.postChat(ctx, req, correlationID), nil
	case req.HTTPMethod == http.MethodGet && path == "/messages":
		return h.getMessages(ctx, req, correlationID), nil
	case req.HTTPMethod == http.MethodGet && strings.HasPrefix(path, "/sessions/"):
		return h.getSessions(ctx, strings.TrimPrefix(path, "/sessions/"), correlationID), nil
	case req.HTTPMethod == http.MethodGet && path == "/health":
		return respond(http.StatusOK, healthResponse{Status: "healthy", Service: "chat-api"}, correlationID), nil
	default:
		return respond(http.StatusNotFound, errorResponse{Error: "not_found"}, correlationID), nil
	}
}

func (h *API) postChat(ctx context.Context, req events.APIGatewayProxyRequest, correlationID string) events.APIGatewayProxyResponse {
	var body chatRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return respond(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorValidation)}, correlationID)
	}

	out, err := h.svc.Submit(ctx, usecase.SubmitInput{
		UserID:    body.UserID,
		SessionID: body.SessionID,
		Content:   body.Content,
	})
	if err != nil {
		return errorToResponse(err, correlationID)
	}

	return respond(http.StatusAccepted, chatResponse{
		MessageID: out.MessageID,
		Status:    out.Status,
		Timestamp: out.Timestamp,
	}, correlationID)
}

func (h *API) getMessages(ctx context.Context, req events.APIGatewayProxyRequest, correlationID string) events.APIGatewayProxyResponse {
	userID := req.QueryStringParameters["user_id"]
	sessionID := req.QueryStringParameters["session_id"]

	// Default applies only when the parameter is absent; an explicit
	// out-of-range value (including 0) is rejected by the service.
	limit := defaultMessagesLimit
	if raw, ok := req.QueryStringParameters["limit"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return respond(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorValidation)}, correlationID)
		}
		limit = n
	}

	msgs, err := h.svc.GetMessages(ctx, userID, sessionID, limit)
	if err != nil {
		return errorToResponse(err, correlationID)
	}

	return respond(http.StatusOK, messagesResponse{Messages: msgs, Count: len(msgs)}, correlationID)
}

func (h *API) getSessions(ctx context.Context, userID, correlationID string) events.APIGatewayProxyResponse {
	sessions, err := h.svc.ListSessions(ctx, userID)
	if err != nil {
		return errorToResponse(err, correlationID)
	}
	return respond(http.StatusOK, sessionsResponse{UserID: userID, Sessions: sessions}, correlationID)
}

// errorToResponse maps the service error taxonomy to client-facing status
// codes.
func errorToResponse(err error, correlationID string) events.APIGatewayProxyResponse {
	code := usecase.ErrorInternal
	var svcErr *usecase.Error
	if errors.As(err, &svcErr) {
		code = svcErr.Code
	}

	status := http.StatusInternalServerError
	switch code {
	case usecase.ErrorValidation:
		status = http.StatusBadRequest
	case usecase.ErrorGeneration:
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "code", string(code), "err", err)
	}
	return respond(status, errorResponse{Error: string(code)}, correlationID)
}

func respond(status int, body any, correlationID string) events.APIGatewayProxyResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		// The response shapes above always marshal; this path is unreachable
		// short of a shape regression.
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    responseHeaders(correlationID),
			Body:       `{"error":"INTERNAL_ERROR"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    responseHeaders(correlationID),
		Body:       string(payload),
	}
}

func responseHeaders(correlationID string) map[string]string {
	return map[string]string{
		"Content-Type":    "application/json",
		correlationHeader: correlationID,
	}
}

func resolveCorrelationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
