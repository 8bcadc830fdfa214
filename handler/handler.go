package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"quicksquad-chat/internal/domain"
	"quicksquad-chat/internal/relay"
)

const (
	correlationHeader = "X-Correlation-Id"

	// MaxBodyBytes bounds the accepted request body.
	MaxBodyBytes = 1 << 20

	replyGuardrail     = "For your security, never share passwords here. I can guide you to reset them securely instead."
	replyMisconfigured = "Server misconfig: API key not set."
	replyServerIssue   = "Server issue — please try again shortly."
	replyInvalidBody   = "Invalid request body."
	replyTooLarge      = "Request body too large."
	replyBadMethod     = "Method not allowed."
)

type Relayer interface {
	Relay(ctx context.Context, in relay.Input) (relay.Output, error)
}

type relayRequest struct {
	Messages  []domain.Message `json:"messages"`
	UserAgent string           `json:"userAgent,omitempty"`
}

type replyResponse struct {
	Reply string `json:"reply"`
}

// Handler exposes the relay over API Gateway events and plain net/http.
type Handler struct {
	relay  Relayer
	logger *slog.Logger
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(r Relayer, opts ...Option) (*Handler, error) {
	if r == nil {
		return nil, errors.New("handler: relay must not be nil")
	}
	h := &Handler{relay: r, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle serves an API Gateway proxy event.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	headers := map[string]string{
		"Content-Type":    "application/json",
		correlationHeader: correlationID,
	}
	for k, v := range corsHeaders(headerValue(event.Headers, "Origin")) {
		headers[k] = v
	}

	if event.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent, Headers: headers}, nil
	}
	if event.HTTPMethod != http.MethodPost {
		headers["Allow"] = "POST, OPTIONS"
		return h.lambdaResponse(http.StatusMethodNotAllowed, replyBadMethod, headers), nil
	}

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return h.lambdaResponse(http.StatusBadRequest, replyInvalidBody, headers), nil
		}
		body = decoded
	}
	if len(body) > MaxBodyBytes {
		return h.lambdaResponse(http.StatusRequestEntityTooLarge, replyTooLarge, headers), nil
	}

	status, reply := h.process(ctx, correlationID, body)
	return h.lambdaResponse(status, reply, headers), nil
}

func (h *Handler) lambdaResponse(status int, reply string, headers map[string]string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       encodeReply(reply),
	}
}

// ServeHTTP serves the relay route on a net/http server.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	correlationID := strings.TrimSpace(r.Header.Get(correlationHeader))
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	w.Header().Set(correlationHeader, correlationID)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeReply(w, http.StatusRequestEntityTooLarge, replyTooLarge)
			return
		}
		writeReply(w, http.StatusBadRequest, replyInvalidBody)
		return
	}

	status, reply := h.process(r.Context(), correlationID, body)
	writeReply(w, status, reply)
}

func (h *Handler) process(ctx context.Context, correlationID string, body []byte) (int, string) {
	log := h.logger.With("correlation_id", correlationID)

	var req relayRequest
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			log.Warn("invalid relay request body", "err", err)
			return http.StatusBadRequest, replyInvalidBody
		}
	}
	log.Info("relay request", "messages", len(req.Messages), "user_agent", req.UserAgent)

	out, err := h.relay.Relay(ctx, relay.Input{Messages: req.Messages})
	if err != nil {
		return h.mapError(log, err)
	}
	return http.StatusOK, out.Reply
}

func (h *Handler) mapError(log *slog.Logger, err error) (int, string) {
	var relayErr *relay.Error
	if !errors.As(err, &relayErr) {
		log.Error("relay failed", "err", err)
		return http.StatusInternalServerError, replyServerIssue
	}

	switch relayErr.Code {
	case relay.ErrorGuardrail:
		log.Warn("guardrail tripped", "reason", relayErr.Reason)
		return http.StatusBadRequest, replyGuardrail
	case relay.ErrorInvalidInput:
		log.Warn("invalid relay input", "reason", relayErr.Reason)
		return http.StatusBadRequest, replyInvalidBody
	case relay.ErrorMisconfigured:
		log.Warn("OPENAI_API_KEY is missing", "reason", relayErr.Reason)
		return http.StatusInternalServerError, replyMisconfigured
	case relay.ErrorUpstream:
		log.Error("upstream error", "status", relayErr.UpstreamStatus, "err", relayErr.Err)
		return http.StatusInternalServerError, fmt.Sprintf("Upstream error (%d).", relayErr.UpstreamStatus)
	default:
		log.Error("relay failed", "code", relayErr.Code, "reason", relayErr.Reason, "err", relayErr.Err)
		return http.StatusInternalServerError, replyServerIssue
	}
}

func encodeReply(reply string) string {
	b, err := json.Marshal(replyResponse{Reply: reply})
	if err != nil {
		return `{"reply":""}`
	}
	return string(b)
}

func writeReply(w http.ResponseWriter, status int, reply string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, encodeReply(reply))
}

// headerValue looks up name case-insensitively; API Gateway does not
// canonicalize header keys.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
