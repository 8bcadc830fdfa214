package relay

import (
	"context"
	"errors"
	"strings"

	"quicksquad-chat/internal/domain"
	"quicksquad-chat/internal/integrations/openai"
)

const (
	DefaultModel = "gpt-3.5-turbo"
	temperature  = 0.4

	// NoAnswerReply is returned when the upstream completion has no text.
	NoAnswerReply = "Sorry, I could not find an answer."
)

type LLMClient interface {
	Ready(ctx context.Context) error
	Chat(ctx context.Context, p openai.ChatParams) (string, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// Service forwards one conversation to the upstream model per call. It holds
// no per-request state.
type Service struct {
	llm   LLMClient
	model string
}

type Input struct {
	Messages []domain.Message
}

type Output struct {
	Reply string
}

func NewService(llm LLMClient, model string) (*Service, error) {
	if llm == nil {
		return nil, errors.New("relay: llm client must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &Service{llm: llm, model: model}, nil
}

func (s *Service) Model() string {
	return s.model
}

func (s *Service) Relay(ctx context.Context, in Input) (Output, error) {
	if guardrailTripped(in.Messages) {
		return Output{}, newError(ErrorGuardrail, "password_share", nil)
	}

	if err := s.llm.Ready(ctx); err != nil {
		if errors.Is(err, openai.ErrMissingAPIKey) {
			return Output{}, newError(ErrorMisconfigured, "api_key_missing", err)
		}
		return Output{}, newError(ErrorInternal, "api_key_error", err)
	}

	raw, err := s.llm.Chat(ctx, openai.ChatParams{
		Model:       s.model,
		Temperature: temperature,
		Messages:    buildPromptMessages(in.Messages),
	})
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok {
			e := newError(ErrorUpstream, "openai_error", err)
			e.UpstreamStatus = status
			return Output{}, e
		}
		if errors.Is(err, openai.ErrMissingAPIKey) {
			return Output{}, newError(ErrorMisconfigured, "api_key_missing", err)
		}
		return Output{}, newError(ErrorInternal, "openai_request_error", err)
	}

	reply := strings.TrimSpace(raw)
	if reply == "" {
		reply = NoAnswerReply
	}
	return Output{Reply: reply}, nil
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
