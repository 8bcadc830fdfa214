// Package relayclient posts widget conversations to the relay endpoint.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"quicksquad-chat/internal/domain"
)

// EmptyReply is used when the relay answers 2xx without a reply.
const EmptyReply = "Sorry, I couldn't process that right now."

type askRequest struct {
	Messages  []domain.Message `json:"messages"`
	UserAgent string           `json:"userAgent"`
}

type askResponse struct {
	Reply string `json:"reply"`
}

// StatusError is returned for non-2xx relay responses.
type StatusError struct {
	StatusCode int
	Reply      string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relayclient: unexpected status %d", e.StatusCode)
}

type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New builds a client for endpoint. A relative endpoint such as
// "/quicksquad-ai" is resolved against baseURL.
func New(baseURL, endpoint string, opts ...Option) (*Client, error) {
	url, err := resolveEndpoint(baseURL, endpoint)
	if err != nil {
		return nil, err
	}
	c := &Client{
		endpoint:   url,
		userAgent:  "quicksquad-chat",
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func resolveEndpoint(baseURL, endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", errors.New("relayclient: endpoint must not be empty")
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint, nil
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return "", fmt.Errorf("relayclient: relative endpoint %q needs a base URL", endpoint)
	}
	return base + "/" + strings.TrimLeft(endpoint, "/"), nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Ask sends messages and returns the relay's reply.
func (c *Client) Ask(ctx context.Context, messages []domain.Message) (string, error) {
	body, err := json.Marshal(askRequest{Messages: messages, UserAgent: c.userAgent})
	if err != nil {
		return "", fmt.Errorf("relayclient: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("relayclient: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("relayclient: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("relayclient: read response body: %w", err)
	}

	var payload askResponse
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_ = json.Unmarshal(raw, &payload)
		return "", &StatusError{StatusCode: res.StatusCode, Reply: payload.Reply}
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("relayclient: decode response: %w", err)
	}
	if payload.Reply == "" {
		return EmptyReply, nil
	}
	return payload.Reply, nil
}
