// Package advisor talks to an OpenAI-compatible chat-completion API and turns
// its answers into recommendation payloads.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/castlemilk/pfinance/insights/internal/config"
)

const systemPrompt = "You are a helpful assistant for a retail bank's customers. " +
	"Answer only with the JSON document requested, without commentary."

// Client is an HTTP client for the chat-completion endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewClient creates a new chat-completion client.
func NewClient(cfg config.AdvisorConfig) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one system and one user message and returns the content of
// the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, body)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &ProviderError{
			Code:       ErrMalformedResponse,
			Message:    "decode completion",
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &ProviderError{
			Code:       ErrEmptyResponse,
			Message:    "completion has no content",
			StatusCode: resp.StatusCode,
		}
	}

	return out.Choices[0].Message.Content, nil
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ProviderError{Code: ErrTimeout, Message: "completion timed out", Retryable: true, Cause: err}
	}
	return &ProviderError{Code: ErrUnavailable, Message: "execute request", Retryable: true, Cause: err}
}

func statusError(status int, body []byte) error {
	msg := fmt.Sprintf("status %d, body: %s", status, truncate(string(body), 512))
	switch {
	case status == http.StatusTooManyRequests:
		return &ProviderError{Code: ErrRateLimited, Message: msg, StatusCode: status, Retryable: true}
	case status >= 500:
		return &ProviderError{Code: ErrUnavailable, Message: msg, StatusCode: status, Retryable: true}
	default:
		return &ProviderError{Code: ErrBadStatus, Message: msg, StatusCode: status}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
