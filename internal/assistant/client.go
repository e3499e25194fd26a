// Package assistant is the client side of the Baymax HTTP API. It
// mirrors what the web client does over the wire: plain JSON POSTs,
// no retries, and failures surfaced with whatever text the service
// put in the response body.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Answer is a reply from the chat endpoints. Sources is only populated
// by the retrieval-augmented endpoint.
type Answer struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources,omitempty"`
}

// Health is the service health report.
type Health struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Documents int    `json:"documents"`
}

// APIError is a non-2xx reply from the service. Detail carries the
// service's structured error message when the body was the usual
// {"detail": ...} payload; Body always holds the raw text.
type APIError struct {
	StatusCode int
	Detail     string `json:"detail"`
	Body       string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	return fmt.Sprintf("permintaan gagal (HTTP %d)", e.StatusCode)
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// Client talks to the assistant service. The zero-timeout default
// matches the web client: a slow model keeps the request open rather
// than failing it, and the caller decides how long to wait via ctx.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type askRequest struct {
	Message string `json:"message"`
}

type speakRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

// Ask sends a question and returns the answer. useRetrieval selects
// the knowledge-grounded endpoint over plain chat.
func (c *Client) Ask(ctx context.Context, message string, useRetrieval bool) (*Answer, error) {
	path := "/api/chat"
	if useRetrieval {
		path = "/api/ask_rag"
	}

	body, err := c.post(ctx, path, askRequest{Message: message})
	if err != nil {
		return nil, err
	}

	var answer Answer
	if err := json.Unmarshal(body, &answer); err != nil {
		return nil, fmt.Errorf("failed to decode answer: %w", err)
	}
	return &answer, nil
}

// Speak converts text to speech and returns the MP3 bytes.
func (c *Client) Speak(ctx context.Context, text, mode string) ([]byte, error) {
	return c.post(ctx, "/api/tts", speakRequest{Text: text, Mode: mode})
}

// HealthCheck reports whether the service is up and how many documents
// its index holds.
func (c *Client) HealthCheck(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, c.apiError(res)
	}

	var health Health
	if err := json.NewDecoder(res.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health: %w", err)
	}
	return &health, nil
}

// post sends one JSON POST and returns the raw success body.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, c.apiError(res)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// apiError reads a non-2xx body (bounded) and attempts to decode the
// service's {"detail": ...} error payload.
func (c *Client) apiError(res *http.Response) *APIError {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20)) // 1 MiB
	apiErr := &APIError{StatusCode: res.StatusCode, Body: string(b)}
	_ = json.Unmarshal(b, apiErr)
	return apiErr
}
