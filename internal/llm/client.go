// Package llm talks to the Groq chat-completions API. Groq exposes the
// OpenAI wire format, so the client here is a plain OpenAI-compatible
// completion client pointed at a different base URL.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BaymaxSystemPrompt is the persona directive used for every completion.
// It keeps the assistant calm, non-diagnosing, and answering in
// Indonesian.
const BaymaxSystemPrompt = "Anda adalah Baymax, asisten kesehatan pribadi yang tenang dan empatik. " +
	"Anda tidak mendiagnosis penyakit, tidak meresepkan obat, dan tidak memberikan rekomendasi medis yang bersifat spesifik. " +
	"Tugas Anda adalah memberikan informasi umum, tips gaya hidup, dan pertolongan awal yang aman berdasarkan pertanyaan pengguna atau konteks yang diberikan. " +
	"Jika pertanyaan berkaitan dengan gejala berat, Anda harus menyarankan untuk berkonsultasi langsung dengan tenaga medis atau layanan darurat. " +
	"Tulislah jawaban dalam Bahasa Indonesia dengan 2–4 kalimat, kemudian berikan 2–3 bullet point saran jika relevan. " +
	"Akhiri jawaban dengan pertanyaan singkat atau harapan baik."

// Config holds the completion client configuration.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// DefaultConfig returns the Groq defaults used by the assistant service.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:      apiKey,
		BaseURL:     "https://api.groq.com/openai/v1",
		Model:       "llama-3.3-70b-versatile",
		Temperature: 0.2,
		Timeout:     60 * time.Second,
	}
}

// Client is the Groq completion client.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *zap.Logger

	maxRetries       int
	retryBackoffBase time.Duration

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a completion client from config.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:           logger,
		maxRetries:       3,
		retryBackoffBase: time.Second,
	}
}

// Complete sends a prompt with the Baymax system directive.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, BaymaxSystemPrompt, prompt)
}

// CompleteWithSystem sends a completion request. userPrompt may be
// empty when the whole instruction lives in the system message, which
// is how the retrieval-augmented path assembles its prompt.
func (c *Client) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	// Auto-apply timeout if the context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()

	if c.apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	// Pace requests slightly so bursts from concurrent handlers don't
	// trip the provider's rate limiter outright.
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	messages := make([]Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	if userPrompt != "" {
		messages = append(messages, Message{Role: "user", Content: userPrompt})
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("no prompt provided")
	}

	reqBody := Request{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	}

	var lastErr error

	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			time.Sleep(time.Duration(1<<uint(i-1)) * c.retryBackoffBase)
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return "", fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var completion Response
		if err := json.Unmarshal(body, &completion); err != nil {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}

		if completion.Error != nil {
			return "", fmt.Errorf("API error: %s", completion.Error.Message)
		}

		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("no completion returned")
		}

		answer := strings.TrimSpace(completion.Choices[0].Message.Content)
		c.logger.Debug("completion finished",
			zap.String("model", c.model),
			zap.Duration("took", time.Since(startTime)),
			zap.Int("response_len", len(answer)))
		return answer, nil
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// SetModel changes the model used for completions.
func (c *Client) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *Client) GetModel() string {
	return c.model
}
