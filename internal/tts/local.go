package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LocalSpeech talks to an OpenAI-compatible speech server (Edge TTS
// bridges and similar expose this shape at /v1/audio/speech).
type LocalSpeech struct {
	baseURL    string
	model      string
	speed      float64
	httpClient *http.Client
}

// NewLocalSpeech creates a local speech client.
func NewLocalSpeech(baseURL, model string, speed float64) *LocalSpeech {
	if baseURL == "" {
		baseURL = "http://localhost:5050"
	}
	if model == "" {
		model = "tts-1"
	}
	if speed <= 0 {
		speed = 1.0
	}
	return &LocalSpeech{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		speed:   speed,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// localVoice maps a voice mode onto the local server's voice names.
// Pro is the Indonesian male voice, max the English one; everything
// else falls back to the Indonesian female voice.
func localVoice(mode string) string {
	switch mode {
	case "pro":
		return "ardhi"
	case "max":
		return "alloy"
	default:
		return "gadis"
	}
}

type localSpeechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// Synthesize converts text to MP3 via the local server.
func (l *LocalSpeech) Synthesize(ctx context.Context, text, mode string) ([]byte, error) {
	if mode == "" {
		mode = "pro"
	}

	payload := localSpeechRequest{
		Model:          l.model,
		Input:          text,
		Voice:          localVoice(mode),
		ResponseFormat: "mp3",
		Speed:          l.speed,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("local tts returned status %d: %s", resp.StatusCode, string(respBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return audio, nil
}
