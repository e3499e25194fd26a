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

// ElevenLabs synthesizes speech through the ElevenLabs API using the
// multilingual model, which handles Indonesian. Voice settings lean
// toward a calm, consistent delivery.
type ElevenLabs struct {
	apiKey     string
	baseURL    string
	voices     map[string]string
	httpClient *http.Client
}

// NewElevenLabs creates an ElevenLabs client. voices maps voice mode
// to a configured voice ID.
func NewElevenLabs(apiKey, baseURL string, voices map[string]string) *ElevenLabs {
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}
	return &ElevenLabs{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		voices:  voices,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// voiceID resolves a voice mode to a configured voice ID. Unknown
// modes fall back to the pro voice; a missing ID is an error rather
// than a silent failure.
func (e *ElevenLabs) voiceID(mode string) (string, error) {
	m := strings.ToLower(mode)
	if m == "" {
		m = "pro"
	}
	switch m {
	case "max", "kids":
	default:
		m = "pro"
	}

	id := e.voices[m]
	if id == "" {
		return "", fmt.Errorf("voice ID for mode %q is not configured", m)
	}
	return id, nil
}

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to MP3 via the ElevenLabs API. Non-2xx
// replies come back as *UpstreamError with the API's status code.
func (e *ElevenLabs) Synthesize(ctx context.Context, text, mode string) ([]byte, error) {
	voiceID, err := e.voiceID(mode)
	if err != nil {
		return nil, err
	}

	payload := elevenLabsRequest{
		Text:    text,
		ModelID: "eleven_multilingual_v2",
		VoiceSettings: voiceSettings{
			Stability:       0.65,
			SimilarityBoost: 0.75,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", e.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return audio, nil
}
