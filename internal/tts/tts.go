// Package tts turns answer text into speech audio. A local OpenAI-style
// speech server is tried first; when it fails and an ElevenLabs key is
// configured, synthesis falls back to the ElevenLabs API. All engines
// return MP3 bytes.
package tts

import (
	"context"
	"fmt"
)

// Synthesizer converts text to MP3 audio for a given voice mode.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, mode string) ([]byte, error)
}

// Config holds the synthesis chain configuration.
type Config struct {
	// Local speech server
	LocalURL string
	Model    string
	Speed    float64

	// ElevenLabs fallback; empty APIKey disables it
	ElevenLabsAPIKey  string
	ElevenLabsBaseURL string
	// Voices maps voice mode (pro, max, kids) to an ElevenLabs voice ID.
	Voices map[string]string
}

// DefaultConfig returns the local-server defaults.
func DefaultConfig() Config {
	return Config{
		LocalURL: "http://localhost:5050",
		Model:    "tts-1",
		Speed:    1.0,
	}
}

// UpstreamError is a non-2xx reply from the ElevenLabs API. The status
// code is preserved so the HTTP layer can relay it.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("elevenlabs returned error: %s", e.Body)
}
