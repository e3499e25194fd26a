package tts

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Chain is the production synthesis path: local server first, then
// ElevenLabs when configured. A local failure without a fallback key
// surfaces both the failure and the missing configuration.
type Chain struct {
	local    Synthesizer
	fallback Synthesizer
	logger   *zap.Logger
}

// NewChain builds the synthesis chain from config. The ElevenLabs leg
// is only wired when an API key is present.
func NewChain(cfg Config, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Chain{
		local:  NewLocalSpeech(cfg.LocalURL, cfg.Model, cfg.Speed),
		logger: logger,
	}
	if cfg.ElevenLabsAPIKey != "" {
		c.fallback = NewElevenLabs(cfg.ElevenLabsAPIKey, cfg.ElevenLabsBaseURL, cfg.Voices)
	}
	return c
}

// Synthesize runs the chain for one piece of text.
func (c *Chain) Synthesize(ctx context.Context, text, mode string) ([]byte, error) {
	audio, localErr := c.local.Synthesize(ctx, text, mode)
	if localErr == nil {
		return audio, nil
	}

	if c.fallback == nil {
		return nil, fmt.Errorf("local TTS failed and no ElevenLabs API key configured: %w", localErr)
	}

	c.logger.Warn("local tts failed; falling back to elevenlabs",
		zap.String("mode", mode),
		zap.Error(localErr))
	return c.fallback.Synthesize(ctx, text, mode)
}
