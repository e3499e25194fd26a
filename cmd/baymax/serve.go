package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"baymax/internal/config"
	"baymax/internal/embedding"
	"baymax/internal/llm"
	"baymax/internal/logging"
	"baymax/internal/rag"
	"baymax/internal/server"
	"baymax/internal/store"
	"baymax/internal/tts"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd runs the assistant HTTP service
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assistant HTTP service",
	Long: `Runs the assistant API: /api/chat for direct completions,
/api/ask_rag for answers grounded in the knowledge index, /api/tts for
speech synthesis, and /api/health. The web client is served from the
configured client directory.

The service shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	engine, err := embedding.New(embedding.Config{
		Provider: cfg.Embedding.Provider,
		Endpoint: cfg.Embedding.Endpoint,
		Model:    cfg.Embedding.Model,
		APIKey:   cfg.Embedding.APIKey,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedding engine: %w", err)
	}

	llmCfg := llm.DefaultConfig(cfg.Groq.APIKey)
	llmCfg.BaseURL = cfg.Groq.BaseURL
	llmCfg.Model = cfg.Groq.Model
	llmCfg.Timeout = cfg.GetGroqTimeout()
	completer := llm.NewClient(llmCfg, logging.Component(logger, "llm"))

	retriever := rag.NewRetriever(engine, st, cfg.Retrieval.TopK, logging.Component(logger, "rag"))
	synth := tts.NewChain(ttsConfig(cfg), logging.Component(logger, "tts"))

	srv := server.New(server.Config{
		Listen:       cfg.Server.Listen,
		ClientDir:    cfg.Server.ClientDir,
		Debug:        cfg.Server.Debug,
		AllowedHosts: cfg.Server.AllowedHosts,
	}, server.Dependencies{
		LLM:       completer,
		Retriever: retriever,
		Synth:     synth,
		Documents: st,
	}, logging.Component(logger, "server"))

	logger.Info("starting assistant service",
		zap.String("listen", cfg.Server.Listen),
		zap.String("store", cfg.Store.Path),
		zap.String("model", cfg.Groq.Model))

	return srv.Run(ctx)
}

// ttsConfig maps the file configuration onto the synthesis chain.
func ttsConfig(c *config.Config) tts.Config {
	return tts.Config{
		LocalURL:          c.TTS.LocalURL,
		Model:             c.TTS.Model,
		Speed:             c.TTS.Speed,
		ElevenLabsAPIKey:  c.TTS.ElevenLabs.APIKey,
		ElevenLabsBaseURL: c.TTS.ElevenLabs.BaseURL,
		Voices:            c.TTS.ElevenLabs.Voices,
	}
}
