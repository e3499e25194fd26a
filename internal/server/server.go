// Package server is the Baymax assistant HTTP service: two chat
// endpoints (plain and retrieval-augmented), speech synthesis, a
// health report, and the static web client. Error payloads use the
// {"detail": ...} shape the web client expects.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"baymax/internal/store"
	"baymax/internal/tts"
)

// ServiceName identifies this service in the health report.
const ServiceName = "Baymax Assistant API"

// Completer produces chat completions.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ContextRetriever pulls knowledge passages for a question.
type ContextRetriever interface {
	Retrieve(ctx context.Context, question string) ([]store.Hit, error)
}

// DocumentCounter reports the size of the knowledge index.
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}

// Config configures the HTTP service.
type Config struct {
	Listen       string
	ClientDir    string
	Debug        bool
	AllowedHosts []string
}

// Dependencies carries everything the handlers call into.
type Dependencies struct {
	LLM       Completer
	Retriever ContextRetriever
	Synth     tts.Synthesizer
	Documents DocumentCounter
}

// Server is the assistant HTTP service.
type Server struct {
	cfg    Config
	deps   Dependencies
	engine *gin.Engine
	logger *zap.Logger
}

// New builds the service with all routes and middleware attached.
func New(cfg Config, deps Dependencies, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8000"
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestID())
	engine.Use(requestLogger(logger))
	engine.Use(corsMiddleware(cfg))

	s := &Server{cfg: cfg, deps: deps, engine: engine, logger: logger}

	api := engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/chat", s.handleChat)
	api.POST("/ask_rag", s.handleAskRAG)
	api.POST("/tts", s.handleTTS)

	s.mountClient()
	return s
}

// Handler exposes the routed engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// mountClient serves the static web client at the root. API paths win;
// anything else resolves inside the client directory, with traversal
// handled by http.Dir.
func (s *Server) mountClient() {
	dir := s.cfg.ClientDir
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		s.logger.Warn("client directory not found; web client disabled", zap.String("dir", dir))
		return
	}

	fileServer := http.FileServer(http.Dir(dir))
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	})
}

// Run serves until ctx is cancelled, then drains in-flight requests
// for up to ten seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("assistant service listening",
		zap.String("addr", s.cfg.Listen),
		zap.Bool("debug", s.cfg.Debug))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
