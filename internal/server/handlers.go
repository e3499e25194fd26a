package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"baymax/internal/rag"
	"baymax/internal/tts"
)

type chatRequest struct {
	Message string `json:"message"`
}

type ttsRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

type answerResponse struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources,omitempty"`
}

// handleHealth reports service liveness and the index size.
func (s *Server) handleHealth(c *gin.Context) {
	documents := 0
	if s.deps.Documents != nil {
		n, err := s.deps.Documents.Count(c.Request.Context())
		if err != nil {
			s.logger.Warn("failed to count documents", zap.Error(err))
		} else {
			documents = n
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   ServiceName,
		"documents": documents,
	})
}

// handleChat answers a question with the persona directive alone, no
// knowledge retrieval.
func (s *Server) handleChat(c *gin.Context) {
	question, ok := s.bindMessage(c)
	if !ok {
		return
	}

	answer, err := s.deps.LLM.Complete(c.Request.Context(), question)
	if err != nil {
		s.logger.Error("completion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error from Groq: %v", err)})
		return
	}

	c.JSON(http.StatusOK, answerResponse{Text: answer})
}

// handleAskRAG answers a question grounded in retrieved knowledge and
// cites the sources behind the passages it used.
func (s *Server) handleAskRAG(c *gin.Context) {
	question, ok := s.bindMessage(c)
	if !ok {
		return
	}

	hits, err := s.deps.Retriever.Retrieve(c.Request.Context(), question)
	if err != nil {
		s.logger.Error("context retrieval failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error retrieving context: %v", err)})
		return
	}

	prompt, sources := rag.BuildPrompt(question, hits)
	answer, err := s.deps.LLM.CompleteWithSystem(c.Request.Context(), prompt, "")
	if err != nil {
		s.logger.Error("completion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error from Groq: %v", err)})
		return
	}

	// sources is always a list in the payload, even when empty, so
	// the client can rely on the key being present.
	if sources == nil {
		sources = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"text": answer, "sources": sources})
}

// handleTTS converts text to speech. ElevenLabs upstream failures keep
// their original status code; everything else is a 500.
func (s *Server) handleTTS(c *gin.Context) {
	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Text cannot be empty."})
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Text cannot be empty."})
		return
	}
	mode := req.Mode
	if mode == "" {
		mode = "pro"
	}

	audio, err := s.deps.Synth.Synthesize(c.Request.Context(), text, mode)
	if err != nil {
		s.logger.Error("speech synthesis failed", zap.String("mode", mode), zap.Error(err))

		status := http.StatusInternalServerError
		var upstream *tts.UpstreamError
		if errors.As(err, &upstream) {
			status = upstream.Status
		}
		c.JSON(status, gin.H{"detail": err.Error()})
		return
	}

	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// bindMessage decodes the common {"message": ...} body and rejects
// requests whose message trims to nothing.
func (s *Server) bindMessage(c *gin.Context) (string, bool) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Message cannot be empty."})
		return "", false
	}

	question := strings.TrimSpace(req.Message)
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Message cannot be empty."})
		return "", false
	}
	return question, true
}
