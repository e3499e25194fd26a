package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var req askRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Apa itu demam?", req.Message)

		json.NewEncoder(w).Encode(map[string]any{"text": "Demam adalah..."})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	answer, err := client.Ask(context.Background(), "Apa itu demam?", false)
	require.NoError(t, err)
	assert.Equal(t, "Demam adalah...", answer.Text)
	assert.Empty(t, answer.Sources)
}

func TestAskWithRetrieval(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ask_rag", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"text":    "Kompres dengan air hangat.",
			"sources": []string{"IDAI", "Kemenkes RI"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	answer, err := client.Ask(context.Background(), "Bagaimana menangani demam?", true)
	require.NoError(t, err)
	assert.Equal(t, "Kompres dengan air hangat.", answer.Text)
	assert.Equal(t, []string{"IDAI", "Kemenkes RI"}, answer.Sources)
}

func TestAskServiceErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Error from Groq: rate limited"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Ask(context.Background(), "halo", false)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Error from Groq: rate limited", err.Error())
}

func TestAskServiceErrorPlainBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model unavailable"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Ask(context.Background(), "halo", true)
	require.Error(t, err)
	assert.Equal(t, "model unavailable", err.Error())
}

func TestAskServiceErrorEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Ask(context.Background(), "halo", false)
	require.Error(t, err)
	assert.Equal(t, "permintaan gagal (HTTP 502)", err.Error())
}

func TestAskTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL)
	_, err := client.Ask(context.Background(), "halo", false)
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures should not be APIErrors")
}

func TestSpeak(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tts", r.URL.Path)

		var req speakRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Demam adalah...", req.Text)
		assert.Equal(t, "kids", req.Mode)

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	audio, err := client.Speak(context.Background(), "Demam adalah...", "kids")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		json.NewEncoder(w).Encode(Health{Status: "ok", Service: "Baymax Assistant API", Documents: 42})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	health, err := client.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 42, health.Documents)
}
