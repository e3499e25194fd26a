package config

import (
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GROQ_API_KEY", "GROQ_MODEL", "GROQ_BASE_URL",
		"OLLAMA_BASE_URL", "OLLAMA_EMBED_MODEL", "GEMINI_API_KEY",
		"RAG_STORE_PATH", "KB_FILE", "MB_FILE",
		"TTS_BASE_URL", "TTS_MODEL", "ELEVENLABS_API_KEY",
		"ELEVENLABS_VOICE_ID_PRO", "ELEVENLABS_VOICE_ID_MAX", "ELEVENLABS_VOICE_ID_KIDS",
		"BAYMAX_SERVER", "DEBUG", "ALLOWED_HOSTS",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Listen != ":8000" {
		t.Errorf("expected Listen=:8000, got %s", cfg.Server.Listen)
	}
	if cfg.Groq.Model != "llama-3.3-70b-versatile" {
		t.Errorf("expected default Groq model, got %s", cfg.Groq.Model)
	}
	if cfg.Embedding.Provider != "ollama" {
		t.Errorf("expected Provider=ollama, got %s", cfg.Embedding.Provider)
	}
	if cfg.Retrieval.TopK != 4 {
		t.Errorf("expected TopK=4, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Chat.VoiceMode != "pro" {
		t.Errorf("expected VoiceMode=pro, got %s", cfg.Chat.VoiceMode)
	}
	if !cfg.Chat.UseRetrieval {
		t.Error("expected UseRetrieval=true by default")
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "baymax.yaml")

	cfg := DefaultConfig()
	cfg.Groq.APIKey = "gsk-test"
	cfg.Server.Listen = ":9000"
	cfg.TTS.ElevenLabs.Voices["pro"] = "voice-pro"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Groq.APIKey != "gsk-test" {
		t.Errorf("expected APIKey=gsk-test, got %s", loaded.Groq.APIKey)
	}
	if loaded.Server.Listen != ":9000" {
		t.Errorf("expected Listen=:9000, got %s", loaded.Server.Listen)
	}
	if loaded.TTS.ElevenLabs.Voices["pro"] != "voice-pro" {
		t.Errorf("expected pro voice ID to round-trip, got %q", loaded.TTS.ElevenLabs.Voices["pro"])
	}
}

func TestConfig_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load failed for missing file: %v", err)
	}
	if cfg.Assistant.BaseURL != "http://localhost:8000" {
		t.Errorf("expected default base URL, got %s", cfg.Assistant.BaseURL)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "env-groq-key")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")
	t.Setenv("ELEVENLABS_VOICE_ID_KIDS", "kids-voice")
	t.Setenv("ALLOWED_HOSTS", "baymax.example.com, api.example.com")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Groq.APIKey != "env-groq-key" {
		t.Errorf("expected APIKey=env-groq-key, got %s", cfg.Groq.APIKey)
	}
	if cfg.Embedding.Endpoint != "http://ollama:11434" {
		t.Errorf("expected embedding endpoint override, got %s", cfg.Embedding.Endpoint)
	}
	if cfg.TTS.ElevenLabs.Voices["kids"] != "kids-voice" {
		t.Errorf("expected kids voice override, got %q", cfg.TTS.ElevenLabs.Voices["kids"])
	}
	if len(cfg.Server.AllowedHosts) != 2 || cfg.Server.AllowedHosts[1] != "api.example.com" {
		t.Errorf("expected trimmed host list, got %v", cfg.Server.AllowedHosts)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}

	cfg.Embedding.Provider = "chroma"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown provider")
	}

	cfg = DefaultConfig()
	cfg.Retrieval.TopK = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for top_k=0")
	}

	cfg = DefaultConfig()
	cfg.Chat.VoiceMode = "opera"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown voice mode")
	}
}

func TestConfig_ValidateServer(t *testing.T) {
	clearEnv(t)

	cfg := DefaultConfig()
	if err := cfg.ValidateServer(); err == nil {
		t.Error("expected server validation error for missing GROQ_API_KEY")
	}

	cfg.Groq.APIKey = "gsk-test"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("expected valid server config, got %v", err)
	}
}

func TestConfig_GetGroqTimeout(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GetGroqTimeout(); got != 60*time.Second {
		t.Errorf("GetGroqTimeout() = %v, want 60s", got)
	}

	cfg.Groq.Timeout = "not-a-duration"
	if got := cfg.GetGroqTimeout(); got != 60*time.Second {
		t.Errorf("GetGroqTimeout() fallback = %v, want 60s", got)
	}

	cfg.Groq.Timeout = "90s"
	if got := cfg.GetGroqTimeout(); got != 90*time.Second {
		t.Errorf("GetGroqTimeout() = %v, want 90s", got)
	}
}
