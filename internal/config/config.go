// Package config holds all baymax configuration: the assistant service,
// the chat client, the knowledge index, and speech synthesis. A single
// YAML file configures every subcommand; environment variables override
// the file so deployments can keep secrets out of it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all baymax configuration.
type Config struct {
	// HTTP API service
	Server ServerConfig `yaml:"server"`

	// Client side: where the assistant service lives
	Assistant AssistantConfig `yaml:"assistant"`

	// Groq chat-completion backend
	Groq GroqConfig `yaml:"groq"`

	// Embedding engine for the knowledge index
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Vector store
	Store StoreConfig `yaml:"store"`

	// Knowledge base source files
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// Retrieval tuning
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Speech synthesis chain
	TTS TTSConfig `yaml:"tts"`

	// Chat client defaults
	Chat ChatConfig `yaml:"chat"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the assistant HTTP service.
type ServerConfig struct {
	Listen       string   `yaml:"listen"`
	ClientDir    string   `yaml:"client_dir"`
	Debug        bool     `yaml:"debug"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

// AssistantConfig configures the client side of the API.
type AssistantConfig struct {
	BaseURL string `yaml:"base_url"`
}

// GroqConfig configures the OpenAI-compatible completion backend.
type GroqConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// EmbeddingConfig configures the embedding engine.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // ollama, genai
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// StoreConfig configures the SQLite vector store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// KnowledgeConfig points at the knowledge base source files.
type KnowledgeConfig struct {
	KBFile string `yaml:"kb_file"`
	MBFile string `yaml:"mb_file"`
}

// RetrievalConfig tunes context retrieval.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// TTSConfig configures speech synthesis.
type TTSConfig struct {
	LocalURL   string           `yaml:"local_url"`
	Model      string           `yaml:"model"`
	Speed      float64          `yaml:"speed"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
}

// ElevenLabsConfig configures the ElevenLabs fallback.
type ElevenLabsConfig struct {
	APIKey  string            `yaml:"api_key"`
	BaseURL string            `yaml:"base_url"`
	Voices  map[string]string `yaml:"voices"` // mode -> voice ID
}

// ChatConfig holds chat client defaults.
type ChatConfig struct {
	VoiceMode    string `yaml:"voice_mode"` // pro, max, kids
	UseRetrieval bool   `yaml:"use_retrieval"`
	Player       string `yaml:"player"` // audio player binary, empty = auto-detect
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:       ":8000",
			ClientDir:    "./client",
			Debug:        false,
			AllowedHosts: []string{"localhost", "127.0.0.1"},
		},

		Assistant: AssistantConfig{
			BaseURL: "http://localhost:8000",
		},

		Groq: GroqConfig{
			Model:   "llama-3.3-70b-versatile",
			BaseURL: "https://api.groq.com/openai/v1",
			Timeout: "60s",
		},

		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Endpoint: "http://localhost:11434",
			Model:    "nomic-embed-text",
		},

		Store: StoreConfig{
			Path: "rag_store/health_kb.db",
		},

		Knowledge: KnowledgeConfig{
			KBFile: "kb.json",
			MBFile: "mb.json",
		},

		Retrieval: RetrievalConfig{
			TopK: 4,
		},

		TTS: TTSConfig{
			LocalURL: "http://localhost:5050",
			Model:    "tts-1",
			Speed:    1.0,
			ElevenLabs: ElevenLabsConfig{
				BaseURL: "https://api.elevenlabs.io",
				Voices:  map[string]string{},
			},
		},

		Chat: ChatConfig{
			VoiceMode:    "pro",
			UseRetrieval: true,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file is not an
// error; defaults plus environment overrides are returned instead.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides. The names
// follow the deployment .env contract.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		c.Groq.APIKey = v
	}
	if v := os.Getenv("GROQ_MODEL"); v != "" {
		c.Groq.Model = v
	}
	if v := os.Getenv("GROQ_BASE_URL"); v != "" {
		c.Groq.BaseURL = v
	}

	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.Embedding.Endpoint = v
	}
	if v := os.Getenv("OLLAMA_EMBED_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}

	if v := os.Getenv("RAG_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("KB_FILE"); v != "" {
		c.Knowledge.KBFile = v
	}
	if v := os.Getenv("MB_FILE"); v != "" {
		c.Knowledge.MBFile = v
	}

	if v := os.Getenv("TTS_BASE_URL"); v != "" {
		c.TTS.LocalURL = v
	}
	if v := os.Getenv("TTS_MODEL"); v != "" {
		c.TTS.Model = v
	}
	if v := os.Getenv("ELEVENLABS_API_KEY"); v != "" {
		c.TTS.ElevenLabs.APIKey = v
	}
	for _, mode := range []string{"pro", "max", "kids"} {
		if v := os.Getenv("ELEVENLABS_VOICE_ID_" + strings.ToUpper(mode)); v != "" {
			if c.TTS.ElevenLabs.Voices == nil {
				c.TTS.ElevenLabs.Voices = map[string]string{}
			}
			c.TTS.ElevenLabs.Voices[mode] = v
		}
	}

	if v := os.Getenv("BAYMAX_SERVER"); v != "" {
		c.Assistant.BaseURL = v
	}
	if v := os.Getenv("DEBUG"); v != "" {
		c.Server.Debug = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("ALLOWED_HOSTS"); v != "" {
		hosts := strings.Split(v, ",")
		for i := range hosts {
			hosts[i] = strings.TrimSpace(hosts[i])
		}
		c.Server.AllowedHosts = hosts
	}
}

// GetGroqTimeout returns the completion client timeout as a duration.
func (c *Config) GetGroqTimeout() time.Duration {
	d, err := time.ParseDuration(c.Groq.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// ValidProviders lists the supported embedding providers.
var ValidProviders = []string{"ollama", "genai"}

// ValidVoiceModes lists the supported voice modes.
var ValidVoiceModes = []string{"pro", "max", "kids"}

// Validate checks structural validity shared by every command.
func (c *Config) Validate() error {
	validProvider := false
	for _, p := range ValidProviders {
		if c.Embedding.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid embedding provider: %s (valid: %v)", c.Embedding.Provider, ValidProviders)
	}

	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive, got %d", c.Retrieval.TopK)
	}

	if c.TTS.Speed <= 0 {
		return fmt.Errorf("tts speed must be positive, got %v", c.TTS.Speed)
	}

	if mode := c.Chat.VoiceMode; mode != "" {
		valid := false
		for _, m := range ValidVoiceModes {
			if mode == m {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid voice mode: %s (valid: %v)", mode, ValidVoiceModes)
		}
	}

	return nil
}

// ValidateServer adds the checks a running assistant service needs on
// top of Validate.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Groq.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is not set; provide it via environment or the groq.api_key config field")
	}
	return nil
}
