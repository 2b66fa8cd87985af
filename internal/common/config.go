package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Limits      LimitsConfig    `toml:"limits"`
	STT         STTConfig       `toml:"stt"`
	TTS         TTSConfig       `toml:"tts"`
	KB          KBConfig        `toml:"kb"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	LLM         LLMConfig       `toml:"llm"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Retention   RetentionConfig `toml:"retention"`
	Logging     LoggingConfig   `toml:"logging"`
	CORS        CORSConfig      `toml:"cors"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	OutputDir string       `toml:"output_dir"` // Per-job artifact directories live under here
	KB        KBStoreConfig `toml:"kb"`
}

// KBStoreConfig configures the local knowledge-base document store
type KBStoreConfig struct {
	Path           string `toml:"path"`             // Badger database directory path
	DocsDir        string `toml:"docs_dir"`         // Directory of markdown documents loaded on startup
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LimitsConfig struct {
	MaxUploadBytes int64  `toml:"max_upload_bytes"` // Upload ceiling for /agent/voice and /api/voice
	RequestTimeout string `toml:"request_timeout"`  // Outbound HTTP timeout as duration string
}

// STTConfig contains speech-to-text provider configuration.
// An empty BaseURL degrades the transcription gateway to its placeholder.
type STTConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

// TTSConfig contains text-to-speech provider configuration.
// An empty BaseURL degrades the synthesis gateway to the tone fallback.
type TTSConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Voice      string `toml:"voice"`
	S2SEnabled bool   `toml:"s2s_enabled"` // Enable silent-clip speech-to-speech fallback on TTS failure
}

// KBConfig contains the remote knowledge-base search service configuration.
// An empty BaseURL means retrieval uses only the local keyword store.
type KBConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for answer generation (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 1024)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "60s")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for answer generation (default: "gemini-2.0-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "60s")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls (default: "4s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig controls whether answers are LLM-augmented and which provider leads
type LLMConfig struct {
	Enabled         bool        `toml:"enabled"`          // Use LLM augmentation when building responses
	DefaultProvider LLMProvider `toml:"default_provider"` // Primary provider: "claude" or "gemini" (secondary is the other)
}

// PipelineConfig contains orchestration pipeline behavior settings
type PipelineConfig struct {
	DefaultTopK         int    `toml:"default_top_k"`        // Default retrieval depth when the caller omits top_k
	DefaultVoicePrompt  string `toml:"default_voice_prompt"` // Default TTS voice prompt
	StrictTranscription bool   `toml:"strict_transcription"` // Empty transcript from a configured STT backend fails the job
}

// RetentionConfig controls the cron-driven artifact retention sweeper
type RetentionConfig struct {
	Enabled  bool   `toml:"enabled"`  // Disabled by default - retention is opt-in
	Schedule string `toml:"schedule"` // Cron schedule format (default: hourly)
	MaxAge   string `toml:"max_age"`  // Job directories older than this are pruned
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// CORSConfig lists origins allowed to call the HTTP surface.
// Empty means allow all (local development).
type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// NewDefaultConfig creates a configuration with default values.
// Provider sections default to unconfigured so every gateway starts in its
// degraded fallback mode without credentials.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			OutputDir: "./data/jobs",
			KB: KBStoreConfig{
				Path:    "./data/kb",
				DocsDir: "./kb-docs",
			},
		},
		Limits: LimitsConfig{
			MaxUploadBytes: 20 * 1024 * 1024, // 20MB
			RequestTimeout: "60s",
		},
		STT: STTConfig{
			Model: "scribe_v1",
		},
		TTS: TTSConfig{
			Voice: "NATF2.pt",
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   1024,
			Timeout:     "60s",
			RateLimit:   "1s",
			Temperature: 0.2,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-2.0-flash",
			Timeout:     "60s",
			RateLimit:   "4s", // 15 RPM free tier
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			Enabled:         false,
			DefaultProvider: LLMProviderClaude,
		},
		Pipeline: PipelineConfig{
			DefaultTopK:         5,
			DefaultVoicePrompt:  "NATF2.pt",
			StrictTranscription: true,
		},
		Retention: RetentionConfig{
			Enabled:  false,
			Schedule: "0 * * * *", // Hourly
			MaxAge:   "168h",      // 7 days
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files override
// earlier ones. Priority system: CLI flags > Environment variables > Last
// config file > ... > First config file > Defaults
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LOQUOR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("LOQUOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LOQUOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if dir := os.Getenv("LOQUOR_OUTPUT_DIR"); dir != "" {
		config.Storage.OutputDir = dir
	}
	if path := os.Getenv("LOQUOR_KB_PATH"); path != "" {
		config.Storage.KB.Path = path
	}
	if dir := os.Getenv("LOQUOR_KB_DOCS_DIR"); dir != "" {
		config.Storage.KB.DocsDir = dir
	}

	// Limits
	if maxBytes := os.Getenv("LOQUOR_MAX_UPLOAD_BYTES"); maxBytes != "" {
		if mb, err := strconv.ParseInt(maxBytes, 10, 64); err == nil {
			config.Limits.MaxUploadBytes = mb
		}
	}
	if timeout := os.Getenv("LOQUOR_REQUEST_TIMEOUT"); timeout != "" {
		config.Limits.RequestTimeout = timeout
	}

	// Provider configuration
	if url := os.Getenv("LOQUOR_STT_BASE_URL"); url != "" {
		config.STT.BaseURL = url
	}
	if key := os.Getenv("LOQUOR_STT_API_KEY"); key != "" {
		config.STT.APIKey = key
	}
	if url := os.Getenv("LOQUOR_TTS_BASE_URL"); url != "" {
		config.TTS.BaseURL = url
	}
	if key := os.Getenv("LOQUOR_TTS_API_KEY"); key != "" {
		config.TTS.APIKey = key
	}
	if url := os.Getenv("LOQUOR_KB_BASE_URL"); url != "" {
		config.KB.BaseURL = url
	}
	if key := os.Getenv("LOQUOR_KB_API_KEY"); key != "" {
		config.KB.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("LOQUOR_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("LOQUOR_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}

	// LLM configuration
	if enabled := os.Getenv("LOQUOR_LLM_ENABLED"); enabled != "" {
		config.LLM.Enabled = enabled == "true" || enabled == "1"
	}
	if provider := os.Getenv("LOQUOR_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Pipeline configuration
	if strict := os.Getenv("LOQUOR_STRICT_TRANSCRIPTION"); strict != "" {
		config.Pipeline.StrictTranscription = strict == "true" || strict == "1"
	}

	// Logging configuration
	if level := os.Getenv("LOQUOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("LOQUOR_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// CORS configuration
	if origins := os.Getenv("LOQUOR_ALLOWED_ORIGINS"); origins != "" {
		allowed := []string{}
		for _, o := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				allowed = append(allowed, trimmed)
			}
		}
		config.CORS.AllowedOrigins = allowed
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// RequestTimeout returns the parsed outbound HTTP timeout with a safe default
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Limits.RequestTimeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}
