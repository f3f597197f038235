package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Port        string `env:"PORT"        envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    slog.Level
	RawLogLevel string `env:"LOG_LEVEL"   envDefault:"info"`

	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"memory"`
	RedisURL       string        `env:"REDIS_URL"       envDefault:"redis://localhost:6379/0"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	SessionTTL     time.Duration `env:"SESSION_TTL"     envDefault:"24h"`
	EpisodesDir    string        `env:"EPISODES_DIR"    envDefault:"./data/episodes"`

	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"`
	DialogueModel   string        `env:"DIALOGUE_MODEL"   envDefault:"gpt-4o-mini"`
	ImageModel      string        `env:"IMAGE_MODEL"      envDefault:"dall-e-3"`
	VoiceModel      string        `env:"VOICE_MODEL"      envDefault:"tts-1"`
	TranscribeModel string        `env:"TRANSCRIBE_MODEL" envDefault:"whisper-1"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"20s"`
	ProviderRPS     float64       `env:"PROVIDER_RPS"     envDefault:"2"`

	CompanionName string `env:"COMPANION_NAME" envDefault:"Hae-In"`
	ContentRating string `env:"CONTENT_RATING" envDefault:"PG13"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.RawLogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (memory, redis or postgres)", c.StorageBackend)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.ProviderRPS <= 0 {
		return fmt.Errorf("PROVIDER_RPS must be positive")
	}
	return nil
}

// ProvidersEnabled reports whether the AI providers have credentials.
func (c *Config) ProvidersEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
