package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Storage backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config carries everything the console client needs to run.
type Config struct {
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" required:"true"`
	StoryModel   string `envconfig:"STORY_MODEL" default:"gemini-3-pro-preview"`
	ImageModel   string `envconfig:"IMAGE_MODEL" default:"gemini-2.5-flash-image"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"`
	DataDir        string `envconfig:"DATA_DIR" default:".mestre"`
	RedisAddr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevelRaw string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.StorageBackend != BackendFile && cfg.StorageBackend != BackendRedis {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	return &cfg, nil
}

// LogLevel returns the parsed slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.LogLevelRaw) {
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
