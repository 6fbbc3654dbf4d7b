package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	Storage   StorageConfig
	Popup     PopupConfig
	Render    RenderConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds background HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// GeminiConfig holds remote summarization endpoint configuration.
type GeminiConfig struct {
	BaseURL   string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	Timeout   time.Duration `envconfig:"GEMINI_TIMEOUT" default:"60s"`
	RateLimit float64       `envconfig:"GEMINI_RATE_LIMIT" default:"0"`
}

// StorageConfig holds durable key/value store configuration.
type StorageConfig struct {
	Driver      string `envconfig:"STORAGE_DRIVER" default:"sqlite"`
	Path        string `envconfig:"STORAGE_PATH" default:"/tmp/pagebrief/storage.db"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPrefix string `envconfig:"REDIS_PREFIX" default:"pagebrief"`
}

// PopupConfig holds UI-context configuration.
type PopupConfig struct {
	BackgroundURL string `envconfig:"BACKGROUND_URL" default:""`
	HostFlavor    string `envconfig:"HOST_FLAVOR" default:"chrome"`
}

// RenderConfig holds summary rendering configuration.
type RenderConfig struct {
	Policy string `envconfig:"RENDER_POLICY" default:"denylist"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Timeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			Driver:      "sqlite",
			Path:        "/tmp/pagebrief/storage.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "pagebrief",
		},
		Popup: PopupConfig{
			HostFlavor: "chrome",
		},
		Render: RenderConfig{
			Policy: "denylist",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
