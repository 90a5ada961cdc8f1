// Package config loads builder configuration from a YAML file with
// environment variable overrides. Secrets are only read from the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/fwojciec/builder"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "builder.yaml"

// Config holds all builder configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Store    StoreConfig    `yaml:"store"`
	Preview  PreviewConfig  `yaml:"preview"`
	Export   ExportConfig   `yaml:"export"`
	Rules    RulesConfig    `yaml:"rules"`
	Log      LogConfig      `yaml:"log"`
}

// ProviderConfig selects the AI provider.
type ProviderConfig struct {
	// Name is one of anthropic, gemini or openai.
	Name  string `yaml:"name" env:"BUILDER_PROVIDER" env-default:"anthropic"`
	Model string `yaml:"model" env:"BUILDER_MODEL" env-default:""`
	// Batch requests whole responses instead of streams.
	Batch bool `yaml:"batch" env:"BUILDER_BATCH" env-default:"false"`
	// OpenAIBaseURL points the openai provider at a compatible server.
	OpenAIBaseURL string `yaml:"openai_base_url" env:"OPENAI_BASE_URL" env-default:""`

	AnthropicKey string `yaml:"-" env:"ANTHROPIC_API_KEY"`
	GeminiKey    string `yaml:"-" env:"GEMINI_API_KEY"`
	OpenAIKey    string `yaml:"-" env:"OPENAI_API_KEY"`
}

// APIKey returns the key of the selected provider.
func (c ProviderConfig) APIKey() string {
	switch c.Name {
	case "anthropic":
		return c.AnthropicKey
	case "gemini":
		return c.GeminiKey
	case "openai":
		return c.OpenAIKey
	}
	return ""
}

// StoreConfig selects the project store.
type StoreConfig struct {
	// Driver is json or postgres.
	Driver string `yaml:"driver" env:"BUILDER_STORE" env-default:"json"`
	Dir    string `yaml:"dir" env:"BUILDER_STORE_DIR" env-default:".builder"`
	DSN    string `yaml:"-" env:"BUILDER_DATABASE_URL"`
}

// PreviewConfig configures the preview channel and render surface.
type PreviewConfig struct {
	Addr string `yaml:"addr" env:"BUILDER_PREVIEW_ADDR" env-default:"127.0.0.1:8787"`
	// Backend is memory or redis.
	Backend        string        `yaml:"backend" env:"BUILDER_PREVIEW_BACKEND" env-default:"memory"`
	RedisAddr      string        `yaml:"redis_addr" env:"BUILDER_REDIS_ADDR" env-default:"127.0.0.1:6379"`
	RedisChannel   string        `yaml:"redis_channel" env:"BUILDER_REDIS_CHANNEL" env-default:"builder:preview"`
	PollInterval   time.Duration `yaml:"poll_interval" env:"BUILDER_PREVIEW_POLL" env-default:"1s"`
	HealthInterval time.Duration `yaml:"health_interval" env:"BUILDER_PREVIEW_HEALTH" env-default:"5s"`
	// SurfaceURL is the health endpoint of the render surface. Empty
	// disables monitoring.
	SurfaceURL     string   `yaml:"surface_url" env:"BUILDER_PREVIEW_URL" env-default:""`
	AllowedOrigins []string `yaml:"allowed_origins" env:"BUILDER_ALLOWED_ORIGINS" env-separator:","`
}

// ExportConfig configures archive uploads. Uploads are disabled while
// Bucket is empty.
type ExportConfig struct {
	Endpoint  string `yaml:"endpoint" env:"BUILDER_S3_ENDPOINT" env-default:""`
	Region    string `yaml:"region" env:"BUILDER_S3_REGION" env-default:"us-east-1"`
	Bucket    string `yaml:"bucket" env:"BUILDER_S3_BUCKET" env-default:""`
	UseSSL    bool   `yaml:"use_ssl" env:"BUILDER_S3_SSL" env-default:"true"`
	AccessKey string `yaml:"-" env:"BUILDER_S3_ACCESS_KEY"`
	SecretKey string `yaml:"-" env:"BUILDER_S3_SECRET_KEY"`
}

// RulesConfig points at an artifact classification table.
type RulesConfig struct {
	// Path of a YAML rules file. Empty uses the built-in table.
	Path string `yaml:"path" env:"BUILDER_RULES" env-default:""`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" env:"BUILDER_LOG_LEVEL" env-default:"info"`
	// File receives logs instead of stderr when set.
	File string `yaml:"file" env:"BUILDER_LOG_FILE" env-default:""`
}

// Load reads a .env file from the working directory if present, then the
// YAML file at path with environment overrides. A missing file at path
// leaves only environment variables and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config: read environment: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values and intervals.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "anthropic", "gemini", "openai":
	default:
		return fmt.Errorf("config: unknown provider %q: %w", c.Provider.Name, builder.ErrValidation)
	}
	switch c.Store.Driver {
	case "json":
		if c.Store.Dir == "" {
			return fmt.Errorf("config: store.dir must be set: %w", builder.ErrValidation)
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("config: BUILDER_DATABASE_URL must be set for the postgres store: %w", builder.ErrValidation)
		}
	default:
		return fmt.Errorf("config: unknown store driver %q: %w", c.Store.Driver, builder.ErrValidation)
	}
	switch c.Preview.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown preview backend %q: %w", c.Preview.Backend, builder.ErrValidation)
	}
	if c.Preview.PollInterval <= 0 || c.Preview.HealthInterval <= 0 {
		return fmt.Errorf("config: preview intervals must be positive: %w", builder.ErrValidation)
	}
	return nil
}
