// Package config loads settings from an optional TOML file and the environment.
// Environment variables always win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults for the background jobs
const (
	DefaultMissedSweepCron = "5 0 * * *"
	DefaultRateLimit       = "5-S"
)

// Config holds application configuration
type Config struct {
	DatabaseURL    string `toml:"database_url"`
	UseMockStorage bool   `toml:"use_mock_storage"`

	ServerPort  string `toml:"server_port"`
	BaseURL     string `toml:"base_url"`
	FrontendURL string `toml:"frontend_url"`
	EnableHSTS  bool   `toml:"enable_hsts"`
	RateLimit   string `toml:"rate_limit"`

	OpenAIKey     string `toml:"openai_api_key"`
	AIProvider    string `toml:"ai_provider"`
	AIModel       string `toml:"ai_model"`
	AIBaseURL     string `toml:"ai_base_url"`
	AITemperature string `toml:"ai_temperature"` // empty leaves the model default
	AIMaxTokens   int    `toml:"ai_max_tokens"`

	OIDCIssuer   string `toml:"oidc_issuer"`
	OIDCJWKSURL  string `toml:"oidc_jwks_url"`
	OIDCAudience string `toml:"oidc_audience"`

	RedisURL         string `toml:"redis_url"`
	RabbitMQURL      string `toml:"rabbitmq_url"`
	RabbitMQPrefetch int    `toml:"rabbitmq_prefetch"`

	MissedSweepCron string `toml:"missed_sweep_cron"`
	SweepTimezone   string `toml:"sweep_timezone"`

	WorkerDebugMode bool `toml:"worker_debug_mode"`
	ServerDebugMode bool `toml:"server_debug_mode"`

	OTELEnabled     bool   `toml:"otel_enabled"`
	OTELEndpoint    string `toml:"otel_endpoint"`
	OTELServiceName string `toml:"otel_service_name"`
}

// Default returns the configuration used when neither file nor environment set a value
func Default() *Config {
	return &Config{
		ServerPort:       "8080",
		BaseURL:          "http://localhost:8080",
		FrontendURL:      "http://localhost:3000",
		RateLimit:        DefaultRateLimit,
		AIProvider:       "openai",
		RedisURL:         "redis://localhost:6379/0",
		RabbitMQPrefetch: 1,
		MissedSweepCron:  DefaultMissedSweepCron,
		SweepTimezone:    "UTC",
		OTELServiceName:  "study-planner-api",
	}
}

// Load reads CONFIG_FILE (when set), applies environment overrides and validates the result
// for the API server
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWorker is Load plus the worker's requirement of a RabbitMQ broker
func LoadWorker() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateWorker(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnvalidated layers file and environment without validating, for tools that read only a
// few settings
func LoadUnvalidated() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the TOML file onto cfg. An explicitly named file must exist.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("failed to parse config file %s at %d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.ServerPort, "SERVER_PORT")
	setString(&cfg.BaseURL, "BASE_URL")
	setString(&cfg.FrontendURL, "FRONTEND_URL")
	setString(&cfg.RateLimit, "RATE_LIMIT")
	setString(&cfg.OpenAIKey, "OPENAI_API_KEY")
	setString(&cfg.AIProvider, "AI_PROVIDER")
	setString(&cfg.AIModel, "AI_MODEL")
	setString(&cfg.AIBaseURL, "AI_BASE_URL")
	setString(&cfg.AITemperature, "AI_TEMPERATURE")
	setString(&cfg.OIDCIssuer, "OIDC_ISSUER")
	setString(&cfg.OIDCJWKSURL, "OIDC_JWKS_URL")
	setString(&cfg.OIDCAudience, "OIDC_AUDIENCE")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.RabbitMQURL, "RABBITMQ_URL")
	setString(&cfg.MissedSweepCron, "MISSED_SWEEP_CRON")
	setString(&cfg.SweepTimezone, "SWEEP_TIMEZONE")
	setString(&cfg.OTELEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTELServiceName, "OTEL_SERVICE_NAME")

	setBool(&cfg.EnableHSTS, "ENABLE_HSTS")
	setBool(&cfg.WorkerDebugMode, "WORKER_DEBUG_MODE")
	setBool(&cfg.ServerDebugMode, "SERVER_DEBUG_MODE")
	setBool(&cfg.OTELEnabled, "OTEL_ENABLED")
	// NEXT_PUBLIC_USE_MOCK_SUPABASE is the variable the web client already sets
	setBool(&cfg.UseMockStorage, "NEXT_PUBLIC_USE_MOCK_SUPABASE")
	setBool(&cfg.UseMockStorage, "USE_MOCK_STORAGE")

	if err := setInt(&cfg.RabbitMQPrefetch, "RABBITMQ_PREFETCH"); err != nil {
		return err
	}
	return setInt(&cfg.AIMaxTokens, "AI_MAX_TOKENS")
}

// Validate checks the settings the API server needs
func (c *Config) Validate() error {
	if !c.UseMockStorage && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required unless USE_MOCK_STORAGE is set")
	}
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT must not be empty")
	}
	if c.RabbitMQPrefetch < 1 {
		return fmt.Errorf("RABBITMQ_PREFETCH must be at least 1, got %d", c.RabbitMQPrefetch)
	}
	if c.AITemperature != "" {
		t, err := strconv.ParseFloat(c.AITemperature, 64)
		if err != nil {
			return fmt.Errorf("AI_TEMPERATURE must be a number: %w", err)
		}
		if t < 0 || t > 2 {
			return fmt.Errorf("AI_TEMPERATURE must be between 0 and 2, got %v", t)
		}
	}
	if c.AIMaxTokens < 0 {
		return fmt.Errorf("AI_MAX_TOKENS must not be negative")
	}
	if _, err := time.LoadLocation(c.SweepTimezone); err != nil {
		return fmt.Errorf("SWEEP_TIMEZONE %q is not a valid timezone: %w", c.SweepTimezone, err)
	}
	return nil
}

// ValidateWorker checks the settings the background worker needs
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for the worker")
	}
	return nil
}

// SweepLocation returns the timezone the missed-schedule sweep computes "today" in
func (c *Config) SweepLocation() *time.Location {
	loc, err := time.LoadLocation(c.SweepTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AuthMode reports how bearer tokens are resolved: "dev" in mock mode without an issuer,
// otherwise "jwt"
func (c *Config) AuthMode() string {
	if c.UseMockStorage && c.OIDCJWKSURL == "" {
		return "dev"
	}
	return "jwt"
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setBool(dst *bool, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value == "true" || value == "1" || value == "yes"
	}
}

func setInt(dst *int, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}
