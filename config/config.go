package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scoregate/adapters/redis"
	"scoregate/core"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

const (
	DefaultPrivateKeyPath  = "secrets/app-private-key.pem"
	DefaultScoresPath      = "high_scores.json"
	DefaultMaxWebhookBytes = 25 << 20
)

// Config holds the complete application configuration
type Config struct {
	// Environment and profile settings
	Environment Environment `json:"environment" env:"SCOREGATE_ENV"`
	Profile     string      `json:"profile" env:"SCOREGATE_PROFILE"`

	// Server configuration
	Server ServerConfig `json:"server"`

	// Platform credential issuance
	Integration IntegrationConfig `json:"integration"`

	// Inbound delivery verification
	Webhook WebhookConfig `json:"webhook"`

	Leaderboard LeaderboardConfig `json:"leaderboard"`

	// Storage configuration
	Storage StorageConfig `json:"storage"`

	// Event dispatch and relay of accepted deliveries
	Events EventsConfig `json:"events"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Security configuration
	Security SecurityConfig `json:"security"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address           string        `json:"address" env:"SCOREGATE_SERVER_ADDR"`
	PathPrefix        string        `json:"path_prefix" env:"SCOREGATE_SERVER_PATH_PREFIX"`
	CORSOrigin        string        `json:"cors_origin" env:"SCOREGATE_SERVER_CORS_ORIGIN"`
	MaxWebhookBytes   int64         `json:"max_webhook_bytes" env:"SCOREGATE_SERVER_MAX_WEBHOOK_BYTES"`
	ReadTimeout       time.Duration `json:"read_timeout" env:"SCOREGATE_SERVER_READ_TIMEOUT"`
	WriteTimeout      time.Duration `json:"write_timeout" env:"SCOREGATE_SERVER_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `json:"idle_timeout" env:"SCOREGATE_SERVER_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" env:"SCOREGATE_SERVER_READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" env:"SCOREGATE_SERVER_SHUTDOWN_TIMEOUT"`
}

// IntegrationConfig identifies the platform app. AppID stays a string so a
// bad value surfaces at credential request time rather than at startup.
type IntegrationConfig struct {
	AppID          string `json:"app_id" env:"GITHUB_APP_ID"`
	PrivateKeyPath string `json:"private_key_path" env:"GITHUB_PRIVATE_KEY_PATH"`
}

// WebhookConfig holds the shared secret. An empty secret accepts every delivery.
type WebhookConfig struct {
	Secret     string `json:"secret,omitempty" env:"WEBHOOK_SECRET"`
	SecretFile string `json:"secret_file,omitempty" env:"WEBHOOK_SECRET_FILE"`
}

type LeaderboardConfig struct {
	Capacity  int `json:"capacity" env:"SCOREGATE_LEADERBOARD_CAPACITY"`
	NameLimit int `json:"name_limit" env:"SCOREGATE_LEADERBOARD_NAME_LIMIT"`
}

// StorageConfig holds storage adapter configuration
type StorageConfig struct {
	Adapter string       `json:"adapter" env:"SCOREGATE_STORAGE_ADAPTER"`
	File    FileConfig   `json:"file,omitempty"`
	Redis   redis.Config `json:"redis,omitempty"`
	SQLite  SQLiteConfig `json:"sqlite,omitempty"`
}

// FileConfig holds JSON file storage configuration
type FileConfig struct {
	Path string `json:"path" env:"SCOREGATE_STORAGE_FILE_PATH"`
}

type SQLiteConfig struct {
	Path string `json:"path" env:"SCOREGATE_STORAGE_SQLITE_PATH"`
}

// EventsConfig controls how accepted deliveries reach downstream collaborators.
type EventsConfig struct {
	Dispatch       string        `json:"dispatch" env:"SCOREGATE_EVENTS_DISPATCH"`
	Stream         bool          `json:"stream" env:"SCOREGATE_EVENTS_STREAM"`
	RelayEndpoints []string      `json:"relay_endpoints,omitempty" env:"SCOREGATE_RELAY_ENDPOINTS"`
	RelayTimeout   time.Duration `json:"relay_timeout" env:"SCOREGATE_RELAY_TIMEOUT"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string            `json:"level" env:"SCOREGATE_LOG_LEVEL"`
	Format     string            `json:"format" env:"SCOREGATE_LOG_FORMAT"`
	Output     string            `json:"output" env:"SCOREGATE_LOG_OUTPUT"`
	Attributes map[string]string `json:"attributes,omitempty" env:"SCOREGATE_LOG_ATTRIBUTES"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	EnableRateLimit bool            `json:"enable_rate_limit" env:"SCOREGATE_SECURITY_RATE_LIMIT_ENABLED"`
	RateLimit       RateLimitConfig `json:"rate_limit,omitempty"`
	APIKeys         []string        `json:"api_keys,omitempty" env:"SCOREGATE_SECURITY_API_KEYS"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute" env:"SCOREGATE_SECURITY_RATE_LIMIT_RPM"`
	BurstSize         int           `json:"burst_size" env:"SCOREGATE_SECURITY_RATE_LIMIT_BURST"`
	CleanupInterval   time.Duration `json:"cleanup_interval" env:"SCOREGATE_SECURITY_RATE_LIMIT_CLEANUP"`
}

// Load loads configuration from environment variables and validates it.
// SCOREGATE_PROFILE selects the starting profile; defaults apply otherwise.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if name := os.Getenv("SCOREGATE_PROFILE"); name != "" {
		p, err := profile(name)
		if err != nil {
			return nil, err
		}
		cfg = p
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	// Load from environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to load config from environment: %w", core.ErrConfiguration, err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid configuration: %w", core.ErrConfiguration, err)
	}

	return cfg, nil
}

// validateConfigPath validates that the config file path is safe
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	if !strings.HasSuffix(strings.ToLower(cleanPath), ".json") {
		return errors.New("config file must have .json extension")
	}

	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(path string) (*Config, error) {
	// Validate the path for security
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	file, err := os.Open(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Environment variables override file values
	return finish(cfg)
}

// DefaultConfig returns a configuration with sensible defaults for development
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Profile:     "default",
		Server: ServerConfig{
			Address:           ":8080",
			PathPrefix:        "",
			CORSOrigin:        "*",
			MaxWebhookBytes:   DefaultMaxWebhookBytes,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Integration: IntegrationConfig{
			PrivateKeyPath: DefaultPrivateKeyPath,
		},
		Leaderboard: LeaderboardConfig{
			Capacity:  core.DefaultCapacity,
			NameLimit: core.DefaultNameLimit,
		},
		Storage: StorageConfig{
			Adapter: "file",
			File:    FileConfig{Path: DefaultScoresPath},
			Redis:   redis.DefaultConfig(),
			SQLite:  SQLiteConfig{Path: "./data/scoregate.db"},
		},
		Events: EventsConfig{
			Dispatch:     "sync",
			Stream:       true,
			RelayTimeout: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			EnableRateLimit: false,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				BurstSize:         10,
				CleanupInterval:   5 * time.Minute,
			},
			APIKeys: []string{},
		},
	}
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errs []string

	// Validate environment
	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}

	// Validate server config
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Integration.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("integration config: %v", err))
	}

	if err := c.Leaderboard.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("leaderboard config: %v", err))
	}

	// Validate storage config
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if err := c.Events.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("events config: %v", err))
	}

	// Validate logging config
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	// Validate security config
	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

const redacted = "[REDACTED]"

// String returns a JSON representation of the config (with secrets redacted)
func (c *Config) String() string {
	// Create a copy for redaction
	cfg := *c

	if cfg.Webhook.Secret != "" {
		cfg.Webhook.Secret = redacted
	}
	if cfg.Storage.Redis.Password != "" {
		cfg.Storage.Redis.Password = redacted
	}
	if len(cfg.Security.APIKeys) > 0 {
		keys := make([]string, len(cfg.Security.APIKeys))
		for i := range keys {
			keys[i] = redacted
		}
		cfg.Security.APIKeys = keys
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
