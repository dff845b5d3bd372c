package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

var (
	validAdapters   = []string{"file", "memory", "redis", "sqlite"}
	validDispatch   = []string{"sync", "async"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "text"}
	validLogOutputs = []string{"stdout", "stderr"}
)

func joinErrs(errs []string) error {
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	var errs []string

	if s.Address == "" {
		errs = append(errs, "address cannot be empty")
	}

	if s.PathPrefix != "" && (!strings.HasPrefix(s.PathPrefix, "/") || strings.HasSuffix(s.PathPrefix, "/")) {
		errs = append(errs, "path_prefix must start with '/' and not end with '/'")
	}

	if s.MaxWebhookBytes <= 0 {
		errs = append(errs, "max_webhook_bytes must be positive")
	}

	if s.ReadTimeout <= 0 {
		errs = append(errs, "read_timeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		errs = append(errs, "write_timeout must be positive")
	}

	if s.IdleTimeout <= 0 {
		errs = append(errs, "idle_timeout must be positive")
	}

	if s.ReadHeaderTimeout <= 0 {
		errs = append(errs, "read_header_timeout must be positive")
	}

	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown_timeout must be positive")
	}

	return joinErrs(errs)
}

func (i *IntegrationConfig) Validate() error {
	if strings.TrimSpace(i.PrivateKeyPath) == "" {
		return errors.New("private_key_path cannot be empty")
	}
	return nil
}

func (l *LeaderboardConfig) Validate() error {
	var errs []string
	if l.Capacity <= 0 {
		errs = append(errs, "capacity must be positive")
	}
	if l.NameLimit <= 0 {
		errs = append(errs, "name_limit must be positive")
	}
	return joinErrs(errs)
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	var errs []string

	if !lo.Contains(validAdapters, s.Adapter) {
		errs = append(errs, fmt.Sprintf("adapter must be one of: %s", strings.Join(validAdapters, ", ")))
	}

	// Validate adapter-specific configs
	switch s.Adapter {
	case "file":
		if err := s.File.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("file config: %v", err))
		}
	case "redis":
		if s.Redis.Addr == "" {
			errs = append(errs, "redis config: addr cannot be empty")
		}
	case "sqlite":
		if s.SQLite.Path == "" {
			errs = append(errs, "sqlite config: path cannot be empty")
		}
	}

	return joinErrs(errs)
}

// Validate validates file storage configuration
func (f *FileConfig) Validate() error {
	if f.Path == "" {
		return errors.New("path cannot be empty")
	}
	return nil
}

func (e *EventsConfig) Validate() error {
	var errs []string
	if !lo.Contains(validDispatch, e.Dispatch) {
		errs = append(errs, fmt.Sprintf("dispatch must be one of: %s", strings.Join(validDispatch, ", ")))
	}
	for i, ep := range e.RelayEndpoints {
		if !strings.HasPrefix(ep, "http://") && !strings.HasPrefix(ep, "https://") {
			errs = append(errs, fmt.Sprintf("relay_endpoints[%d] must be an http(s) URL", i))
		}
	}
	if len(e.RelayEndpoints) > 0 && e.RelayTimeout <= 0 {
		errs = append(errs, "relay_timeout must be positive when relay endpoints are set")
	}
	return joinErrs(errs)
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	var errs []string

	if !lo.Contains(validLogLevels, l.Level) {
		errs = append(errs, fmt.Sprintf("level must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	if !lo.Contains(validLogFormats, l.Format) {
		errs = append(errs, fmt.Sprintf("format must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if !lo.Contains(validLogOutputs, l.Output) {
		errs = append(errs, fmt.Sprintf("output must be one of: %s", strings.Join(validLogOutputs, ", ")))
	}

	return joinErrs(errs)
}

// Validate validates security settings.
func (s SecurityConfig) Validate() error {
	var errs []string
	if s.EnableRateLimit {
		if s.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, "rate_limit.requests_per_minute must be > 0 when rate limiting is enabled")
		}
		if s.RateLimit.BurstSize <= 0 {
			errs = append(errs, "rate_limit.burst_size must be > 0 when rate limiting is enabled")
		}
	}
	for i, key := range s.APIKeys {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Sprintf("api_keys[%d] is empty", i))
		}
	}
	return joinErrs(errs)
}
