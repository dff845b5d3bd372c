package config

import (
	"fmt"
	"time"

	"scoregate/core"
)

// LoadProfile starts from a named profile, then applies environment
// overrides and validation like Load.
func LoadProfile(name string) (*Config, error) {
	cfg, err := profile(name)
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

func profile(name string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Profile = name
	switch name {
	case "development":
		cfg.Environment = EnvDevelopment
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	case "testing":
		cfg.Environment = EnvTesting
		cfg.Storage.Adapter = "memory"
		cfg.Logging.Level = "warn"
		cfg.Events.Stream = false
	case "staging":
		cfg.Environment = EnvStaging
		cfg.Events.Dispatch = "async"
		cfg.Security.EnableRateLimit = true
	case "production":
		cfg.Environment = EnvProduction
		cfg.Server.CORSOrigin = ""
		cfg.Server.ReadTimeout = 15 * time.Second
		cfg.Server.WriteTimeout = 15 * time.Second
		cfg.Events.Dispatch = "async"
		cfg.Security.EnableRateLimit = true
		cfg.Security.RateLimit.RequestsPerMinute = 120
		cfg.Security.RateLimit.BurstSize = 20
	default:
		return nil, fmt.Errorf("%w: unknown profile %q", core.ErrConfiguration, name)
	}
	return cfg, nil
}
