package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrSecretNotFound is returned when a secret has no value in the store.
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore resolves secrets by name.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, def string) string
}

// EnvironmentSecretStore reads secrets from the process environment. KEY_FILE
// naming a readable file takes precedence over KEY, for mounted secrets.
type EnvironmentSecretStore struct{}

func NewEnvironmentSecretStore() *EnvironmentSecretStore { return &EnvironmentSecretStore{} }

func (EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	if path := os.Getenv(key + "_FILE"); path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - operator supplied path
		if err != nil {
			return "", fmt.Errorf("read secret file for %s: %w", key, err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
}

func (s EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, def string) string {
	v, err := s.Get(ctx, key)
	if err != nil {
		return def
	}
	return v
}

// LoadSecrets fills secret fields the config does not already carry.
// A missing webhook secret is not an error: the gateway runs in open mode.
func LoadSecrets(ctx context.Context, cfg *Config, store SecretStore) error {
	if cfg.Webhook.Secret != "" {
		return nil
	}
	if cfg.Webhook.SecretFile != "" {
		data, err := os.ReadFile(cfg.Webhook.SecretFile) // #nosec G304 - operator supplied path
		if err != nil {
			return fmt.Errorf("read webhook secret file: %w", err)
		}
		cfg.Webhook.Secret = strings.TrimRight(string(data), "\r\n")
		return nil
	}
	v, err := store.Get(ctx, "WEBHOOK_SECRET")
	switch {
	case err == nil:
		cfg.Webhook.Secret = v
	case errors.Is(err, ErrSecretNotFound):
	default:
		return err
	}
	return nil
}
