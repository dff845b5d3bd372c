package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoregate/config"
	"scoregate/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSetupStorageAdapters(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	cases := []struct {
		adapter string
		prepare func(cfg *config.Config)
	}{
		{adapter: "memory"},
		{adapter: "file", prepare: func(cfg *config.Config) {
			cfg.Storage.File.Path = filepath.Join(dir, "scores.json")
		}},
		{adapter: "redis", prepare: func(cfg *config.Config) {
			cfg.Storage.Redis.Addr = mr.Addr()
		}},
		{adapter: "sqlite", prepare: func(cfg *config.Config) {
			cfg.Storage.SQLite.Path = filepath.Join(dir, "scores.db")
		}},
	}

	for _, tc := range cases {
		t.Run(tc.adapter, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Storage.Adapter = tc.adapter
			if tc.prepare != nil {
				tc.prepare(cfg)
			}
			store, cleanup, err := setupStorage(context.Background(), cfg, discardLogger())
			require.NoError(t, err)
			defer cleanup()

			ctx := context.Background()
			require.NoError(t, store.Submit(ctx, core.ScoreEntry{Name: "ada", Score: 7}))
			entries, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "ada", entries[0].Name)
		})
	}
}

func TestSetupStorageUnknownAdapter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Adapter = "cassandra"
	_, _, err := setupStorage(context.Background(), cfg, discardLogger())
	if !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("bogus"))
}

func TestOptionalProviders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Events.Stream = false
	if provideHub(cfg) != nil {
		t.Fatalf("hub should be nil when streaming is disabled")
	}
	cfg.Events.Stream = true
	if provideHub(cfg) == nil {
		t.Fatalf("hub should be built when streaming is enabled")
	}

	verifier := provideVerifier(cfg, discardLogger())
	if provideRelay(cfg, verifier, discardLogger()) != nil {
		t.Fatalf("relay should be nil without endpoints")
	}
	cfg.Events.RelayEndpoints = []string{"http://127.0.0.1:1/hook"}
	relay := provideRelay(cfg, verifier, discardLogger())
	require.NotNil(t, relay)
	assert.Equal(t, cfg.Events.RelayEndpoints, relay.Endpoints())
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}
