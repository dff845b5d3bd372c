package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"scoregate"
	"scoregate/adapters/jsonfile"
	mem "scoregate/adapters/memory"
	redisAdapter "scoregate/adapters/redis"
	sqliteAdapter "scoregate/adapters/sqlite"
	"scoregate/analytics"
	"scoregate/api/httpapi"
	"scoregate/config"
	"scoregate/core"
	"scoregate/engine"
	"scoregate/integrations/webhook"
	"scoregate/realtime"
	"scoregate/signature"
	"scoregate/token"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Service *engine.Service
	Handler http.Handler
	Server  *http.Server
}

// loadDotEnv reads .env into the process environment. Variables already
// set win; a missing file is not an error.
func loadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := os.Getenv("SCOREGATE_CONFIG_FILE"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := config.LoadSecrets(ctx, cfg, config.NewEnvironmentSecretStore()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

// provideHub returns nil when the event stream is disabled.
func provideHub(cfg *config.Config) *realtime.Hub {
	if !cfg.Events.Stream {
		return nil
	}
	return realtime.NewHub()
}

func provideCounters() *analytics.Counters {
	return analytics.NewCounters()
}

func provideVerifier(cfg *config.Config, logger *slog.Logger) *signature.Verifier {
	v := signature.New(cfg.Webhook.Secret)
	if !v.Enabled() {
		logger.Warn("WEBHOOK_SECRET not set: webhook signatures are not verified")
	}
	return v
}

func provideIssuer() *token.Issuer {
	return token.NewIssuer()
}

func provideStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (engine.ScoreStore, func(), error) {
	return setupStorage(ctx, cfg, logger)
}

// provideRelay returns nil when no relay endpoints are configured.
func provideRelay(cfg *config.Config, verifier *signature.Verifier, logger *slog.Logger) *webhook.Sink {
	if len(cfg.Events.RelayEndpoints) == 0 {
		return nil
	}
	return webhook.New(cfg.Events.RelayEndpoints,
		webhook.WithClient(&http.Client{Timeout: cfg.Events.RelayTimeout}),
		webhook.WithSigner(verifier),
		webhook.WithLogger(logger.With("component", "relay")),
	)
}

func provideService(cfg *config.Config, store engine.ScoreStore, hub *realtime.Hub, counters *analytics.Counters, relay *webhook.Sink) (*engine.Service, func()) {
	mode := engine.DispatchSync
	if cfg.Events.Dispatch == "async" {
		mode = engine.DispatchAsync
	}
	opts := []scoregate.Option{
		scoregate.WithStore(store),
		scoregate.WithNameLimit(cfg.Leaderboard.NameLimit),
		scoregate.WithDispatchMode(mode),
		scoregate.WithHooks(counters),
	}
	if hub != nil {
		opts = append(opts, scoregate.WithRealtime(hub))
	}
	if relay != nil {
		opts = append(opts, scoregate.WithRelay(relay))
	}
	svc := scoregate.New(opts...)
	return svc, svc.Close
}

func provideHandler(cfg *config.Config, logger *slog.Logger, svc *engine.Service, issuer *token.Issuer, verifier *signature.Verifier, hub *realtime.Hub, counters *analytics.Counters) http.Handler {
	return httpapi.NewMux(svc, issuer, verifier, hub, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
		RateLimitCleanup: cfg.Security.RateLimit.CleanupInterval,
		AppID:            cfg.Integration.AppID,
		PrivateKeyPath:   cfg.Integration.PrivateKeyPath,
		MaxWebhookBytes:  cfg.Server.MaxWebhookBytes,
		Logger:           logger.With("component", "http"),
		Stats:            counters,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	var out io.Writer = os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(_ context.Context, cfg *config.Config, logger *slog.Logger) (engine.ScoreStore, func(), error) {
	capacity := cfg.Leaderboard.Capacity
	noop := func() {}
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(capacity), noop, nil
	case "file":
		s, err := jsonfile.New(cfg.Storage.File.Path, capacity, jsonfile.WithLogger(logger.With("component", "store")))
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "redis":
		s, err := redisAdapter.New(cfg.Storage.Redis, capacity)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "sqlite":
		s, err := sqliteAdapter.New(cfg.Storage.SQLite.Path, capacity)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown storage adapter: %s", core.ErrConfiguration, cfg.Storage.Adapter)
	}
}
