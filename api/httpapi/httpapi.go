package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	wsadapter "scoregate/adapters/websocket"
	"scoregate/analytics"
	"scoregate/engine"
	"scoregate/realtime"
	"scoregate/signature"
	"scoregate/token"
)

const (
	defaultMaxWebhookBytes = 25 << 20
	maxSubmitBytes         = 1 << 20
)

// StatsReporter supplies the document served at /stats.
type StatsReporter interface {
	Snapshot() analytics.Snapshot
}

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	// The webhook, index and health routes stay open.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
	// RateLimitCleanup is how long an idle client keeps its limiter.
	RateLimitCleanup time.Duration

	// AppID and PrivateKeyPath are resolved on every credential request.
	AppID          string
	PrivateKeyPath string

	// MaxWebhookBytes bounds webhook bodies; larger deliveries get 413.
	MaxWebhookBytes int64

	Logger *slog.Logger
	Stats  StatsReporter
}

type api struct {
	svc      *engine.Service
	issuer   *token.Issuer
	verifier *signature.Verifier
	opts     Options
	logger   *slog.Logger
}

// NewMux builds an http.Handler exposing the gateway.
// Routes:
//   - GET  {prefix}/
//   - POST {prefix}/webhook
//   - GET  {prefix}/jwt
//   - POST {prefix}/submit_score
//   - GET  {prefix}/scores
//   - GET  {prefix}/healthz
//   - GET  {prefix}/stats
//   - WS   {prefix}/events
func NewMux(svc *engine.Service, issuer *token.Issuer, verifier *signature.Verifier, hub *realtime.Hub, opts Options) http.Handler {
	if issuer == nil {
		issuer = token.NewIssuer()
	}
	if verifier == nil {
		verifier = signature.New("")
	}
	if opts.MaxWebhookBytes <= 0 {
		opts.MaxWebhookBytes = defaultMaxWebhookBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &api{svc: svc, issuer: issuer, verifier: verifier, opts: opts, logger: logger}

	mux := http.NewServeMux()
	p := opts.PathPrefix
	mux.HandleFunc("GET "+withPrefix(p, "/{$}"), a.handleIndex)
	mux.HandleFunc("POST "+withPrefix(p, "/webhook"), a.handleWebhook)
	mux.HandleFunc("GET "+withPrefix(p, "/jwt"), a.handleJWT)
	mux.HandleFunc("POST "+withPrefix(p, "/submit_score"), a.handleSubmit)
	mux.HandleFunc("GET "+withPrefix(p, "/scores"), a.handleScores)
	mux.HandleFunc("GET "+withPrefix(p, "/healthz"), a.handleHealth)
	if opts.Stats != nil {
		mux.HandleFunc("GET "+withPrefix(p, "/stats"), a.handleStats)
	}

	// WebSocket events
	if hub != nil {
		mux.Handle("GET "+withPrefix(p, "/events"), wsadapter.Handler(hub, logger))
	}

	var handler http.Handler = mux
	if len(opts.APIKeys) > 0 {
		open := []string{withPrefix(p, "/"), withPrefix(p, "/webhook"), withPrefix(p, "/healthz")}
		handler = withAPIKeyAuth(handler, opts.APIKeys, open)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, newRateLimiter(opts.RateLimitRPM, opts.RateLimitBurst, opts.RateLimitCleanup))
	}
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	handler = withAccessLog(handler, logger)
	handler = withRequestID(handler)
	handler = withRecovery(handler, logger)
	return handler
}

func withPrefix(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix[:len(prefix)-1] + path
	}
	return prefix + path
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError always emits {"error": msg}; extra carries optional sibling fields.
func writeError(w http.ResponseWriter, status int, msg string, extra map[string]any) {
	body := map[string]any{"error": msg}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}
