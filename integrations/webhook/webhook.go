package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"scoregate/core"
	"scoregate/signature"
)

const (
	HeaderEvent    = "X-GitHub-Event"
	HeaderDelivery = "X-GitHub-Delivery"
)

// Sink relays accepted webhook deliveries to configured HTTP endpoints.
// It is synchronous for determinism; subscribe it to an async bus to keep
// the request path fast.
type Sink struct {
	client    *http.Client
	endpoints []string
	signer    *signature.Verifier
	logger    *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// WithSigner re-signs forwarded bodies so receivers can verify them with
// the same shared secret.
func WithSigner(v *signature.Verifier) Option {
	return func(s *Sink) { s.signer = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: 2 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

// Endpoints returns a copy of the relay targets.
func (s *Sink) Endpoints() []string { return append([]string{}, s.endpoints...) }

// OnEvent forwards webhook_received events to every endpoint. Other event
// types are ignored. Failures are logged per endpoint and never retried.
func (s *Sink) OnEvent(ctx context.Context, e core.Event) {
	if len(s.endpoints) == 0 || e.Type != core.EventWebhookReceived {
		return
	}
	body, contentType, err := relayBody(e)
	if err != nil {
		s.logger.Warn("relay: encode event", "error", err)
		return
	}
	deliveryID := e.DeliveryID
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	for _, ep := range s.endpoints {
		if err := s.post(ctx, ep, body, contentType, e.Source, deliveryID); err != nil {
			s.logger.Warn("relay failed", "endpoint", ep, "event", e.Source, "delivery", deliveryID, "error", err)
			continue
		}
		s.logger.Debug("relayed delivery", "endpoint", ep, "event", e.Source, "delivery", deliveryID)
	}
}

func relayBody(e core.Event) ([]byte, string, error) {
	if len(e.Raw) > 0 {
		ct := e.ContentType
		if ct == "" {
			ct = "application/json"
		}
		return e.Raw, ct, nil
	}
	body, err := json.Marshal(e)
	return body, "application/json", err
}

func (s *Sink) post(ctx context.Context, endpoint string, body []byte, contentType, eventType, deliveryID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	if eventType != "" {
		req.Header.Set(HeaderEvent, eventType)
	}
	req.Header.Set(HeaderDelivery, deliveryID)
	if s.signer.Enabled() {
		req.Header.Set(signature.Header, s.signer.Sign(body))
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
