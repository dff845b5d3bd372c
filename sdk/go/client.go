package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"scoregate/core"
	"scoregate/signature"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the scoregate HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
	signer     *signature.Verifier
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// WithWebhookSecret signs deliveries sent through Deliver.
func WithWebhookSecret(secret string) Option {
	return func(c *Client) { c.signer = signature.New(secret) }
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.applyHeaders(req)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

// SubmitScore posts a score. The server coerces and truncates the name.
func (c *Client) SubmitScore(ctx context.Context, name string, score int64) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	body, err := json.Marshal(ScoreEntry{Name: name, Score: score})
	if err != nil {
		return err
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodPost, "/submit_score", body, "application/json", &out); err != nil {
		return err
	}
	if !out.OK {
		return errors.New("score not accepted")
	}
	return nil
}

// Scores fetches the leaderboard, highest first.
func (c *Client) Scores(ctx context.Context) ([]ScoreEntry, error) {
	var out []ScoreEntry
	if err := c.do(ctx, http.MethodGet, "/scores", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Token requests a freshly minted integration credential.
func (c *Client) Token(ctx context.Context) (string, error) {
	var out struct {
		JWT string `json:"jwt"`
	}
	if err := c.do(ctx, http.MethodGet, "/jwt", nil, "", &out); err != nil {
		return "", err
	}
	return out.JWT, nil
}

// Deliver posts a webhook delivery, signing it when a secret is configured.
// An empty deliveryID gets a random one.
func (c *Client) Deliver(ctx context.Context, eventType, deliveryID string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/webhook", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.applyHeaders(req)
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", eventType)
	req.Header.Set("X-GitHub-Delivery", deliveryID)
	if c.signer.Enabled() {
		req.Header.Set(signature.Header, c.signer.Sign(payload))
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, nil)
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, "", &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	// unblock ReadJSON when ctx ends
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer close(done)
		defer conn.Close()
		for {
			var evt core.Event
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			default:
				// drop if consumer is slow
			}
		}
	}()
	return out, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/events"
	return u.String()
}
