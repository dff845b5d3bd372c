package sdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"scoregate"
	"scoregate/api/httpapi"
	"scoregate/core"
	"scoregate/realtime"
	"scoregate/signature"
)

func newTestServer(t *testing.T, secret string, opts httpapi.Options) (*httptest.Server, *realtime.Hub) {
	t.Helper()
	hub := realtime.NewHub()
	svc := scoregate.New(scoregate.WithRealtime(hub))
	t.Cleanup(svc.Close)
	srv := httptest.NewServer(httpapi.NewMux(svc, nil, signature.New(secret), hub, opts))
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestClient_SubmitScoresHealth(t *testing.T) {
	srv, _ := newTestServer(t, "", httpapi.Options{PathPrefix: "/api", APIKeys: []string{"k1"}})

	client, err := NewClient(srv.URL+"/api/", WithAPIKey("k1"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	for _, e := range []ScoreEntry{{"A", 50}, {"B", 80}, {"C", 30}} {
		if err := client.SubmitScore(ctx, e.Name, e.Score); err != nil {
			t.Fatalf("submit %v: %v", e, err)
		}
	}
	got, err := client.Scores(ctx)
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if len(got) != 3 || got[0].Name != "B" || got[2].Name != "C" {
		t.Fatalf("unexpected scores: %+v", got)
	}

	health, err := client.Health(ctx)
	if err != nil || health.Status != "healthy" {
		t.Fatalf("health: %+v err=%v", health, err)
	}

	if err := client.SubmitScore(ctx, " ", 1); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("want ErrEmptyName, got %v", err)
	}
}

func TestClient_APIError(t *testing.T) {
	srv, _ := newTestServer(t, "", httpapi.Options{APIKeys: []string{"k1"}})
	client, _ := NewClient(srv.URL)

	_, err := client.Scores(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "missing API key" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestClient_TokenReportsMissingKeyPath(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "missing.pem")
	srv, _ := newTestServer(t, "", httpapi.Options{AppID: "99", PrivateKeyPath: keyPath})
	client, _ := NewClient(srv.URL)

	_, err := client.Token(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "private key not found" || apiErr.Path != keyPath {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestClient_DeliverSignsPayload(t *testing.T) {
	srv, _ := newTestServer(t, "whsec", httpapi.Options{})
	ctx := context.Background()

	signed, _ := NewClient(srv.URL, WithWebhookSecret("whsec"))
	if err := signed.Deliver(ctx, "push", "", []byte(`{"ref":"main"}`)); err != nil {
		t.Fatalf("signed delivery: %v", err)
	}

	unsigned, _ := NewClient(srv.URL)
	err := unsigned.Deliver(ctx, "push", "d-1", []byte(`{}`))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("want 401, got %v", err)
	}
}

func TestClient_SubscribeEvents(t *testing.T) {
	srv, hub := newTestServer(t, "", httpapi.Options{})

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := client.SubscribeEvents(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	for hub.Len() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("subscriber never registered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := client.Deliver(ctx, "issues", "d-7", []byte(`{"action":"opened"}`)); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	select {
	case evt := <-events:
		if evt.Type != core.EventWebhookReceived || evt.Source != "issues" || evt.DeliveryID != "d-7" {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}

	cancel()
	for range events {
	}
}

func TestDeriveWSURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8080":    "ws://localhost:8080/events",
		"https://example.com/api":  "wss://example.com/api/events",
		"https://example.com/api/": "wss://example.com/api/events",
	}
	for in, want := range cases {
		if got := deriveWSURL(in); got != want {
			t.Fatalf("deriveWSURL(%q) = %q, want %q", in, got, want)
		}
	}
}
