package scoregate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"scoregate/adapters/memory"
	"scoregate/analytics"
	"scoregate/core"
	"scoregate/engine"
	"scoregate/integrations/webhook"
	"scoregate/realtime"
)

func TestNewDefaultsAndOptions(t *testing.T) {
	hub := realtime.NewHub()
	counters := analytics.NewCounters()
	svc := New(
		WithRealtime(hub),
		WithStore(memory.New(2)),
		WithNameLimit(3),
		WithHooks(counters),
		WithDispatchMode(engine.DispatchSync),
	)
	defer svc.Close()
	ctx := context.Background()

	if err := svc.Submit(ctx, core.ScoreEntry{Name: "alice", Score: 5}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	got, _ := svc.List(ctx)
	if len(got) != 1 || got[0].Name != "ali" {
		t.Fatalf("unexpected board: %v", got)
	}

	// realtime bridge receives accepted deliveries only
	_, ch := hub.Subscribe(4)
	svc.Submit(ctx, core.ScoreEntry{Name: "bob", Score: 1})
	svc.AcceptWebhook(ctx, core.WebhookEvent{EventType: "push"})
	select {
	case ev := <-ch:
		if ev.Type != core.EventWebhookReceived {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event streamed")
	}
	if len(ch) != 0 {
		t.Fatal("score submissions must not be streamed")
	}

	snap := counters.Snapshot()
	if snap.Submissions != 2 || snap.DeliveriesTotal != 1 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
}

func TestDefaultStore(t *testing.T) {
	svc := New(WithCapacity(1))
	defer svc.Close()
	ctx := context.Background()
	_ = svc.Submit(ctx, core.ScoreEntry{Name: "a", Score: 1})
	_ = svc.Submit(ctx, core.ScoreEntry{Name: "b", Score: 2})

	got, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "b" {
		t.Fatalf("unexpected board: %v", got)
	}
	if svc.NameLimit() != core.DefaultNameLimit {
		t.Fatalf("unexpected name limit %d", svc.NameLimit())
	}
}

func TestRelayWiring(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	svc := New(WithRelay(webhook.New([]string{srv.URL})))
	defer svc.Close()
	svc.AcceptWebhook(context.Background(), core.WebhookEvent{EventType: "push", RawBody: []byte(`{}`)})

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected 1 relay hit, got %d", hits)
	}
}
