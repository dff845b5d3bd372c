package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"scoregate/core"
)

func TestHubSubscribeBroadcastUnsubscribe(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe(1)
	if h.Len() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", h.Len())
	}

	ev := core.NewWebhookReceived(core.WebhookEvent{EventType: "push", DeliveryID: "d-1"})
	h.Broadcast(context.Background(), ev)

	received := <-ch
	if received.Source != "push" || received.Type != core.EventWebhookReceived {
		t.Fatalf("unexpected event: %+v", received)
	}

	h.Unsubscribe(id)
	_, ok := <-ch
	if ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
	if h.Len() != 0 {
		t.Fatalf("expected no subscribers, got %d", h.Len())
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub()
	_, ch := h.Subscribe(1)
	ev := core.NewWebhookReceived(core.WebhookEvent{EventType: "ping"})

	h.Broadcast(context.Background(), ev)
	h.Broadcast(context.Background(), ev)

	if got := h.Dropped(); got != 1 {
		t.Fatalf("expected 1 dropped delivery, got %d", got)
	}
	<-ch
}

func TestMarshalJSON(t *testing.T) {
	ev := core.NewWebhookReceived(core.WebhookEvent{
		EventType: "issues",
		RawBody:   []byte(`{"action":"opened"}`),
		Payload:   map[string]any{"action": "opened"},
	})
	b := MarshalJSON(ev)

	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["source"] != "issues" {
		t.Fatalf("unexpected source: %v", out["source"])
	}
	if _, ok := out["Raw"]; ok {
		t.Fatal("raw body must not be serialized")
	}
	payload, _ := out["payload"].(map[string]any)
	if payload["action"] != "opened" {
		t.Fatalf("unexpected payload: %v", out["payload"])
	}
}
