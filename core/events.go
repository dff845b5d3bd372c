package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventWebhookReceived EventType = "webhook_received"
	EventWebhookRejected EventType = "webhook_rejected"
	EventScoreSubmitted  EventType = "score_submitted"
)

// WebhookEvent is an inbound delivery. It only lives for the duration of
// the request that carried it.
type WebhookEvent struct {
	EventType       string
	DeliveryID      string
	ContentType     string
	SignatureHeader string
	RawBody         []byte
	// Payload is the decoded JSON body, nil when the body is not JSON.
	Payload any
}

// Event represents an immutable domain event.
type Event struct {
	Type       EventType   `json:"type"`
	Time       time.Time   `json:"time"`
	Source     string      `json:"source,omitempty"`
	DeliveryID string      `json:"delivery_id,omitempty"`
	Payload    any         `json:"payload,omitempty"`
	Entry      *ScoreEntry `json:"entry,omitempty"`

	// Raw and ContentType carry the untouched delivery for relays.
	Raw         []byte `json:"-"`
	ContentType string `json:"-"`
}

func NewWebhookReceived(w WebhookEvent) Event {
	return Event{
		Type:        EventWebhookReceived,
		Time:        time.Now().UTC(),
		Source:      w.EventType,
		DeliveryID:  w.DeliveryID,
		Payload:     w.Payload,
		Raw:         w.RawBody,
		ContentType: w.ContentType,
	}
}

func NewWebhookRejected(eventType, deliveryID string) Event {
	return Event{Type: EventWebhookRejected, Time: time.Now().UTC(), Source: eventType, DeliveryID: deliveryID}
}

func NewScoreSubmitted(e ScoreEntry) Event {
	return Event{Type: EventScoreSubmitted, Time: time.Now().UTC(), Entry: &e}
}
