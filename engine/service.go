package engine

import (
	"context"
	"errors"
	"fmt"

	"scoregate/core"
)

// Service wires the score store and the event bus into the operations the
// gateway exposes.
type Service struct {
	store     ScoreStore
	bus       *EventBus
	nameLimit int
}

func NewService(store ScoreStore, bus *EventBus, nameLimit int) *Service {
	if store == nil || bus == nil {
		panic("NewService requires non-nil store and bus")
	}
	if nameLimit <= 0 {
		nameLimit = core.DefaultNameLimit
	}
	return &Service{store: store, bus: bus, nameLimit: nameLimit}
}

// NameLimit is the maximum name length applied to submissions.
func (s *Service) NameLimit() int { return s.nameLimit }

// Subscribe convenience method.
func (s *Service) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

// Submit truncates the name and hands the entry to the store. Store
// failures are reported as core.ErrPersistence.
func (s *Service) Submit(ctx context.Context, e core.ScoreEntry) error {
	e.Name = core.TruncateName(e.Name, s.nameLimit)
	if err := s.store.Submit(ctx, e); err != nil {
		if errors.Is(err, core.ErrPersistence) {
			return err
		}
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	s.bus.Publish(ctx, core.NewScoreSubmitted(e))
	return nil
}

// List returns the leaderboard, highest score first.
func (s *Service) List(ctx context.Context) ([]core.ScoreEntry, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		if errors.Is(err, core.ErrPersistence) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	if entries == nil {
		entries = []core.ScoreEntry{}
	}
	return entries, nil
}

// AcceptWebhook hands a verified delivery to downstream subscribers.
func (s *Service) AcceptWebhook(ctx context.Context, w core.WebhookEvent) {
	s.bus.Publish(ctx, core.NewWebhookReceived(w))
}

// RejectWebhook records a delivery that failed verification.
func (s *Service) RejectWebhook(ctx context.Context, eventType, deliveryID string) {
	s.bus.Publish(ctx, core.NewWebhookRejected(eventType, deliveryID))
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

func (s *Service) Close() { s.bus.Close() }
