// Package scoregate assembles the gateway's engine.Service from its parts.
package scoregate

import (
	"scoregate/adapters/memory"
	"scoregate/analytics"
	"scoregate/core"
	"scoregate/engine"
	"scoregate/integrations/webhook"
	"scoregate/realtime"
)

// Option configures the service builder.
type Option func(*config)

type config struct {
	store     engine.ScoreStore
	capacity  int
	nameLimit int
	mode      engine.DispatchMode
	hub       *realtime.Hub
	hooks     []analytics.Hook
	relay     *webhook.Sink
}

// WithStore sets the persistence adapter.
func WithStore(s engine.ScoreStore) Option { return func(c *config) { c.store = s } }

// WithCapacity sizes the default in-memory store. Ignored with WithStore.
func WithCapacity(k int) Option { return func(c *config) { c.capacity = k } }

// WithNameLimit sets the maximum name length for submissions.
func WithNameLimit(n int) Option { return func(c *config) { c.nameLimit = n } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime streams accepted webhook deliveries to the hub.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithHooks subscribes analytics hooks to every event type.
func WithHooks(hooks ...analytics.Hook) Option {
	return func(c *config) { c.hooks = append(c.hooks, hooks...) }
}

// WithRelay forwards accepted webhook deliveries through the sink.
func WithRelay(s *webhook.Sink) Option { return func(c *config) { c.relay = s } }

var allEvents = []core.EventType{core.EventWebhookReceived, core.EventWebhookRejected, core.EventScoreSubmitted}

// New builds a configured Service. If not provided, defaults are used:
//   - store: in-memory, capacity core.DefaultCapacity
//   - name limit: core.DefaultNameLimit
//   - dispatch: sync
func New(opts ...Option) *engine.Service {
	cfg := &config{mode: engine.DispatchSync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.store == nil {
		cfg.store = memory.New(cfg.capacity)
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewService(cfg.store, bus, cfg.nameLimit)
	if cfg.hub != nil {
		svc.Subscribe(core.EventWebhookReceived, cfg.hub.Broadcast)
	}
	if cfg.relay != nil {
		svc.Subscribe(core.EventWebhookReceived, cfg.relay.OnEvent)
	}
	for _, h := range cfg.hooks {
		for _, typ := range allEvents {
			svc.Subscribe(typ, h.OnEvent)
		}
	}
	return svc
}
