package analytics

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"scoregate/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(ctx context.Context, e core.Event)
}

// Counters tallies gateway traffic since process start.
type Counters struct {
	mu          sync.Mutex
	started     time.Time
	accepted    map[string]int64
	rejected    map[string]int64
	perDay      map[string]int64
	submissions int64
	topScore    *core.ScoreEntry
	lastEvent   time.Time
}

func NewCounters() *Counters {
	return &Counters{
		started:  time.Now().UTC(),
		accepted: map[string]int64{},
		rejected: map[string]int64{},
		perDay:   map[string]int64{},
	}
}

func (c *Counters) OnEvent(_ context.Context, e core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	source := e.Source
	if source == "" {
		source = "unknown"
	}
	switch e.Type {
	case core.EventWebhookReceived:
		c.accepted[source]++
		c.perDay[e.Time.UTC().Format("2006-01-02")]++
	case core.EventWebhookRejected:
		c.rejected[source]++
	case core.EventScoreSubmitted:
		c.submissions++
		if e.Entry != nil && (c.topScore == nil || e.Entry.Score > c.topScore.Score) {
			best := *e.Entry
			c.topScore = &best
		}
	default:
		return
	}
	if e.Time.After(c.lastEvent) {
		c.lastEvent = e.Time
	}
}

// Snapshot is the JSON document served at /stats.
type Snapshot struct {
	Since             time.Time        `json:"since"`
	LastEvent         *time.Time       `json:"last_event,omitempty"`
	DeliveriesTotal   int64            `json:"deliveries_total"`
	RejectedTotal     int64            `json:"rejected_total"`
	DeliveriesByEvent map[string]int64 `json:"deliveries_by_event"`
	RejectedByEvent   map[string]int64 `json:"rejected_by_event"`
	DeliveriesByDay   map[string]int64 `json:"deliveries_by_day"`
	EventTypes        []string         `json:"event_types"`
	Submissions       int64            `json:"submissions"`
	BestSubmission    *core.ScoreEntry `json:"best_submission,omitempty"`
}

func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	types := lo.Union(lo.Keys(c.accepted), lo.Keys(c.rejected))
	slices.Sort(types)

	s := Snapshot{
		Since:             c.started,
		DeliveriesTotal:   lo.Sum(lo.Values(c.accepted)),
		RejectedTotal:     lo.Sum(lo.Values(c.rejected)),
		DeliveriesByEvent: lo.Assign(c.accepted),
		RejectedByEvent:   lo.Assign(c.rejected),
		DeliveriesByDay:   lo.Assign(c.perDay),
		EventTypes:        types,
		Submissions:       c.submissions,
	}
	if !c.lastEvent.IsZero() {
		t := c.lastEvent
		s.LastEvent = &t
	}
	if c.topScore != nil {
		best := *c.topScore
		s.BestSubmission = &best
	}
	return s
}
