package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoregate/core"
)

func TestCountersSnapshot(t *testing.T) {
	c := NewCounters()
	ctx := context.Background()

	c.OnEvent(ctx, core.NewWebhookReceived(core.WebhookEvent{EventType: "push"}))
	c.OnEvent(ctx, core.NewWebhookReceived(core.WebhookEvent{EventType: "push"}))
	c.OnEvent(ctx, core.NewWebhookReceived(core.WebhookEvent{EventType: "issues"}))
	c.OnEvent(ctx, core.NewWebhookRejected("ping", ""))
	c.OnEvent(ctx, core.NewScoreSubmitted(core.ScoreEntry{Name: "a", Score: 5}))
	c.OnEvent(ctx, core.NewScoreSubmitted(core.ScoreEntry{Name: "b", Score: 9}))
	c.OnEvent(ctx, core.NewScoreSubmitted(core.ScoreEntry{Name: "c", Score: 7}))

	s := c.Snapshot()
	assert.Equal(t, int64(3), s.DeliveriesTotal)
	assert.Equal(t, int64(1), s.RejectedTotal)
	assert.Equal(t, map[string]int64{"push": 2, "issues": 1}, s.DeliveriesByEvent)
	assert.Equal(t, map[string]int64{"ping": 1}, s.RejectedByEvent)
	assert.Equal(t, []string{"issues", "ping", "push"}, s.EventTypes)
	assert.Equal(t, int64(3), s.Submissions)
	require.NotNil(t, s.BestSubmission)
	assert.Equal(t, core.ScoreEntry{Name: "b", Score: 9}, *s.BestSubmission)
	require.NotNil(t, s.LastEvent)

	today := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, int64(3), s.DeliveriesByDay[today])
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewCounters()
	c.OnEvent(context.Background(), core.NewWebhookReceived(core.WebhookEvent{EventType: "push"}))

	s := c.Snapshot()
	s.DeliveriesByEvent["push"] = 100

	assert.Equal(t, int64(1), c.Snapshot().DeliveriesByEvent["push"])
}

func TestEmptySnapshot(t *testing.T) {
	s := NewCounters().Snapshot()
	assert.Zero(t, s.DeliveriesTotal)
	assert.Nil(t, s.LastEvent)
	assert.Nil(t, s.BestSubmission)
	assert.Empty(t, s.EventTypes)
}

func TestBridgeFansOut(t *testing.T) {
	a, b := NewCounters(), NewCounters()
	bridge := NewBridge(a, b)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bridge.OnEvent(context.Background(), core.NewWebhookReceived(core.WebhookEvent{EventType: "push"}))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), a.Snapshot().DeliveriesTotal)
	assert.Equal(t, int64(20), b.Snapshot().DeliveriesTotal)
}
