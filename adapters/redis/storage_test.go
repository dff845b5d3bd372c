package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoregate/core"
)

// newTestClient spins up a miniredis server and returns a client plus the server.
func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestStore_ListEmpty(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewWithClient(client, "lb", 10)

	got, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_SubmitTopK(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewWithClient(client, "lb", 2)
	ctx := context.Background()

	for _, e := range []core.ScoreEntry{{Name: "A", Score: 50}, {Name: "B", Score: 80}, {Name: "C", Score: 30}} {
		require.NoError(t, store.Submit(ctx, e))
	}
	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.ScoreEntry{{Name: "B", Score: 80}, {Name: "A", Score: 50}}, got)
}

func TestStore_CorruptKey(t *testing.T) {
	client, mr := newTestClient(t)
	require.NoError(t, mr.Set("lb", "not json"))
	store := NewWithClient(client, "lb", 10)
	ctx := context.Background()

	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	err = store.Submit(ctx, core.ScoreEntry{Name: "x", Score: 1})
	assert.ErrorIs(t, err, core.ErrPersistence)
	v, _ := mr.Get("lb")
	assert.Equal(t, "not json", v)
}

func TestStore_ServerDown(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewWithClient(client, "lb", 10)
	mr.Close()

	err := store.Submit(context.Background(), core.ScoreEntry{Name: "x", Score: 1})
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.Error(t, store.Ping(context.Background()))
}

func TestStore_ConcurrentWritersAcrossClients(t *testing.T) {
	client, mr := newTestClient(t)
	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = other.Close() })

	a := NewWithClient(client, "lb", 1000)
	b := NewWithClient(other, "lb", 1000)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, a.Submit(ctx, core.ScoreEntry{Name: fmt.Sprintf("a%d", i), Score: int64(i)}))
		}(i)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, b.Submit(ctx, core.ScoreEntry{Name: fmt.Sprintf("b%d", i), Score: int64(i)}))
		}(i)
	}
	wg.Wait()

	got, err := a.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 40)
}
