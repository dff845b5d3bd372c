package engine

import (
	"context"

	"scoregate/core"
)

// ScoreStore persists the bounded leaderboard. Implementations must
// serialize the load-mutate-persist cycle of Submit so that concurrent
// submissions are never lost.
type ScoreStore interface {
	// List returns every retained entry, highest score first. A store that
	// has never been written returns an empty slice and no error.
	List(ctx context.Context) ([]core.ScoreEntry, error)
	// Submit appends e, re-ranks and truncates to capacity, then persists.
	// It succeeds even when e is truncated away.
	Submit(ctx context.Context, e core.ScoreEntry) error
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
