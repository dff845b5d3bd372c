package memory

import (
	"context"

	"scoregate/core"
	"scoregate/engine"
	"scoregate/leaderboard"
)

// Store is a concurrent in-memory ScoreStore. State is lost on restart.
type Store struct {
	board *leaderboard.SkipList
}

func New(capacity int) *Store {
	return &Store{board: leaderboard.NewSkipList(capacity)}
}

func (s *Store) List(_ context.Context) ([]core.ScoreEntry, error) {
	return s.board.Entries(), nil
}

// Submit never fails; entries ranked below capacity are dropped.
func (s *Store) Submit(_ context.Context, e core.ScoreEntry) error {
	s.board.Insert(e)
	return nil
}

func (s *Store) Ping(_ context.Context) error { return nil }

var _ engine.ScoreStore = (*Store)(nil)
