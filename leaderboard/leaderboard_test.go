package leaderboard

import (
	"testing"

	"scoregate/core"
)

func TestInsertTopTwo(t *testing.T) {
	var board []core.ScoreEntry
	board = Insert(board, core.ScoreEntry{Name: "A", Score: 50}, 2)
	board = Insert(board, core.ScoreEntry{Name: "B", Score: 80}, 2)
	board = Insert(board, core.ScoreEntry{Name: "C", Score: 30}, 2)

	want := []core.ScoreEntry{{Name: "B", Score: 80}, {Name: "A", Score: 50}}
	if len(board) != len(want) {
		t.Fatalf("got %#v", board)
	}
	for i := range want {
		if board[i] != want[i] {
			t.Fatalf("position %d: got %#v want %#v", i, board[i], want[i])
		}
	}
}

func TestRankCapacityAndOrder(t *testing.T) {
	var board []core.ScoreEntry
	for i := 0; i < 25; i++ {
		board = Insert(board, core.ScoreEntry{Name: "p", Score: int64((i * 7) % 13)}, 10)
		if len(board) > 10 {
			t.Fatalf("capacity exceeded: %d", len(board))
		}
	}
	if len(board) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(board))
	}
	for i := 1; i < len(board); i++ {
		if board[i-1].Score < board[i].Score {
			t.Fatalf("not descending at %d: %#v", i, board)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []core.ScoreEntry{{Name: "a", Score: 1}, {Name: "b", Score: 2}}
	_ = Rank(in, 10)
	if in[0].Name != "a" {
		t.Fatal("input reordered")
	}
}

func TestRankStableTies(t *testing.T) {
	in := []core.ScoreEntry{{Name: "x", Score: 1}, {Name: "y", Score: 1}, {Name: "z", Score: 2}}
	out := Rank(in, 0)
	if out[0].Name != "z" || out[1].Name != "x" || out[2].Name != "y" {
		t.Fatalf("unstable: %#v", out)
	}
}
