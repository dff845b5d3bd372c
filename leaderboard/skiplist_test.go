package leaderboard

import (
	"math/rand/v2"
	"testing"

	"scoregate/core"
)

func TestSkipListBasic(t *testing.T) {
	s := NewSkipList(10)
	s.Insert(core.ScoreEntry{Name: "a", Score: 10})
	s.Insert(core.ScoreEntry{Name: "b", Score: 20})
	s.Insert(core.ScoreEntry{Name: "c", Score: 15})
	top := s.TopN(3)
	if len(top) != 3 || top[0].Name != "b" || top[1].Name != "c" || top[2].Name != "a" {
		t.Fatalf("unexpected order: %#v", top)
	}
}

func TestSkipListDuplicateNames(t *testing.T) {
	s := NewSkipList(10)
	s.Insert(core.ScoreEntry{Name: "a", Score: 10})
	s.Insert(core.ScoreEntry{Name: "a", Score: 30})
	if s.Len() != 2 {
		t.Fatalf("expected duplicates to be kept, len=%d", s.Len())
	}
}

func TestSkipListCapacity(t *testing.T) {
	s := NewSkipList(2)
	if !s.Insert(core.ScoreEntry{Name: "A", Score: 50}) {
		t.Fatal("A should be retained")
	}
	s.Insert(core.ScoreEntry{Name: "B", Score: 80})
	if s.Insert(core.ScoreEntry{Name: "C", Score: 30}) {
		t.Fatal("C should be dropped")
	}
	got := s.Entries()
	want := []core.ScoreEntry{{Name: "B", Score: 80}, {Name: "A", Score: 50}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %#v", got)
	}
}

func TestSkipListTiesKeepInsertionOrder(t *testing.T) {
	s := NewSkipList(3)
	s.Insert(core.ScoreEntry{Name: "first", Score: 5})
	s.Insert(core.ScoreEntry{Name: "second", Score: 5})
	s.Insert(core.ScoreEntry{Name: "third", Score: 5})
	if s.Insert(core.ScoreEntry{Name: "fourth", Score: 5}) {
		t.Fatal("a tie with the last entry ranks after it and must be dropped when full")
	}
	got := s.Entries()
	if got[0].Name != "first" || got[1].Name != "second" || got[2].Name != "third" {
		t.Fatalf("ties reordered: %#v", got)
	}
}

func TestSkipListMatchesRank(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	s := NewSkipList(7)
	var ref []core.ScoreEntry
	for i := 0; i < 200; i++ {
		e := core.ScoreEntry{Name: string(rune('a' + i%26)), Score: int64(r.IntN(20))}
		s.Insert(e)
		ref = Insert(ref, e, 7)
	}
	got := s.Entries()
	if len(got) != len(ref) {
		t.Fatalf("len %d != %d", len(got), len(ref))
	}
	for i := range ref {
		if got[i] != ref[i] {
			t.Fatalf("position %d: skiplist %#v, rank %#v", i, got[i], ref[i])
		}
	}
}
