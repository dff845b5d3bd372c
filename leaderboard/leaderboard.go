package leaderboard

import (
	"cmp"
	"slices"

	"scoregate/core"
)

// Board abstracts a bounded, rank-ordered collection of entries.
type Board interface {
	// Insert adds e and reports whether it survived truncation.
	Insert(e core.ScoreEntry) bool
	TopN(n int) []core.ScoreEntry
	Entries() []core.ScoreEntry
	Len() int
}

// Rank returns a copy of entries sorted by descending score and cut to
// capacity. Equal scores keep their relative order. A non-positive
// capacity means core.DefaultCapacity.
func Rank(entries []core.ScoreEntry, capacity int) []core.ScoreEntry {
	if capacity <= 0 {
		capacity = core.DefaultCapacity
	}
	out := core.CloneEntries(entries)
	slices.SortStableFunc(out, func(a, b core.ScoreEntry) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(out) > capacity {
		out = out[:capacity]
	}
	return out
}

// Insert appends candidate behind the existing entries and re-ranks, so a
// candidate that ties an existing score ranks after it.
func Insert(entries []core.ScoreEntry, candidate core.ScoreEntry, capacity int) []core.ScoreEntry {
	next := make([]core.ScoreEntry, 0, len(entries)+1)
	next = append(next, entries...)
	next = append(next, candidate)
	return Rank(next, capacity)
}
