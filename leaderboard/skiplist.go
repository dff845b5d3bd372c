package leaderboard

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"scoregate/core"
)

// A bounded skip list ordered by (score desc, insertion seq asc). Names are
// not keys: the same name may be inserted any number of times.

const maxLevel = 16
const pFactor = 0.25

type node struct {
	e    core.ScoreEntry
	seq  uint64
	next [maxLevel]*node
}

type SkipList struct {
	mu       sync.RWMutex
	head     *node
	lvl      int
	size     int
	capacity int
	seq      uint64
	rng      *rand.Rand
}

// NewSkipList returns an empty list retaining at most capacity entries.
func NewSkipList(capacity int) *SkipList {
	if capacity <= 0 {
		capacity = core.DefaultCapacity
	}
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		seed = [16]byte{}
	}
	seed1 := binary.BigEndian.Uint64(seed[:8])
	seed2 := binary.BigEndian.Uint64(seed[8:])

	return &SkipList{
		head:     &node{},
		lvl:      1,
		capacity: capacity,
		rng:      rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (s *SkipList) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

// ahead reports whether n ranks before the (score, seq) key.
func ahead(n *node, score int64, seq uint64) bool {
	if n.e.Score == score {
		return n.seq < seq
	}
	return n.e.Score > score
}

// Insert adds e behind any entries with the same score.
func (s *SkipList) Insert(e core.ScoreEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.size >= s.capacity {
		if last := s.lastLocked(); last != nil && e.Score <= last.e.Score {
			return false
		}
	}
	s.seq++
	seq := s.seq
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && ahead(cur.next[i], e.Score, seq) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	lvl := s.randomLevel()
	if lvl > s.lvl {
		for i := s.lvl; i < lvl; i++ {
			update[i] = s.head
		}
		s.lvl = lvl
	}
	n := &node{e: e, seq: seq}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	s.size++
	for s.size > s.capacity {
		last := s.lastLocked()
		s.removeLocked(last.e.Score, last.seq)
	}
	return true
}

func (s *SkipList) lastLocked() *node {
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil {
			cur = cur.next[i]
		}
	}
	if cur == s.head {
		return nil
	}
	return cur
}

func (s *SkipList) removeLocked(score int64, seq uint64) {
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && ahead(cur.next[i], score, seq) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	target := update[0].next[0]
	if target == nil || target.seq != seq {
		return
	}
	for i := 0; i < s.lvl; i++ {
		if update[i].next[i] == target {
			update[i].next[i] = target.next[i]
		}
	}
	s.size--
	for s.lvl > 1 && s.head.next[s.lvl-1] == nil {
		s.lvl--
	}
}

func (s *SkipList) TopN(n int) []core.ScoreEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	out := make([]core.ScoreEntry, 0, min(n, s.size))
	cur := s.head.next[0]
	for cur != nil && len(out) < n {
		out = append(out, cur.e)
		cur = cur.next[0]
	}
	return out
}

func (s *SkipList) Entries() []core.ScoreEntry {
	return s.TopN(s.Len())
}

func (s *SkipList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

var _ Board = (*SkipList)(nil)
