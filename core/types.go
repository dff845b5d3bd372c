package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultNameLimit is the maximum number of characters kept from a submitted name.
	DefaultNameLimit = 64
	// DefaultCapacity is the number of entries a leaderboard retains.
	DefaultCapacity = 100
	// AnonymousName replaces empty or null names.
	AnonymousName = "Anon"
)

// ScoreEntry is one leaderboard row. Entries have no identity beyond the
// (name, score) pair; the same name may appear any number of times.
type ScoreEntry struct {
	Name  string `json:"name"`
	Score int64  `json:"score"`
}

// CloneEntries returns a copy of entries that never aliases the input.
func CloneEntries(entries []ScoreEntry) []ScoreEntry {
	out := make([]ScoreEntry, len(entries))
	copy(out, entries)
	return out
}

// TruncateName cuts name to at most limit characters. A non-positive limit
// falls back to DefaultNameLimit.
func TruncateName(name string, limit int) string {
	if limit <= 0 {
		limit = DefaultNameLimit
	}
	if utf8.RuneCountInString(name) <= limit {
		return name
	}
	n := 0
	for i := range name {
		if n == limit {
			return name[:i]
		}
		n++
	}
	return name
}

// CoerceName turns a raw JSON value into a display name. Strings are used
// as is, other scalars by their literal text, null and empty values become
// AnonymousName. The result is truncated to limit characters.
func CoerceName(raw json.RawMessage, limit int) string {
	raw = bytes.TrimSpace(raw)
	var name string
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		name = ""
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &name); err != nil {
			name = ""
		}
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			name = string(raw)
		} else {
			name = buf.String()
		}
	}
	if strings.TrimSpace(name) == "" {
		name = AnonymousName
	}
	return TruncateName(name, limit)
}

// CoerceScore turns a raw JSON value into an integer score. Integers are
// taken as is, floats are truncated toward zero, numeric strings are
// parsed and booleans count as 1 or 0. Anything else, including values
// outside the int64 range, yields 0. Malformed scores are never an error.
func CoerceScore(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0
		}
		return v
	case 't':
		if bytes.Equal(raw, []byte("true")) {
			return 1
		}
		return 0
	case '{', '[', 'n', 'f':
		return 0
	}
	s := string(raw)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}
