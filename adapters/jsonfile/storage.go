package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"scoregate/core"
	"scoregate/engine"
	"scoregate/leaderboard"
)

// ErrCorrupt reports a backing file that exists but does not hold a JSON
// array of entries.
var ErrCorrupt = errors.New("leaderboard file is corrupt")

// pathLocks holds one mutex per backing file so that every Store opened on
// the same path in this process shares a single writer.
var pathLocks sync.Map // map[string]*sync.Mutex

func lockFor(path string) *sync.Mutex {
	mu, _ := pathLocks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Store keeps the leaderboard in a single pretty-printed JSON file.
// Nothing is cached: each call re-reads the file, and Submit rewrites it
// in full through a temp file and rename.
type Store struct {
	path     string
	capacity int
	mu       *sync.Mutex
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for corruption warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(path string, capacity int, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: resolve %s: %w", path, err)
	}
	if capacity <= 0 {
		capacity = core.DefaultCapacity
	}
	s := &Store{path: abs, capacity: capacity, mu: lockFor(abs), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the absolute backing file path.
func (s *Store) Path() string { return s.path }

// record accepts hand-edited files where fields are not the exact types.
type record struct {
	Name  json.RawMessage `json:"name"`
	Score json.RawMessage `json:"score"`
}

// load reads the backing file. A missing file is an empty board.
func (s *Store) load() ([]core.ScoreEntry, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrPersistence, s.path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var raw []record
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, s.path, err)
	}
	entries := make([]core.ScoreEntry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, core.ScoreEntry{
			Name:  core.CoerceName(r.Name, math.MaxInt32),
			Score: core.CoerceScore(r.Score),
		})
	}
	return entries, nil
}

func (s *Store) persist(entries []core.ScoreEntry) error {
	if entries == nil {
		entries = []core.ScoreEntry{}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", core.ErrPersistence, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %w", core.ErrPersistence, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %w", core.ErrPersistence, tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return nil
}

// List treats a corrupt file as an empty board and logs it; the file is
// left untouched.
func (s *Store) List(_ context.Context) ([]core.ScoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		if errors.Is(err, ErrCorrupt) {
			s.logger.Warn("leaderboard file unreadable, serving empty board", "path", s.path, "error", err)
			return []core.ScoreEntry{}, nil
		}
		return nil, err
	}
	return leaderboard.Rank(entries, s.capacity), nil
}

// Submit refuses to overwrite a corrupt file.
func (s *Store) Submit(_ context.Context, e core.ScoreEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		if errors.Is(err, core.ErrPersistence) {
			return err
		}
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return s.persist(leaderboard.Insert(entries, e, s.capacity))
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

var _ engine.ScoreStore = (*Store)(nil)
