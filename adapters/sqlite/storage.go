package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"scoregate/core"
	"scoregate/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS scores (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	name  TEXT    NOT NULL,
	score INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scores_rank ON scores (score DESC, id ASC);
`

// Rows share a score are ranked by insertion id, which keeps ties in
// arrival order.
const (
	queryList   = `SELECT name, score FROM scores ORDER BY score DESC, id ASC LIMIT ?`
	queryInsert = `INSERT INTO scores (name, score) VALUES (?, ?)`
	queryTrim   = `DELETE FROM scores WHERE id NOT IN (SELECT id FROM scores ORDER BY score DESC, id ASC LIMIT ?)`
)

// Store persists the leaderboard to a SQLite database.
type Store struct {
	db       *sqlx.DB
	capacity int
}

type row struct {
	Name  string `db:"name"`
	Score int64  `db:"score"`
}

// New opens (creating if needed) the database at path and applies the schema.
// path may be ":memory:" for a throwaway database.
func New(path string, capacity int) (*Store, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection serialises writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	s := NewWithDB(db, capacity)
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing handle. The schema is assumed to exist.
func NewWithDB(db *sqlx.DB, capacity int) *Store {
	if capacity <= 0 {
		capacity = core.DefaultCapacity
	}
	return &Store{db: db, capacity: capacity}
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) List(ctx context.Context) ([]core.ScoreEntry, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, queryList, s.capacity); err != nil {
		return nil, fmt.Errorf("%w: list scores: %w", core.ErrPersistence, err)
	}
	out := make([]core.ScoreEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.ScoreEntry{Name: r.Name, Score: r.Score})
	}
	return out, nil
}

func (s *Store) Submit(ctx context.Context, e core.ScoreEntry) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", core.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, queryInsert, e.Name, e.Score); err != nil {
		return fmt.Errorf("%w: insert score: %w", core.ErrPersistence, err)
	}
	if _, err = tx.ExecContext(ctx, queryTrim, s.capacity); err != nil {
		return fmt.Errorf("%w: trim scores: %w", core.ErrPersistence, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", core.ErrPersistence, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var _ engine.ScoreStore = (*Store)(nil)
