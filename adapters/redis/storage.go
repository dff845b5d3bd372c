package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"scoregate/core"
	"scoregate/engine"
	"scoregate/leaderboard"
)

// ErrCorrupt reports a leaderboard key that does not hold a JSON array.
var ErrCorrupt = errors.New("leaderboard key is corrupt")

const maxTxRetries = 16

// Config holds Redis connection configuration
type Config struct {
	Addr         string        `json:"addr" env:"SCOREGATE_REDIS_ADDR"`
	Password     string        `json:"password,omitempty" env:"SCOREGATE_REDIS_PASSWORD"`
	DB           int           `json:"db" env:"SCOREGATE_REDIS_DB"`
	Key          string        `json:"key" env:"SCOREGATE_REDIS_KEY"`
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		Key:          "scoregate:leaderboard",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store keeps the whole leaderboard as one JSON value under a single key.
// Submit re-reads and rewrites it inside a WATCH/MULTI transaction, and an
// in-process mutex keeps local writers from contending with each other.
type Store struct {
	client   *redis.Client
	key      string
	capacity int
	mu       sync.Mutex
}

// New creates a new Redis-backed store with the provided configuration
func New(config Config, capacity int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, config.Key, capacity), nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client, key string, capacity int) *Store {
	if key == "" {
		key = DefaultConfig().Key
	}
	if capacity <= 0 {
		capacity = core.DefaultCapacity
	}
	return &Store{client: client, key: key, capacity: capacity}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) read(ctx context.Context, c getter) ([]core.ScoreEntry, error) {
	data, err := c.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get %s: %w", core.ErrPersistence, s.key, err)
	}
	var entries []core.ScoreEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, s.key, err)
	}
	return entries, nil
}

func (s *Store) List(ctx context.Context) ([]core.ScoreEntry, error) {
	entries, err := s.read(ctx, s.client)
	if err != nil {
		if errors.Is(err, ErrCorrupt) {
			return []core.ScoreEntry{}, nil
		}
		return nil, err
	}
	return leaderboard.Rank(entries, s.capacity), nil
}

func (s *Store) Submit(ctx context.Context, e core.ScoreEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txf := func(tx *redis.Tx) error {
		entries, err := s.read(ctx, tx)
		if err != nil {
			return err
		}
		data, err := json.Marshal(leaderboard.Insert(entries, e, s.capacity))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	// A conflict means another process won the race; re-read and retry.
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, core.ErrPersistence) {
			return err
		}
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return fmt.Errorf("%w: gave up after %d conflicting transactions", core.ErrPersistence, maxTxRetries)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ engine.ScoreStore = (*Store)(nil)
