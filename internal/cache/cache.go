// Package cache provides the pluggable TTL key-value store consulted and
// populated by the metadata extractor. An in-memory map backs tests and
// single-process deployments; SQL and MongoDB backends persist entries across
// processes. Reads past expiry always behave as misses regardless of backend.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMetadataTTL is how long extracted metadata stays fresh.
const DefaultMetadataTTL = 7 * 24 * time.Hour

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Entry is one cached record. Entries are immutable once written; a new Set
// for the same key fully replaces the prior entry.
type Entry struct {
	Key       string    `json:"key"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Hits      int64     `json:"hits"`
}

// Expired reports whether the entry is past its expiry at the given instant.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Store is the backend contract. Get increments the entry's hit counter on a
// hit and returns ErrMiss for absent or expired keys. Concurrent writes to
// the same key resolve last-write-wins.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetOrFetch is the read-through convenience: it returns the cached payload
// when present, otherwise invokes the producer and stores its result under
// the key before returning it.
func GetOrFetch(ctx context.Context, store Store, key string, ttl time.Duration, producer func(context.Context) ([]byte, error)) ([]byte, error) {
	entry, err := store.Get(ctx, key)
	if err == nil {
		return entry.Payload, nil
	}
	if !errors.Is(err, ErrMiss) {
		return nil, err
	}

	payload, err := producer(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Set(ctx, key, payload, ttl); err != nil {
		return nil, fmt.Errorf("cache write-back failed: %w", err)
	}
	return payload, nil
}

// Config selects and configures a cache backend.
type Config struct {
	Backend    string        `yaml:"backend" json:"backend"` // memory, sqlite, postgres, mysql, mongodb
	DSN        string        `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	Database   string        `yaml:"database,omitempty" json:"database,omitempty"`     // mongodb only
	Collection string        `yaml:"collection,omitempty" json:"collection,omitempty"` // mongodb only
	Table      string        `yaml:"table,omitempty" json:"table,omitempty"`           // sql backends
	TTL        time.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// Open constructs the store selected by the configuration. An empty backend
// defaults to memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(cfg)
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, cfg)
	case "mysql":
		return NewMySQLStore(ctx, cfg)
	case "mongodb", "mongo":
		return NewMongoStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}
