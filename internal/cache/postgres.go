// internal/cache/postgres.go
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore backs the cache with PostgreSQL so multiple extractor
// instances can share one metadata store.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// NewPostgresStore connects to the DSN and prepares the cache table.
func NewPostgresStore(ctx context.Context, cfg Config) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres cache requires a connection string")
	}
	table := cfg.Table
	if table == "" {
		table = "metadata_cache"
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres cache: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres cache: %w", err)
	}

	s := &PostgresStore{db: db, table: table}
	if err := s.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		payload BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		hits BIGINT NOT NULL DEFAULT 0
	)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create cache table: %w", err)
	}
	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_expires_idx ON %s (expires_at)`, s.table, s.table)
	if _, err := s.db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("failed to create cache index: %w", err)
	}
	return nil
}

// Get reads a fresh entry and counts the hit atomically.
func (s *PostgresStore) Get(ctx context.Context, key string) (*Entry, error) {
	query := fmt.Sprintf(`UPDATE %s SET hits = hits + 1
		WHERE key = $1 AND expires_at > NOW()
		RETURNING payload, created_at, expires_at, hits`, s.table)

	var entry Entry
	entry.Key = key
	err := s.db.QueryRowContext(ctx, query, key).
		Scan(&entry.Payload, &entry.CreatedAt, &entry.ExpiresAt, &entry.Hits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("postgres cache read failed: %w", err)
	}
	return &entry, nil
}

// Set upserts the entry, resetting the hit counter.
func (s *PostgresStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	now := time.Now()

	query := fmt.Sprintf(`INSERT INTO %s (key, payload, created_at, expires_at, hits)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			hits = 0`, s.table)
	if _, err := s.db.ExecContext(ctx, query, key, payload, now, now.Add(ttl)); err != nil {
		return fmt.Errorf("postgres cache write failed: %w", err)
	}
	return nil
}

// Delete removes a key.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.table), key); err != nil {
		return fmt.Errorf("postgres cache delete failed: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
