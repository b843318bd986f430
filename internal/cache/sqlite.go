// internal/cache/sqlite.go
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore persists cache entries in a local SQLite database, suitable for
// single-host deployments that need the cache to survive restarts.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore opens (and if needed creates) the cache database at the DSN
// path.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlite cache requires a database path")
	}
	table := cfg.Table
	if table == "" {
		table = "metadata_cache"
	}

	if dir := filepath.Dir(cfg.DSN); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DSN+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite cache: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, table: table}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTable() error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		hits INTEGER NOT NULL DEFAULT 0
	)`, s.table)
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create cache table: %w", err)
	}
	return nil
}

// Get reads a fresh entry and counts the hit. Expired rows are misses and
// reclaimed opportunistically.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	now := time.Now()

	query := fmt.Sprintf(
		`SELECT payload, created_at, expires_at, hits FROM %s WHERE key = ? AND expires_at > ?`,
		s.table,
	)
	var (
		payload            []byte
		createdAt, expires int64
		hits               int64
	)
	err := s.db.QueryRowContext(ctx, query, key, now.UnixNano()).
		Scan(&payload, &createdAt, &expires, &hits)
	if errors.Is(err, sql.ErrNoRows) {
		// Reclaim the expired row if that is what blocked the read.
		s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ? AND expires_at <= ?`, s.table), key, now.UnixNano())
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite cache read failed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET hits = hits + 1 WHERE key = ?`, s.table), key); err != nil {
		return nil, fmt.Errorf("sqlite hit count update failed: %w", err)
	}

	return &Entry{
		Key:       key,
		Payload:   payload,
		CreatedAt: time.Unix(0, createdAt),
		ExpiresAt: time.Unix(0, expires),
		Hits:      hits + 1,
	}, nil
}

// Set upserts the entry, resetting the hit counter.
func (s *SQLiteStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	now := time.Now()

	query := fmt.Sprintf(`INSERT INTO %s (key, payload, created_at, expires_at, hits)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			hits = 0`, s.table)
	if _, err := s.db.ExecContext(ctx, query, key, payload, now.UnixNano(), now.Add(ttl).UnixNano()); err != nil {
		return fmt.Errorf("sqlite cache write failed: %w", err)
	}
	return nil
}

// Delete removes a key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.table), key); err != nil {
		return fmt.Errorf("sqlite cache delete failed: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
