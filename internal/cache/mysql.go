// internal/cache/mysql.go
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLStore backs the cache with MySQL/MariaDB.
type MySQLStore struct {
	db    *sql.DB
	table string
}

// NewMySQLStore connects to the DSN and prepares the cache table. The DSN
// should include parseTime=true so timestamp columns scan into time.Time.
func NewMySQLStore(ctx context.Context, cfg Config) (*MySQLStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mysql cache requires a connection string")
	}
	table := cfg.Table
	if table == "" {
		table = "metadata_cache"
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql cache: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mysql cache: %w", err)
	}

	s := &MySQLStore{db: db, table: table}
	if err := s.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTable(ctx context.Context) error {
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
		"`key` VARCHAR(2048) NOT NULL, "+
		"payload MEDIUMBLOB NOT NULL, "+
		"created_at DATETIME(6) NOT NULL, "+
		"expires_at DATETIME(6) NOT NULL, "+
		"hits BIGINT NOT NULL DEFAULT 0, "+
		"PRIMARY KEY (`key`(255)), "+
		"KEY expires_idx (expires_at)"+
		")", s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create cache table: %w", err)
	}
	return nil
}

// Get reads a fresh entry and counts the hit.
func (s *MySQLStore) Get(ctx context.Context, key string) (*Entry, error) {
	query := fmt.Sprintf("SELECT payload, created_at, expires_at, hits FROM %s "+
		"WHERE `key` = ? AND expires_at > ?", s.table)

	var entry Entry
	entry.Key = key
	err := s.db.QueryRowContext(ctx, query, key, time.Now()).
		Scan(&entry.Payload, &entry.CreatedAt, &entry.ExpiresAt, &entry.Hits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("mysql cache read failed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET hits = hits + 1 WHERE `key` = ?", s.table), key); err != nil {
		return nil, fmt.Errorf("mysql hit count update failed: %w", err)
	}
	entry.Hits++
	return &entry, nil
}

// Set upserts the entry, resetting the hit counter.
func (s *MySQLStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	now := time.Now()

	query := fmt.Sprintf("INSERT INTO %s (`key`, payload, created_at, expires_at, hits) "+
		"VALUES (?, ?, ?, ?, 0) "+
		"ON DUPLICATE KEY UPDATE "+
		"payload = VALUES(payload), "+
		"created_at = VALUES(created_at), "+
		"expires_at = VALUES(expires_at), "+
		"hits = 0", s.table)
	if _, err := s.db.ExecContext(ctx, query, key, payload, now, now.Add(ttl)); err != nil {
		return fmt.Errorf("mysql cache write failed: %w", err)
	}
	return nil
}

// Delete removes a key.
func (s *MySQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE `key` = ?", s.table), key); err != nil {
		return fmt.Errorf("mysql cache delete failed: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
