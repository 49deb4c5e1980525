// Package sqlite provides a TrailStore backed by a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aretw0/crumbtrail/pkg/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS trails (
	session_id TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trails_updated_at ON trails(updated_at);
`

// Store implements ports.TrailStore on SQLite.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

type Option func(*Store)

// WithTTL makes trails untouched for longer than ttl count as expired.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// Open opens or creates the database file at path.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the trail.
func (s *Store) Save(ctx context.Context, sessionID string, trail *domain.Trail) error {
	data, err := json.Marshal(trail)
	if err != nil {
		return fmt.Errorf("failed to marshal trail: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trails (session_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		sessionID, string(data), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save trail: %w", err)
	}
	return nil
}

// Load retrieves the trail. Expired trails are reported as not found.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Trail, error) {
	var (
		data      string
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, updated_at FROM trails WHERE session_id = ?`, sessionID,
	).Scan(&data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trail: %w", err)
	}
	if s.expired(updatedAt) {
		return nil, domain.ErrSessionNotFound
	}

	var trail domain.Trail
	if err := json.Unmarshal([]byte(data), &trail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trail: %w", err)
	}
	if trail.Crumbs == nil {
		trail.Crumbs = []domain.Entry{}
	}
	return &trail, nil
}

// Delete removes the trail.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM trails WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete trail: %w", err)
	}
	return nil
}

// List returns the stored sessions, pruning expired ones first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if s.ttl > 0 {
		cutoff := s.now().Add(-s.ttl).UnixNano()
		if _, err := s.db.ExecContext(ctx, `DELETE FROM trails WHERE updated_at < ?`, cutoff); err != nil {
			return nil, fmt.Errorf("failed to prune expired trails: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM trails ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list trails: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}

func (s *Store) expired(updatedAt int64) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(time.Unix(0, updatedAt)) > s.ttl
}
