package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"objmap/pkg/db"
)

// SQLiteStore implements Store on top of the persistent_state table.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool, error) {
	var val sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return val.String, true, nil
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, key, val, time.Now()); err != nil {
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}
