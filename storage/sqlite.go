package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLite stores the value as one row of a key/value table.
type SQLite struct {
	db  *sql.DB
	key string
}

// OpenSQLite opens the database file at dsn and creates the table if needed.
// Use ":memory:" for a throwaway database.
func OpenSQLite(dsn, key string) (*SQLite, error) {
	if dsn == "" {
		return nil, errors.New("sqlite medium: empty dsn")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// A single connection keeps ":memory:" databases alive between calls.
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db, key: key}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS key_value_store (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`)
	return errors.Wrap(err, "sqlite medium: migrate")
}

func (s *SQLite) Available(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrapf(ErrUnavailable, "sqlite medium: %v", err)
	}
	return nil
}

func (s *SQLite) Read(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM key_value_store WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite get %s", s.key)
	}
	return []byte(value), nil
}

func (s *SQLite) Write(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO key_value_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		s.key, string(data), time.Now().UnixMilli())
	return errors.Wrapf(err, "sqlite set %s", s.key)
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
