package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// SQLite is a [Store] backed by a sqlite database file.
type SQLite struct {
	db *sqlx.DB
}

var _ Store = &SQLite{}

// OpenSQLite opens (and migrates) the database at the given path. Use
// ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not create db: %w", err)
	}
	// every connection to :memory: is a new database.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("could not ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
		create table if not exists settings(
			key text not null primary key,
			value text not null,
			updated_at datetime not null default current_timestamp
		);
	`); err != nil {
		return nil, fmt.Errorf("could not migrate db: %w", err)
	}
	return &SQLite{db}, nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	var value string
	if err := s.db.GetContext(ctx, &value, `
		select value from settings
		where key = ?
	`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("could not read %q: %w", key, err)
	}
	return value, nil
}

// Set implements Store.
func (s *SQLite) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("could not write setting: empty key")
	}
	if _, err := s.db.ExecContext(ctx, `
		insert into settings (key, value) values (?, ?)
		on conflict(key) do update set value = excluded.value, updated_at = current_timestamp
	`, key, value); err != nil {
		return fmt.Errorf("could not write %q: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `
		delete from settings
		where key = ?
	`, key); err != nil {
		return fmt.Errorf("could not delete %q: %w", key, err)
	}
	return nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close() //nolint:wrapcheck
}
