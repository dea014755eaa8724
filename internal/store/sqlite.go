package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/todo-client/internal/credential"
)

// ErrNotFound is returned when a key holds no value.
var ErrNotFound = errors.New("value not found")

// SQLiteStore keeps preferences and, optionally, the session token in a
// local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases alive and shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Tables holding string values.
const (
	tableKV          = "kv"
	tableCredentials = "credentials"
)

// runMigrations applies every migration newer than the recorded schema
// version, each in its own transaction.
func (s *SQLiteStore) runMigrations() error {
	current, err := s.SchemaVersion()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.Beginx()
		if err != nil {
			return fmt.Errorf("starting migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// SchemaVersion reports the applied schema version, 0 for a fresh database.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var tables int
	err := s.db.Get(&tables,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return 0, fmt.Errorf("checking schema_version table: %w", err)
	}
	if tables == 0 {
		return 0, nil
	}

	var version int
	if err := s.db.Get(&version, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// GetValue returns the preference stored under key.
func (s *SQLiteStore) GetValue(ctx context.Context, key string) (string, error) {
	return s.get(ctx, tableKV, key)
}

// SetValue inserts or replaces the preference stored under key.
func (s *SQLiteStore) SetValue(ctx context.Context, key, value string) error {
	return s.set(ctx, tableKV, key, value)
}

// DeleteValue removes key. Deleting a missing key is not an error.
func (s *SQLiteStore) DeleteValue(ctx context.Context, key string) error {
	return s.remove(ctx, tableKV, key)
}

// table is always one of the table constants.
func (s *SQLiteStore) get(ctx context.Context, table, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM "+table+" WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting %s %q: %w", table, key, err)
	}
	return value, nil
}

func (s *SQLiteStore) set(ctx context.Context, table, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO "+table+" (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting %s %q: %w", table, key, err)
	}
	return nil
}

func (s *SQLiteStore) remove(ctx context.Context, table, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting %s %q: %w", table, key, err)
	}
	return nil
}

// Credentials returns a credential.Store backed by the credentials table,
// used when session.backend is sqlite.
func (s *SQLiteStore) Credentials() credential.Store {
	return credentials{s: s}
}

type credentials struct {
	s *SQLiteStore
}

func (c credentials) Get(key string) (string, error) {
	v, err := c.s.get(context.Background(), tableCredentials, key)
	if errors.Is(err, ErrNotFound) {
		return "", credential.ErrNotFound
	}
	return v, err
}

func (c credentials) Set(key, value string) error {
	return c.s.set(context.Background(), tableCredentials, key, value)
}

func (c credentials) Remove(key string) error {
	return c.s.remove(context.Background(), tableCredentials, key)
}
