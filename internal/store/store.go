package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "churchplan.sqlite"

var (
	ErrNotFound   = errors.New("not found")
	ErrMissingRow = errors.New("row does not exist")
)

// Store is the durable copy of events and their running orders. It is safe for
// concurrent use; writes are serialized on a single connection.
type Store struct {
	Dir    string
	Logger *slog.Logger

	db *sql.DB
}

// DefaultDir resolves the data directory: $CHURCHPLAN_DIR, else <config dir>/data.
func DefaultDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("CHURCHPLAN_DIR")); v != "" {
		return v, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// Open opens (creating if needed) the SQLite file under dir and migrates its schema.
func Open(ctx context.Context, dir string, logger *slog.Logger) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("missing store dir")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", filepath.Join(dir, sqliteFileName))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked"
	// when the CLI runs next to another process.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("store opened", "dir", dir)
	return &Store{Dir: dir, Logger: logger, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			starts_at TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			timeline_revision INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS steps (
			event_id TEXT NOT NULL,
			id TEXT NOT NULL,
			title TEXT NOT NULL,
			ord INTEGER NOT NULL,
			deleted INTEGER NOT NULL DEFAULT 0,
			revision INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY (event_id, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_steps_event ON steps(event_id, deleted, ord);`,
		`CREATE TABLE IF NOT EXISTS items (
			event_id TEXT NOT NULL,
			id TEXT NOT NULL,
			step_id TEXT NOT NULL,
			title TEXT NOT NULL,
			subtitle TEXT NOT NULL,
			explicit_time TEXT NOT NULL,
			inferred_time TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			participants_json TEXT NOT NULL,
			ord INTEGER NOT NULL,
			deleted INTEGER NOT NULL DEFAULT 0,
			revision INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY (event_id, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_event ON items(event_id, deleted);`,
		`CREATE INDEX IF NOT EXISTS idx_items_step ON items(event_id, step_id, ord);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}
