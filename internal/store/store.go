// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// schema is the catalog and interaction schema. Events and courses live
// in separate tables with independent ID spaces; an item's identity is
// therefore (id, item_type). Preferences are stored as a JSON document
// per user, interactions are append-only.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	date TEXT,
	location TEXT,
	tags TEXT,
	description TEXT,
	url TEXT UNIQUE,
	source TEXT,
	popularity INTEGER DEFAULT 0,
	created_at TEXT DEFAULT (datetime('now')),
	updated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS courses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	provider TEXT,
	tags TEXT,
	description TEXT,
	start_date TEXT,
	url TEXT UNIQUE,
	duration TEXT,
	price REAL,
	rating REAL,
	source TEXT,
	popularity INTEGER DEFAULT 0,
	created_at TEXT DEFAULT (datetime('now')),
	updated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS users (
	user_id INTEGER PRIMARY KEY,
	username TEXT,
	first_name TEXT,
	last_name TEXT,
	preferences TEXT,
	registration_date TEXT DEFAULT (datetime('now')),
	last_activity TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS interactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER REFERENCES users(user_id),
	item_id INTEGER,
	item_type TEXT CHECK(item_type IN ('event', 'course')),
	interaction_type TEXT CHECK(interaction_type IN ('view', 'like', 'dislike', 'bookmark', 'recommendation')),
	timestamp TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS queries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER REFERENCES users(user_id),
	query TEXT NOT NULL,
	timestamp TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_events_tags ON events(tags);
CREATE INDEX IF NOT EXISTS idx_courses_tags ON courses(tags);
CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id);
CREATE INDEX IF NOT EXISTS idx_queries_user ON queries(user_id);
`

// Store is the SQLite-backed catalog and interaction store. It
// serializes conflicting writes through a single write connection, so
// callers need no locking of their own.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens or creates the database at path and applies the schema.
// Use ":memory:" for an ephemeral store in tests.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite does not support concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}

	if err := s.migrate(); err != nil {
		_ = db.Close() //nolint:errcheck // already failing, close is best-effort
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("database ready")
	return s, nil
}

// migrate applies the schema. All statements are idempotent.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
