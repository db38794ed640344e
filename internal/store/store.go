// Package store persists a full Index into SQLite. The database is a
// dump artifact for offline inspection and tooling, not the engine's
// working state: the engine always queries the in-memory Index.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the index dump.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id            INTEGER PRIMARY KEY,
  path          TEXT NOT NULL UNIQUE,
  last_indexed  TIMESTAMP
);

CREATE TABLE IF NOT EXISTS symbols (
  id          INTEGER PRIMARY KEY,
  file_id     INTEGER NOT NULL REFERENCES files(id),
  name        TEXT NOT NULL,
  kind        TEXT NOT NULL,
  scope_id    INTEGER,
  signature   TEXT,
  doc         TEXT,
  start_line  INTEGER,
  start_col   INTEGER,
  end_line    INTEGER,
  end_col     INTEGER
);

CREATE TABLE IF NOT EXISTS refs (
  id          INTEGER PRIMARY KEY,
  file_id     INTEGER NOT NULL REFERENCES files(id),
  name        TEXT NOT NULL,
  kind        TEXT NOT NULL,
  start_line  INTEGER,
  start_col   INTEGER,
  end_line    INTEGER,
  end_col     INTEGER
);

CREATE TABLE IF NOT EXISTS typedefs (
  id          INTEGER PRIMARY KEY,
  module      TEXT NOT NULL,
  name        TEXT NOT NULL,
  kind        TEXT NOT NULL,
  file_id     INTEGER REFERENCES files(id),
  start_line  INTEGER,
  start_col   INTEGER,
  end_line    INTEGER,
  end_col     INTEGER
);

CREATE TABLE IF NOT EXISTS signatures (
  id           INTEGER PRIMARY KEY,
  module       TEXT NOT NULL,
  name         TEXT NOT NULL,
  return_type  TEXT,
  doc          TEXT,
  file_id      INTEGER REFERENCES files(id),
  start_line   INTEGER,
  start_col    INTEGER,
  end_line     INTEGER,
  end_col      INTEGER
);

CREATE TABLE IF NOT EXISTS signature_params (
  id            INTEGER PRIMARY KEY,
  signature_id  INTEGER NOT NULL REFERENCES signatures(id),
  position      INTEGER NOT NULL,
  name          TEXT NOT NULL,
  type          TEXT
);

CREATE TABLE IF NOT EXISTS exports (
  id      INTEGER PRIMARY KEY,
  module  TEXT NOT NULL,
  name    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS modules (
  id        INTEGER PRIMARY KEY,
  name      TEXT NOT NULL UNIQUE,
  position  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scopes (
  id               INTEGER PRIMARY KEY,
  file_id          INTEGER NOT NULL REFERENCES files(id),
  scope_id         INTEGER NOT NULL,
  parent_scope_id  INTEGER,
  start_line       INTEGER,
  start_col        INTEGER,
  end_line         INTEGER,
  end_col          INTEGER
);

CREATE INDEX IF NOT EXISTS idx_symbols_name    ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_file    ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_refs_name       ON refs(name);
CREATE INDEX IF NOT EXISTS idx_typedefs_module ON typedefs(module);
CREATE INDEX IF NOT EXISTS idx_sigs_module     ON signatures(module, name);
CREATE INDEX IF NOT EXISTS idx_exports_module  ON exports(module);
CREATE INDEX IF NOT EXISTS idx_scopes_file     ON scopes(file_id);
`
