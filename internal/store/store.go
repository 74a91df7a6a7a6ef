// Package store is the embedded relational store of §4.3/§6: three content
// tables (files, symbols, relations) plus the watcher_owner coordination
// singleton, backed by SQLite through mattn/go-sqlite3.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer shared by the files, symbols,
// relations, and ownership repositories. Two connections share the same
// database file: db defaults to deferred transactions, immediate opens its
// transactions with _txlock=immediate so the ownership protocol's
// read-then-write in acquire() reserves the write lock up front (§4.8)
// without requiring a raw BEGIN IMMEDIATE on a database/sql.Tx, which the
// driver does not expose.
type Store struct {
	db        *sql.DB
	immediate *sql.DB
}

// Open opens a SQLite database at dbPath in WAL mode with a busy timeout,
// then runs the migration sequence of §9's foreign-key-toggle design note:
// enable WAL, disable FK, migrate, integrity-check, re-enable FK.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	immediate, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open database (immediate): %w", err)
	}
	if err := immediate.Ping(); err != nil {
		db.Close()
		immediate.Close()
		return nil, fmt.Errorf("ping database (immediate): %w", err)
	}
	s := &Store{db: db, immediate: immediate}
	if err := s.migrate(); err != nil {
		db.Close()
		immediate.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connections.
func (s *Store) Close() error {
	err1 := s.db.Close()
	err2 := s.immediate.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// DB returns the underlying *sql.DB for use by repositories.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`PRAGMA foreign_keys = OFF;`); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	var ok string
	row := s.db.QueryRow(`PRAGMA integrity_check;`)
	if err := row.Scan(&ok); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if ok != "ok" {
		return fmt.Errorf("integrity check failed: %s", ok)
	}
	if _, err := s.db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  project       TEXT NOT NULL,
  file_path     TEXT NOT NULL,
  mtime_ms      INTEGER NOT NULL,
  size          INTEGER NOT NULL,
  content_hash  TEXT NOT NULL,
  updated_at    TEXT NOT NULL,
  line_count    INTEGER,
  PRIMARY KEY (project, file_path)
);

CREATE TABLE IF NOT EXISTS symbols (
  id            INTEGER PRIMARY KEY,
  project       TEXT NOT NULL,
  file_path     TEXT NOT NULL,
  name          TEXT NOT NULL,
  kind          TEXT NOT NULL,
  span_start    INTEGER NOT NULL,
  span_end      INTEGER NOT NULL,
  is_exported   INTEGER NOT NULL DEFAULT 0,
  signature     TEXT,
  fingerprint   TEXT NOT NULL,
  detail_json   TEXT NOT NULL DEFAULT '{}',
  modifiers     INTEGER NOT NULL DEFAULT 0,
  FOREIGN KEY (project, file_path) REFERENCES files(project, file_path) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS relations (
  id              INTEGER PRIMARY KEY,
  project         TEXT NOT NULL,
  type            TEXT NOT NULL,
  src_file_path   TEXT NOT NULL,
  src_symbol_name TEXT,
  dst_project     TEXT NOT NULL,
  dst_file_path   TEXT NOT NULL,
  dst_symbol_name TEXT,
  meta_json       TEXT NOT NULL DEFAULT '{}',
  FOREIGN KEY (project, src_file_path) REFERENCES files(project, file_path) ON DELETE CASCADE,
  FOREIGN KEY (dst_project, dst_file_path) REFERENCES files(project, file_path) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS watcher_owner (
  pid           INTEGER NOT NULL,
  heartbeat_at  TEXT NOT NULL,
  instance_id   TEXT
);

CREATE INDEX IF NOT EXISTS idx_symbols_project_file ON symbols(project, file_path);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_relations_src ON relations(project, src_file_path);
CREATE INDEX IF NOT EXISTS idx_relations_dst ON relations(dst_project, dst_file_path);
CREATE INDEX IF NOT EXISTS idx_relations_type ON relations(project, type);

CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
  name, file_path, kind, content='symbols', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS symbols_fts_insert AFTER INSERT ON symbols BEGIN
  INSERT INTO symbols_fts(rowid, name, file_path, kind) VALUES (new.id, new.name, new.file_path, new.kind);
END;

CREATE TRIGGER IF NOT EXISTS symbols_fts_delete AFTER DELETE ON symbols BEGIN
  INSERT INTO symbols_fts(symbols_fts, rowid, name, file_path, kind) VALUES ('delete', old.id, old.name, old.file_path, old.kind);
END;

CREATE TRIGGER IF NOT EXISTS symbols_fts_update AFTER UPDATE ON symbols BEGIN
  INSERT INTO symbols_fts(symbols_fts, rowid, name, file_path, kind) VALUES ('delete', old.id, old.name, old.file_path, old.kind);
  INSERT INTO symbols_fts(rowid, name, file_path, kind) VALUES (new.id, new.name, new.file_path, new.kind);
END;
`

// Tx is the subset of *sql.Tx the repositories need; it lets transaction
// and immediateTransaction share one signature.
type Tx = sql.Tx

// Transaction runs fn inside a deferred (non-write-reserving) transaction,
// per §4.3. Every call begins its own transaction; a call made while
// another transaction is open is not detected or folded into it, so
// callers thread the *Tx through to the repositories rather than calling
// Transaction again.
func (s *Store) Transaction(fn func(tx *Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ImmediateTransaction runs fn inside a write-reserving transaction, used
// by the ownership protocol so the read-then-write of acquire() is atomic
// across processes sharing the store.
func (s *Store) ImmediateTransaction(fn func(tx *Tx) error) error {
	tx, err := s.immediate.Begin()
	if err != nil {
		return fmt.Errorf("begin immediate transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
