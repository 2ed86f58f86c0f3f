// Package store provides the SQLite-backed persistent record store: the
// three primary collections (connections, companies, positions), the query
// cache, visited sets, and the settings key-value table.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion is recorded in PRAGMA user_version on open.
const schemaVersion = 2

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS connections (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL,
	full_name     TEXT NOT NULL,
	email_address TEXT NOT NULL DEFAULT '',
	company       TEXT NOT NULL DEFAULT '',
	position      TEXT NOT NULL DEFAULT '',
	connected_on  TEXT NOT NULL DEFAULT '',
	extra         TEXT NOT NULL DEFAULT '{}',
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_connections_full_name  ON connections(full_name);
CREATE INDEX IF NOT EXISTS idx_connections_company    ON connections(company);
CREATE INDEX IF NOT EXISTS idx_connections_position   ON connections(position);
CREATE INDEX IF NOT EXISTS idx_connections_updated_at ON connections(updated_at);

CREATE TABLE IF NOT EXISTS companies (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	company     TEXT NOT NULL UNIQUE,
	connections TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS positions (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	title    TEXT NOT NULL UNIQUE,
	position TEXT NOT NULL,
	company  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_company ON positions(company);

CREATE TABLE IF NOT EXISTS cache (
	key       TEXT PRIMARY KEY,
	data      TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	size      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cache_timestamp ON cache(timestamp);

CREATE TABLE IF NOT EXISTS visited (
	collection TEXT NOT NULL,
	record_id  INTEGER NOT NULL,
	PRIMARY KEY (collection, record_id)
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store wraps a sql.DB with collection-specific operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: set schema version: %w", err)
	}
	return &Store{conn: conn}, nil
}

// SchemaVersion returns the database's recorded schema version.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if err := s.conn.QueryRow(`PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("store: read schema version: %w", err)
	}
	return v, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
