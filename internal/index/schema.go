// Package index keeps a SQLite projection of the last known tags of every journal
// file. The projection is rebuilt from the event log and is never written to
// independently.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS file_tags (
	file      TEXT PRIMARY KEY,
	tags      TEXT NOT NULL DEFAULT '[]',
	event     TEXT NOT NULL DEFAULT '',
	timestamp TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tag_members (
	tag  TEXT NOT NULL,
	file TEXT NOT NULL,
	UNIQUE(tag, file)
);

CREATE INDEX IF NOT EXISTS idx_tag_members_tag ON tag_members(tag);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// DB wraps a sql.DB with projection-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
