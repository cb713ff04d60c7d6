// Package index provides a SQLite-backed cache of the image references found
// in each document, refreshed incrementally by checksum.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS image_refs (
	document TEXT NOT NULL REFERENCES documents(path) ON DELETE CASCADE,
	seq      INTEGER NOT NULL,
	line     INTEGER NOT NULL,
	alt      TEXT NOT NULL DEFAULT '',
	path     TEXT NOT NULL,
	match    TEXT NOT NULL,
	renders  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (document, seq)
);

CREATE INDEX IF NOT EXISTS idx_image_refs_path ON image_refs(path);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
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
