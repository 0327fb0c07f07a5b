// Package store implements the embedded save file. It is a SQLite
// database used purely as a key/value log: one row per entity, keyed
// by its id, value encoded with CBOR. The World is the runtime truth;
// this package is never queried during normal operation except at
// boot, when LoadWorld rebuilds the World from disk.
package store

import (
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS world_tasks (
	id    BLOB PRIMARY KEY,
	value BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS world_users (
	id    BLOB PRIMARY KEY,
	value BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS world_services (
	id    BLOB PRIMARY KEY,
	value BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS world_meta (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

// pragmas applied to the single connection backing the save file. The
// same set the rest of the pack's SQLite users apply, minus pooling —
// the World's own write-exclusive lock already serializes writers, so
// a connection pool would just add an unused layer of queuing.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=OFF",
	"PRAGMA cache_size=-8192",
	"PRAGMA mmap_size=268435456",
	"PRAGMA temp_store=MEMORY",
}

// SaveFile is a thin handle to the SQLite-backed save file. Not safe
// for concurrent use by multiple goroutines — callers must serialize
// access to it the same way they serialize access to the World (in
// practice, Flush is always called while holding the World's write
// lock).
type SaveFile struct {
	conn *sqlite.Conn
	path string
}

// Open opens (or creates) the save file at path and ensures its
// tables exist.
func Open(path string) (*SaveFile, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}

	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: creating schema: %w", err)
	}

	return &SaveFile{conn: conn, path: path}, nil
}

// Close closes the underlying connection.
func (sf *SaveFile) Close() error {
	if err := sf.conn.Close(); err != nil {
		return fmt.Errorf("store: closing %s: %w", sf.path, err)
	}
	return nil
}
