// Package db persists location jobs, their logs, and the event locations
// they produce in a local SQLite database.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/microseis/gridloc/internal/timeutil"
)

// DB wraps the SQLite handle together with the clock used for row
// timestamps, so tests can pin time.
type DB struct {
	*sql.DB
	clock timeutil.Clock
}

// NewDB opens (creating if needed) the SQLite database at path and applies
// the connection pragmas. The schema is managed separately by MigrateUp.
func NewDB(path string) (*DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc sqlite serializes writes per connection; a single connection
	// avoids SQLITE_BUSY races between the API and the job runner.
	handle.SetMaxOpenConns(1)

	_, err = handle.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
		PRAGMA foreign_keys = ON;
	`)
	if err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &DB{DB: handle, clock: timeutil.RealClock{}}, nil
}

// SetClock replaces the timestamp source. Intended for tests.
func (db *DB) SetClock(c timeutil.Clock) { db.clock = c }

func (db *DB) now() int64 { return db.clock.Now().Unix() }
