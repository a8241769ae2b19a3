// Package sqlite implements the repository interfaces on top of an embedded
// SQLite database. It is the default store: a single file next to the binary,
// no server to run, and ":memory:" for tests.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// modernc.org/sqlite is a pure Go translation of the SQLite C code. There is
// no cgo, so the server cross-compiles like any other Go program.
//
// database/sql types used here:
//   - sql.DB: the connection pool
//   - sql.Tx: CreateNote writes the note and credits the user in one
//   - sql.Rows: result sets, always closed with defer
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql at init time.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
//
// WHY WRAP sql.DB IN A STRUCT?
// 1. We can attach methods to it (CreateNote, GetUserByID, etc.)
// 2. It implements both NoteRepository and UserRepository from repository.go
// 3. We control the lifecycle (New creates it, Close destroys it)
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/notes.db"  → file-based database (persistent)
//   - ":memory:"       → in-memory database (great for tests, lost on close)
//
// CONNECTION POOL:
// sql.Open only builds the pool; nothing is dialled yet.
// We call db.Ping() to force an immediate connection and verify it works.
//
// ONE CONNECTION:
// SQLite allows a single writer at a time, and every ":memory:" connection is
// its own private database. Capping the pool at one connection gives us
// serialized writes (no SQLITE_BUSY under load) and makes ":memory:" behave
// like one database instead of one per pooled connection.
func New(dbPath string) (*DB, error) {
	// Open a connection pool to the SQLite database.
	// "sqlite" is the driver name registered by the blank import above.
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// Ping verifies the connection actually works.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) mode lets readers proceed while a write is
	// in progress. It has no effect on ":memory:" databases.
	if !strings.HasPrefix(dbPath, ":memory:") {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
		}
	}

	db := newWithConn(conn)

	// Run database migrations to create/update tables
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// newWithConn wraps an already-open pool without running migrations.
// Tests use it to put a go-sqlmock connection behind the repository.
func newWithConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the tables if they don't exist yet.
//
// SCHEMA NOTES:
//   - notes has a composite PRIMARY KEY (user_id, date). The database itself
//     enforces "one note per user per day", so two racing submissions for the
//     same day cannot both be stored.
//   - notes.created_at is INTEGER unix milliseconds (UTC). Range queries
//     compare integers, which avoids depending on how the driver formats
//     DATETIME text.
//   - notes.categories holds the ordered label list as a JSON array.
//   - There is deliberately no foreign key from notes to users: a note is
//     kept even when its owner's record is missing or later deleted.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL DEFAULT '',
			email          TEXT NOT NULL DEFAULT '',
			photo          TEXT NOT NULL DEFAULT '',
			full_name      TEXT NOT NULL DEFAULT '',
			age            TEXT NOT NULL DEFAULT '',
			rahat          TEXT NOT NULL DEFAULT '',
			phone_number   TEXT NOT NULL DEFAULT '',
			points         INTEGER NOT NULL DEFAULT 0,
			last_note_date TEXT,
			is_admin       INTEGER NOT NULL DEFAULT 0,
			login_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_leaderboard ON users(is_admin, points DESC, id);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			user_id    TEXT NOT NULL,
			date       TEXT NOT NULL,
			categories TEXT NOT NULL DEFAULT '[]',
			points     INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, date)
		);
		CREATE INDEX IF NOT EXISTS idx_notes_user_created ON notes(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating notes table: %w", err)
	}

	return nil
}
