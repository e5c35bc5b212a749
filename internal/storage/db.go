// Package storage provides the SQLite persistence layer: the entity mirror
// tables (tasks/projects/sections/labels), the activity event log, and the
// plan/plan-task-record tables, plus multi-process locking around writes.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// openConn opens a SQLite connection with safe defaults for multi-process access.
func openConn(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Pin to a single connection — SQLite only supports one writer,
	// and this prevents the pool from opening extra connections that
	// could corrupt the WAL/SHM files under concurrent access.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	conn.Exec("PRAGMA synchronous=NORMAL")

	return conn, nil
}

// DB wraps the database connection.
type DB struct {
	conn    *sql.DB
	baseDir string
}

// Open opens dbPath, creating and running the schema if the file doesn't
// exist yet, then applying any pending migrations.
func Open(dbPath string) (*DB, error) {
	baseDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	_, statErr := os.Stat(dbPath)
	fresh := os.IsNotExist(statErr)

	conn, err := openConn(dbPath)
	if err != nil {
		return nil, err
	}

	if fresh {
		if _, err := conn.Exec(schema); err != nil {
			conn.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	db := &DB{conn: conn, baseDir: baseDir}
	if _, err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Close flushes the WAL back into the main database file before closing the
// connection, preventing stale -wal/-shm files from lingering when another
// process opens the database later.
func (db *DB) Close() error {
	db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return db.conn.Close()
}

// SetMaxOpenConns sets the maximum number of open connections to the
// database. SQLite's single-writer semantics mean this should normally stay
// at 1 for a long-running daemon.
func (db *DB) SetMaxOpenConns(n int) {
	db.conn.SetMaxOpenConns(n)
}

// BaseDir returns the directory containing the database file.
func (db *DB) BaseDir() string {
	return db.baseDir
}

// withWriteLock executes fn while holding an exclusive cross-process write
// lock, serializing writes from multiple instances pointed at the same
// database file.
func (db *DB) withWriteLock(fn func() error) error {
	locker := newWriteLocker(db.baseDir)
	if err := locker.acquire(defaultTimeout); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}
