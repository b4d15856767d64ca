// Package database provides the SQLite-backed run history store. Report
// folders hold the authoritative per-run artifacts; the database keeps a
// queryable index of past executions that survives report cleanup.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Import sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with additional functionality
type DB struct {
	conn *sql.DB
	path string
}

// Config holds database configuration options
type Config struct {
	Path            string        // Database file path
	MaxOpenConns    int           // Maximum number of open connections
	MaxIdleConns    int           // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum connection lifetime
	BusyTimeout     time.Duration // SQLite busy timeout
}

// DefaultConfig returns sensible defaults for database configuration
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     5 * time.Second,
	}
}

// Open creates a new database connection with optimized settings
// Enables WAL mode, foreign keys, and sets busy timeout for better concurrency
func Open(path string) (*DB, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig creates a new database connection with custom configuration
func OpenWithConfig(cfg Config) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d",
		cfg.Path,
		int(cfg.BusyTimeout.Milliseconds()),
	)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		conn: conn,
		path: cfg.Path,
	}

	// Verify WAL mode is enabled
	var journalMode string
	if err := db.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		conn.Close()
		return nil, fmt.Errorf("WAL mode not enabled (got %s)", journalMode)
	}

	// Verify foreign keys are enabled
	var foreignKeys int
	if err := db.conn.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to verify foreign keys: %w", err)
	}
	if foreignKeys != 1 {
		conn.Close()
		return nil, fmt.Errorf("foreign keys not enabled")
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
// Use with caution - prefer using the DB methods for safety
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// InitSchema creates the run history tables if they do not exist
func (db *DB) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		playbook_name TEXT NOT NULL,
		run_dir TEXT NOT NULL,
		step_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_playbook_name ON runs(playbook_name);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS run_steps (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		module TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT NOT NULL,
		completed_at TIMESTAMP NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
