package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite (pure Go).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Init creates the schema tables.
func (s *SQLiteStore) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tool_calls (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT NOT NULL UNIQUE,
		tool        TEXT NOT NULL,
		args        TEXT NOT NULL DEFAULT '{}',
		result      TEXT NOT NULL DEFAULT '',
		is_error    INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tool_calls_tool ON tool_calls(tool);
	CREATE INDEX IF NOT EXISTS idx_tool_calls_created ON tool_calls(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertCall records a tool invocation.
func (s *SQLiteStore) InsertCall(c Call) error {
	_, err := s.db.Exec(
		`INSERT INTO tool_calls (id, tool, args, result, is_error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Tool, c.Args, c.Result, c.IsError, c.DurationMS, c.CreatedAt.UTC(),
	)
	return err
}

// ListCalls returns recent invocations, newest first.
func (s *SQLiteStore) ListCalls(tool string, limit int) ([]Call, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT id, tool, args, result, is_error, duration_ms, created_at FROM tool_calls`
	args := []any{}
	if tool != "" {
		query += ` WHERE tool = ?`
		args = append(args, tool)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	calls := []Call{}
	for rows.Next() {
		var c Call
		if err := rows.Scan(&c.ID, &c.Tool, &c.Args, &c.Result, &c.IsError, &c.DurationMS, &c.CreatedAt); err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}
