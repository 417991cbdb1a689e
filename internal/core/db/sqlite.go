// Package db owns the core's single sqlite connection and the schema
// migrations applied to it. Every store (session, memory, skills) shares one
// *sql.DB through Store; sqlite is single-writer so callers serialize
// through this one connection rather than opening their own.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agentcore/core/internal/core/db/migrations"

	_ "modernc.org/sqlite" // pure-Go driver, no cgo
)

// Store wraps the shared *sql.DB handed to every subsystem store.
type Store struct {
	DB *sql.DB
}

// Open creates (if needed) the database file at path, enforces the
// single-connection WAL discipline sqlite needs for a single-writer
// process, and applies pending migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// sqlite does not handle concurrent writers well; every access is
	// serialized through this single connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrations.Run(conn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		logger.Info("sqlite store initialized", "path", path)
	}
	return &Store{DB: conn}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.DB.Close()
}
