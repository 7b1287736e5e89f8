// Package database is the single gateway to the embedded SQLite store.
//
// All access goes through Exec, FetchOne and FetchMany. The handle keeps a
// single open connection, so statements execute in the order they are
// submitted.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eurobrokers/leadcapture/pkg/logger"
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// Error is returned for every failure reported by the SQLite driver.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result carries the metadata of an executed statement.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Row is satisfied by *sql.Rows.
type Row interface {
	Scan(dest ...any) error
}

type DB struct {
	sql  *sql.DB
	path string
}

// Open creates the parent directory of path when missing, opens the
// database file and brings the schema up to date.
func Open(ctx context.Context, path string) (*DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := memoryPath
	if path != memoryPath {
		path = filepath.Clean(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, &Error{Op: "ping", Err: err}
	}

	db := &DB{sql: sqlDB, path: path}
	if err := db.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("Database connected", "path", path)
	return db, nil
}

// New wraps an already opened handle without touching the schema.
func New(sqlDB *sql.DB) *DB {
	return &DB{sql: sqlDB}
}

// Path is the file the handle was opened on; empty for handles from New.
func (db *DB) Path() string { return db.path }

// Ping checks that the connection still answers.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.sql.PingContext(ctx); err != nil {
		return &Error{Op: "ping", Err: err}
	}
	return nil
}

func (db *DB) Close() error {
	if db == nil || db.sql == nil {
		return nil
	}
	return db.sql.Close()
}

// Exec runs a statement that returns no rows.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	res, err := db.sql.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, &Error{Op: "exec", Err: err}
	}
	var out Result
	// SQLite always reports both values; other drivers may not.
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	return out, nil
}

// FetchOne scans the first row of query into dest. A query that matches
// nothing reports found == false and no error.
func (db *DB) FetchOne(ctx context.Context, query string, args []any, dest ...any) (bool, error) {
	err := db.sql.QueryRowContext(ctx, query, args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &Error{Op: "fetch one", Err: err}
	}
	return true, nil
}

// FetchMany calls scan once per row, in result order.
func (db *DB) FetchMany(ctx context.Context, query string, args []any, scan func(Row) error) error {
	rows, err := db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return &Error{Op: "fetch many", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return &Error{Op: "fetch many", Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return &Error{Op: "fetch many", Err: err}
	}
	return nil
}
