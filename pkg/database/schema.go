package database

import (
	"context"
	"strings"

	"github.com/eurobrokers/leadcapture/pkg/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city TEXT NOT NULL,
		psc TEXT NOT NULL,
		type TEXT NOT NULL,
		area REAL NOT NULL,
		layout TEXT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		contacted INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at)`,
}

// Columns added to leads after the first release. Databases created
// before them gain the column on the next start.
var addedColumns = []struct {
	table, column, decl string
}{
	{"leads", "balcony", "TEXT"},
	{"leads", "condition", "TEXT"},
}

// Migrate declares every table and adds late columns. It is safe to run
// against a database that is already up to date.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	for _, c := range addedColumns {
		_, err := db.Exec(ctx, "ALTER TABLE "+c.table+" ADD COLUMN "+c.column+" "+c.decl)
		if err == nil {
			logger.Info("Column added", "table", c.table, "column", c.column)
			continue
		}
		if !IsDuplicateColumn(err) {
			return err
		}
	}
	return nil
}

// IsDuplicateColumn reports whether err is SQLite refusing to add a column
// that already exists.
func IsDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
