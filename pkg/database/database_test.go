package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eurobrokers/leadcapture/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, path string) *DB {
	t.Helper()
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableColumns(t *testing.T, db *DB, table string) []string {
	t.Helper()
	var cols []string
	err := db.FetchMany(context.Background(), "PRAGMA table_info("+table+")", nil, func(r Row) error {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := r.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return err
		}
		cols = append(cols, name)
		return nil
	})
	require.NoError(t, err)
	return cols
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}

func TestOpenCreatesMissingDirectory(t *testing.T) {
	logger.UseTestLogger(t)
	path := filepath.Join(t.TempDir(), "nested", "deeper", "leads.db")

	db := openTestDB(t, path)

	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	assert.Contains(t, tableColumns(t, db, "users"), "password_hash")
	assert.Subset(t, tableColumns(t, db, "leads"), []string{"psc", "type", "balcony", "condition", "contacted", "created_at"})
	assert.Contains(t, tableColumns(t, db, "sessions"), "expires_at")
}

func TestOpenIsRepeatable(t *testing.T) {
	logger.UseTestLogger(t)
	path := filepath.Join(t.TempDir(), "leads.db")

	first, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := openTestDB(t, path)
	require.NoError(t, second.Migrate(context.Background()))
	assert.Subset(t, tableColumns(t, second, "leads"), []string{"balcony", "condition"})
}

func TestOpenAddsColumnsToOlderDatabase(t *testing.T) {
	logger.UseTestLogger(t)
	path := filepath.Join(t.TempDir(), "legacy.db")

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE leads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city TEXT NOT NULL, psc TEXT NOT NULL, type TEXT NOT NULL, area REAL NOT NULL,
		layout TEXT, first_name TEXT NOT NULL, last_name TEXT NOT NULL,
		email TEXT NOT NULL, phone TEXT NOT NULL,
		contacted INTEGER DEFAULT 0, created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	db := openTestDB(t, path)
	assert.Subset(t, tableColumns(t, db, "leads"), []string{"balcony", "condition"})
}

func TestExecFetchOneFetchMany(t *testing.T) {
	logger.UseTestLogger(t)
	db := openTestDB(t, ":memory:")
	ctx := context.Background()

	res, err := db.Exec(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, "a@x.cz", "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.LastInsertID)
	assert.Equal(t, int64(1), res.RowsAffected)

	_, err = db.Exec(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, "b@x.cz", "h2")
	require.NoError(t, err)

	var email string
	found, err := db.FetchOne(ctx, `SELECT email FROM users WHERE id = ?`, []any{int64(2)}, &email)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b@x.cz", email)

	found, err = db.FetchOne(ctx, `SELECT email FROM users WHERE id = ?`, []any{int64(99)}, &email)
	require.NoError(t, err)
	assert.False(t, found)

	var emails []string
	err = db.FetchMany(ctx, `SELECT email FROM users ORDER BY id DESC`, nil, func(r Row) error {
		var e string
		if err := r.Scan(&e); err != nil {
			return err
		}
		emails = append(emails, e)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b@x.cz", "a@x.cz"}, emails)
}

func TestDriverFailuresAreTyped(t *testing.T) {
	logger.UseTestLogger(t)
	db := openTestDB(t, ":memory:")
	ctx := context.Background()

	_, err := db.Exec(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, "a@x.cz", "h")
	require.NoError(t, err)
	_, err = db.Exec(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, "a@x.cz", "h")

	var dbErr *Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "exec", dbErr.Op)

	var n int
	_, err = db.FetchOne(ctx, `SELECT nope FROM users`, nil, &n)
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "fetch one", dbErr.Op)

	err = db.FetchMany(ctx, `SELECT * FROM missing_table`, nil, func(Row) error { return nil })
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "fetch many", dbErr.Op)
}

func TestMigrateIgnoresOnlyDuplicateColumn(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db := New(sqlDB)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS leads").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_sessions_expires_at").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE leads ADD COLUMN balcony").
		WillReturnError(errors.New("SQL logic error: duplicate column name: balcony (1)"))
	mock.ExpectExec("ALTER TABLE leads ADD COLUMN condition").
		WillReturnError(errors.New("disk I/O error"))

	err = db.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateColumn(t *testing.T) {
	assert.True(t, IsDuplicateColumn(&Error{Op: "exec", Err: errors.New("duplicate column name: condition")}))
	assert.False(t, IsDuplicateColumn(errors.New("no such table: leads")))
	assert.False(t, IsDuplicateColumn(nil))
}
