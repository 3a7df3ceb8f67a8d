package testdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

// taskTables are emptied by ResetTables.
const taskTables = "task_activity_logs, task_comments, tasks"

// testGooseLogger routes goose output through the test log.
type testGooseLogger struct {
	t *testing.T
}

func (l *testGooseLogger) Printf(format string, v ...interface{}) {
	l.t.Logf("goose: "+format, v...)
}

func (l *testGooseLogger) Fatalf(format string, v ...interface{}) {
	l.t.Errorf("goose: "+format, v...)
}

// GetTestDBWithT opens the test database and brings its schema up to date.
// The test is skipped when no database URL is configured; in CI a missing
// URL fails the test instead.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		if IsCI() {
			t.Fatalf("no test database configured: set one of %v", DatabaseURLEnvVars)
		}
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "failed to open %s", maskDatabaseURL(dbURL))
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "database at %s is unreachable", maskDatabaseURL(dbURL))

	require.NoError(t, applyMigrations(t, db))
	return db
}

func applyMigrations(t *testing.T, db *sql.DB) error {
	dir, err := FindMigrationsDir()
	if err != nil {
		return err
	}

	// Read from disk even if another caller installed an embedded FS.
	goose.SetBaseFS(nil)
	goose.SetLogger(&testGooseLogger{t: t})
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to apply migrations from %s: %w", dir, err)
	}
	return nil
}

// ResetTables removes every task, comment and activity entry and restarts
// the id sequences.
func ResetTables(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	_, err := db.ExecContext(ctx, "TRUNCATE "+taskTables+" RESTART IDENTITY")
	require.NoError(t, err, "failed to reset task tables")
}

// WithTx runs fn in a transaction that is rolled back afterwards, leaving
// the database untouched.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			t.Errorf("failed to roll back test transaction: %v", rbErr)
		}
	}()

	fn(t, tx)
}
