package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "nested", "test.db"), Name: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_CreatesDirectoryAndDefaultsProfile(t *testing.T) {
	db := newTestDB(t)

	assert.Equal(t, ProfileStandard, db.profile)
	assert.True(t, filepath.IsAbs(db.Path()))
	assert.Equal(t, "test", db.Name())
	require.NoError(t, db.HealthCheck(context.Background()))
}

func TestBuildConnectionString(t *testing.T) {
	assert.Contains(t, buildConnectionString("/tmp/a.db", ProfileStandard), "/tmp/a.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, buildConnectionString("/tmp/a.db", ProfileStandard), "synchronous(NORMAL)")
	assert.Contains(t, buildConnectionString("/tmp/a.db", ProfileCache), "synchronous(OFF)")
	assert.Contains(t, buildConnectionString("file:x?mode=memory", ProfileCache), "file:x?mode=memory&_pragma=")
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	schema := `CREATE TABLE IF NOT EXISTS items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`

	require.NoError(t, db.Migrate(ctx, schema))
	require.NoError(t, db.Migrate(ctx, schema))

	_, err := db.Conn().ExecContext(ctx, `INSERT INTO items (name) VALUES ('a')`)
	require.NoError(t, err)
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx, `CREATE TABLE IF NOT EXISTS items (name TEXT NOT NULL);`))

	count := func() int {
		var n int
		require.NoError(t, db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n))
		return n
	}

	t.Run("commits on success", func(t *testing.T) {
		err := WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO items (name) VALUES ('ok')`)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, count())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `INSERT INTO items (name) VALUES ('lost')`); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, count())
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		err := WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO items (name) VALUES ('lost')`)
			panic("bad")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic in transaction")
		assert.Equal(t, 1, count())
	})

	t.Run("nil connection", func(t *testing.T) {
		assert.Error(t, WithTransaction(ctx, nil, func(*sql.Tx) error { return nil }))
	})
}
