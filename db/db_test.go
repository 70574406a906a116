package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"buywise/config"
)

func TestDriverFor(t *testing.T) {
	t.Parallel()

	require.Equal(t, Postgres, DriverFor("postgres://u:p@localhost:5432/buywise"))
	require.Equal(t, Postgres, DriverFor("postgresql://localhost/buywise"))
	require.Equal(t, LibSQL, DriverFor("libsql://buywise-acme.turso.io"))
	require.Equal(t, SQLite, DriverFor("file:data/buywise.db"))
	require.Equal(t, SQLite, DriverFor(":memory:"))
}

func TestEnsureAuthTokenQuery(t *testing.T) {
	t.Parallel()

	require.Equal(t, "libsql://db.turso.io?authToken=tok", ensureAuthTokenQuery("libsql://db.turso.io", "tok"))
	require.Equal(t, "libsql://db.turso.io?authToken=keep", ensureAuthTokenQuery("libsql://db.turso.io?authToken=keep", "tok"))
	require.Equal(t, "libsql://db.turso.io", ensureAuthTokenQuery("libsql://db.turso.io", ""))
}

func TestNewSQLXDB_DisabledWithoutDSN(t *testing.T) {
	t.Parallel()

	got, err := NewSQLXDB(NewSQLXDBParams{
		Lc:     fxtest.NewLifecycle(t),
		Cfg:    &config.Config{},
		Logger: zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = Tx(context.Background(), got, func(*sqlx.Tx) (int, error) { return 1, nil })
	require.ErrorIs(t, err, ErrDBDisabled)
}

func TestMigrateAndTx_SQLiteMemory(t *testing.T) {
	conn, drv, err := Open(":memory:", "")
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn, drv, "up"))

	_, err = Tx(ctx, conn, func(tx *sqlx.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, `INSERT INTO watch_entries (id, user_id, query, target_price, created_at, last_checked_at) VALUES (?, ?, ?, ?, ?, ?)`,
			"watch:1", "u1", "phone", 1000.0, 1, 1)
		return struct{}{}, err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = Tx(ctx, conn, func(tx *sqlx.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM watch_entries`); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM watch_entries`))
	require.Equal(t, 1, n, "failed tx rolls back")
}
