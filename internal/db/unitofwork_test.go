package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/studybot/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUoW(t *testing.T) *db.SQLiteUnitOfWork {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return db.NewSQLiteUnitOfWork(database)
}

func insertTurn(ctx context.Context, tx db.DBTX, id string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO chat_log (id, session_id, role, message, created_at) VALUES (?, 'sess', 'user', 'hello', '2024-03-04T09:00:00Z')`,
		id)
	return err
}

func countTurns(t *testing.T, uow *db.SQLiteUnitOfWork, id string) int {
	t.Helper()
	var n int
	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_log WHERE id = ?`, id).Scan(&n)
	})
	require.NoError(t, err)
	return n
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	uow := newUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return insertTurn(ctx, tx, "t1")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countTurns(t, uow, "t1"))
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	uow := newUoW(t)
	boom := errors.New("deliberate failure")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertTurn(ctx, tx, "t2"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countTurns(t, uow, "t2"))
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	uow := newUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertTurn(ctx, tx, "t3")
			panic("boom")
		})
	})
	assert.Equal(t, 0, countTurns(t, uow, "t3"))
}
