package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewPostgres(sqlx.NewDb(conn, "postgres")), mock
}

func TestPostgresGet(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		store, mock := newMockPostgres(t)
		mock.ExpectQuery(regexp.QuoteMeta(pgGetQuery)).
			WithArgs("accounts/1").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"id":"1"}`)))

		v, err := store.Get(ctx, "accounts/1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"1"}`, string(v))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing", func(t *testing.T) {
		store, mock := newMockPostgres(t)
		mock.ExpectQuery(regexp.QuoteMeta(pgGetQuery)).
			WithArgs("accounts/2").
			WillReturnError(sql.ErrNoRows)

		_, err := store.Get(ctx, "accounts/2")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresListEscapesPrefix(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(pgListQuery)).
		WithArgs(`plans/50\%\_%`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("plans/50%_a", []byte(`{}`)))

	entries, err := store.List(ctx, "plans/50%_")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "plans/50%_a", entries[0].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTxCommit(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(pgPutQuery)).
		WithArgs("accounts/1", []byte(`{}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(pgDeleteQuery)).
		WithArgs("accounts/2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	txc, err := store.BeginTx(ctx)
	require.NoError(t, err)
	tx := txc.(Tx)
	require.NoError(t, tx.Put(ctx, "accounts/1", []byte(`{}`)))
	require.NoError(t, tx.Delete(ctx, "accounts/2"))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTxRollbackOnFailure(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(pgPutQuery)).
		WithArgs("accounts/1", []byte(`{}`), sqlmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	txc, err := store.BeginTx(ctx)
	require.NoError(t, err)
	tx := txc.(Tx)

	err = tx.Put(ctx, "accounts/1", []byte(`{}`))
	assert.ErrorContains(t, err, "disk full")
	require.NoError(t, tx.Rollback())

	assert.NoError(t, mock.ExpectationsWereMet())
}
