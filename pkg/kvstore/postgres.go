package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"finflow-invest/pkg/db"
)

// sqlExecutor is satisfied by both *sqlx.DB and *sqlx.Tx, so the same query
// code serves direct calls and units of work.
type sqlExecutor interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const (
	pgGetQuery    = `SELECT value FROM kv_store WHERE key = $1`
	pgListQuery   = `SELECT key, value FROM kv_store WHERE key LIKE $1 ESCAPE '\' ORDER BY key`
	pgPutQuery    = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, $3) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	pgDeleteQuery = `DELETE FROM kv_store WHERE key = $1`
)

// Postgres is a Store backed by the kv_store table (see pkg/db/migrations).
type Postgres struct {
	db *sqlx.DB
	pgOps
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps an open connection.
func NewPostgres(database *sqlx.DB) *Postgres {
	return &Postgres{db: database, pgOps: pgOps{q: database}}
}

// BeginTx starts a native database transaction.
func (p *Postgres) BeginTx(ctx context.Context) (db.TxController, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &pgTx{tx: tx, pgOps: pgOps{q: tx}}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

type pgTx struct {
	tx *sqlx.Tx
	pgOps
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return db.ErrTxDone
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *pgTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return db.ErrTxDone
		}
		return err
	}
	return nil
}

type pgOps struct {
	q sqlExecutor
}

func (o pgOps) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := o.q.GetContext(ctx, &value, pgGetQuery, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, nil
}

func (o pgOps) List(ctx context.Context, prefix string) ([]Entry, error) {
	entries := []Entry{}
	if err := o.q.SelectContext(ctx, &entries, pgListQuery, likePrefix(prefix)); err != nil {
		return nil, fmt.Errorf("failed to list prefix %q: %w", prefix, err)
	}
	return entries, nil
}

func (o pgOps) Put(ctx context.Context, key string, value []byte) error {
	if _, err := o.q.ExecContext(ctx, pgPutQuery, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put key %q: %w", key, err)
	}
	return nil
}

func (o pgOps) Delete(ctx context.Context, key string) error {
	if _, err := o.q.ExecContext(ctx, pgDeleteQuery, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
