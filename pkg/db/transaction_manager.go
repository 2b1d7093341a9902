// pkg/db/transaction_manager.go
package db

import (
	"context"
	"errors"
	"log/slog"
)

// ErrTxDone is returned by Commit or Rollback on a unit of work that has
// already been committed or rolled back.
var ErrTxDone = errors.New("transaction has already been committed or rolled back")

// TxController defines methods for controlling a unit of work.
type TxController interface {
	Commit() error
	Rollback() error
}

// TxBeginner defines the interface for beginning units of work.
// Every kvstore backend implements this.
type TxBeginner interface {
	BeginTx(ctx context.Context) (TxController, error)
}

// BeginTxFunc, CommitTxFunc and RollbackTxFunc are injected into services so
// tests can observe or replace transaction handling.
type (
	BeginTxFunc    func(ctx context.Context, beginner TxBeginner) (TxController, error)
	CommitTxFunc   func(tx TxController) error
	RollbackTxFunc func(tx TxController)
)

// BeginTx starts a new unit of work.
func BeginTx(ctx context.Context, beginner TxBeginner) (TxController, error) {
	return beginner.BeginTx(ctx)
}

// CommitTx commits the unit of work.
func CommitTx(tx TxController) error {
	return tx.Commit()
}

// RollbackTx rolls back the unit of work.
// It is meant to be deferred, so ErrTxDone after a successful commit is ignored.
func RollbackTx(tx TxController) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, ErrTxDone) {
		slog.Default().Warn("Error rolling back transaction", "error", err)
	}
}
