// internal/service/service.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"finflow-invest/internal/clock"
	"finflow-invest/internal/lock"
	"finflow-invest/internal/notify"
	"finflow-invest/internal/repository"
	"finflow-invest/internal/util"
	"finflow-invest/pkg/db"
	"finflow-invest/pkg/kvstore"
)

// Deps carries the collaborators shared by every service. One Deps value
// must be shared by all services of a process so they serialize on the same
// entity locks.
type Deps struct {
	Store        kvstore.Store
	Accounts     repository.AccountRepository
	Transactions repository.TransactionRepository
	Investments  repository.InvestmentRepository
	Plans        repository.PlanRepository
	Settings     repository.SettingsRepository

	Locks      *lock.Keyed
	Clock      clock.Clock
	Notifier   notify.Sink
	Authorizer Authorizer
	Logger     *slog.Logger

	BeginTx    db.BeginTxFunc    // Injected dependency for beginning units of work
	CommitTx   db.CommitTxFunc   // Injected dependency for committing units of work
	RollbackTx db.RollbackTxFunc // Injected dependency for rolling back units of work
}

// normalize fills unset optional collaborators. It is idempotent.
func (d *Deps) normalize() {
	if d.Locks == nil {
		d.Locks = lock.NewKeyed()
	}
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Logger == nil {
		d.Logger = util.GetLogger()
	}
	if d.Notifier == nil {
		d.Notifier = notify.NewLogSink(d.Logger)
	}
	if d.Authorizer == nil {
		d.Authorizer = NewAccountAuthorizer(d.Store, d.Accounts)
	}
	if d.BeginTx == nil {
		d.BeginTx = db.BeginTx
	}
	if d.CommitTx == nil {
		d.CommitTx = db.CommitTx
	}
	if d.RollbackTx == nil {
		d.RollbackTx = db.RollbackTx
	}
}

// inTx runs fn inside one unit of work. Nothing fn writes is visible unless
// fn returns nil and the commit succeeds.
func (d *Deps) inTx(ctx context.Context, op string, fn func(q repository.Executor) error) error {
	txController, err := d.BeginTx(ctx, d.Store)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer d.RollbackTx(txController)

	txExecutor, ok := txController.(repository.Executor)
	if !ok {
		return fmt.Errorf("%s: transaction controller does not implement Executor", op)
	}

	if err := fn(txExecutor); err != nil {
		return err
	}

	if err := d.CommitTx(txController); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	return nil
}

// lock acquires the given entity keys, bounded by ctx.
func (d *Deps) lock(ctx context.Context, op string, keys ...string) (func(), error) {
	unlock, err := d.Locks.Lock(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return unlock, nil
}

func (d *Deps) notify(ctx context.Context, e notify.Event) {
	if e.At.IsZero() {
		e.At = d.Clock.Now()
	}
	d.Notifier.Notify(ctx, e)
}

func accountKey(id string) string     { return "account:" + id }
func transactionKey(id string) string { return "transaction:" + id }
func investmentKey(id string) string  { return "investment:" + id }
func emailKey(email string) string    { return "email:" + email }

// Default and maximum page sizes for list accessors.
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// paginate returns the requested window of items and the total count.
func paginate[T any](items []T, limit, offset int) ([]T, int) {
	total := len(items)
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []T{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return items[offset:end], total
}
