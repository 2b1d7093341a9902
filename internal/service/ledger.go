// internal/service/ledger.go
package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"finflow-invest/internal/domain"
	"finflow-invest/internal/repository"
)

// ledger is the only writer of Account.Balance.
type ledger struct {
	deps *Deps
}

// adjustBalance sets the balance to max(0, balance+delta) and persists the
// account through q. The account is loaded fresh from q, so a failed unit of
// work leaves nothing behind in memory either. Callers needing a hard
// insufficient-funds error check the balance first.
func (l *ledger) adjustBalance(ctx context.Context, q repository.Executor, accountID string, delta decimal.Decimal) (*domain.Account, error) {
	account, err := l.deps.Accounts.GetAccountByID(ctx, q, accountID)
	if err != nil {
		return nil, fmt.Errorf("adjust balance: %w", err)
	}
	before := account.Balance
	account.ApplyBalanceDelta(delta, l.deps.Clock.Now())
	if err := l.deps.Accounts.SaveAccount(ctx, q, account); err != nil {
		return nil, fmt.Errorf("adjust balance: %w", err)
	}
	l.deps.Logger.DebugContext(ctx, "Balance adjusted",
		"account_id", accountID, "delta", delta.String(), "before", before.String(), "after", account.Balance.String())
	return account, nil
}
