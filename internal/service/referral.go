// internal/service/referral.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"finflow-invest/internal/domain"
	"finflow-invest/internal/repository"
	"finflow-invest/internal/util"
)

// DefaultCommissionRate is the share of an approved deposit paid to the
// depositor's referrer.
var DefaultCommissionRate = decimal.RequireFromString("0.20")

// referralEngine owns ReferralBonus and the Referrals list.
type referralEngine struct {
	deps   *Deps
	ledger *ledger
	rate   decimal.Decimal
}

func newReferralEngine(deps *Deps, l *ledger, rate decimal.Decimal) *referralEngine {
	if !rate.IsPositive() {
		rate = DefaultCommissionRate
	}
	return &referralEngine{deps: deps, ledger: l, rate: rate}
}

// payCommission credits rate*base to the referrer and records it against the
// source account. Only the direct referrer is paid. A referrer that no longer
// exists is skipped.
func (e *referralEngine) payCommission(ctx context.Context, q repository.Executor, referrerID string, base decimal.Decimal, source *domain.Account) (decimal.Decimal, error) {
	commission := base.Mul(e.rate)
	referrer, err := e.ledger.adjustBalance(ctx, q, referrerID, commission)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			e.deps.Logger.WarnContext(ctx, "Referrer no longer exists, commission skipped",
				"referrer_id", referrerID, "source_id", source.ID)
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("pay commission: %w", err)
	}
	referrer.CreditReferral(source.ID, source.Name, commission, e.deps.Clock.Now())
	if err := e.deps.Accounts.SaveAccount(ctx, q, referrer); err != nil {
		return decimal.Zero, fmt.Errorf("pay commission: %w", err)
	}
	return commission, nil
}

// registerReferral lists a newly registered account under its referrer with
// no commission yet.
func (e *referralEngine) registerReferral(ctx context.Context, q repository.Executor, referrer, referred *domain.Account) error {
	referrer.CreditReferral(referred.ID, referred.Name, decimal.Zero, e.deps.Clock.Now())
	if err := e.deps.Accounts.SaveAccount(ctx, q, referrer); err != nil {
		return fmt.Errorf("register referral: %w", err)
	}
	return nil
}
