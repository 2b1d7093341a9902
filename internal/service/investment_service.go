// internal/service/investment_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finflow-invest/internal/domain"
	"finflow-invest/internal/metrics"
	"finflow-invest/internal/notify"
	"finflow-invest/internal/repository"
	"finflow-invest/internal/util"
)

// InvestmentService defines the investment lifecycle and the plan catalog.
type InvestmentService interface {
	Open(ctx context.Context, accountID, planID string, amount decimal.Decimal) (*domain.Investment, error)
	Cancel(ctx context.Context, investmentID, actorID string) (*domain.Investment, error)
	SettleMatured(ctx context.Context, investmentID string, at time.Time) (*domain.Investment, error)
	Revalue(ctx context.Context, investmentID string, at time.Time) (*domain.Investment, bool, error)

	GetInvestment(ctx context.Context, investmentID, actorID string) (*domain.Investment, error)
	ListInvestments(ctx context.Context, actorID string, filter repository.InvestmentFilter, limit, offset int) ([]domain.Investment, int, error)
	ListActiveInvestments(ctx context.Context) ([]domain.Investment, error)
	CurrentROI(ctx context.Context, investmentID, actorID string) (decimal.Decimal, error)

	ListPlans(ctx context.Context) ([]domain.InvestmentPlan, error)
	GetPlan(ctx context.Context, planID string) (*domain.InvestmentPlan, error)
	SeedPlans(ctx context.Context, plans []domain.InvestmentPlan) error
}

type investmentService struct {
	deps   *Deps
	ledger *ledger
}

// NewInvestmentService creates the investment lifecycle manager.
func NewInvestmentService(deps *Deps) InvestmentService {
	deps.normalize()
	return &investmentService{deps: deps, ledger: &ledger{deps: deps}}
}

// Open debits the principal and starts an active position on planID.
func (s *investmentService) Open(ctx context.Context, accountID, planID string, amount decimal.Decimal) (*domain.Investment, error) {
	if err := validateAmount("open investment", amount); err != nil {
		return nil, err
	}
	plan, err := s.deps.Plans.GetPlanByID(ctx, s.deps.Store, planID)
	if err != nil {
		return nil, fmt.Errorf("open investment: %w", err)
	}
	if !plan.IsActive() {
		return nil, fmt.Errorf("open investment: plan %s is not active: %w", planID, util.ErrInvalidInput)
	}
	if !plan.Accepts(amount) {
		return nil, fmt.Errorf("open investment: amount %s outside [%s, %s] for plan %s: %w",
			amount.String(), plan.MinDeposit.String(), plan.MaxDeposit.String(), planID, util.ErrInvalidInput)
	}

	unlock, err := s.deps.lock(ctx, "open investment", accountKey(accountID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var investment *domain.Investment
	err = s.deps.inTx(ctx, "open investment", func(q repository.Executor) error {
		account, err := s.deps.Accounts.GetAccountByID(ctx, q, accountID)
		if err != nil {
			return fmt.Errorf("open investment: %w", err)
		}
		if account.Balance.LessThan(amount) {
			return fmt.Errorf("open investment: balance %s is below %s: %w",
				account.Balance.String(), amount.String(), util.ErrInsufficientFunds)
		}
		if _, err := s.ledger.adjustBalance(ctx, q, accountID, amount.Neg()); err != nil {
			return fmt.Errorf("open investment: %w", err)
		}
		investment = domain.NewInvestment(accountID, plan, amount, s.deps.Clock.Now())
		if err := s.deps.Investments.SaveInvestment(ctx, q, investment); err != nil {
			return fmt.Errorf("open investment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordInvestmentTransition(string(investment.Status))
	s.deps.Logger.InfoContext(ctx, "Investment opened",
		"investment_id", investment.ID, "account_id", accountID, "plan_id", planID, "amount", amount.String())
	s.deps.notify(ctx, notify.Event{
		AccountID: accountID,
		Kind:      notify.KindInvestmentOpened,
		Message:   fmt.Sprintf("You invested %s in %s", amount.String(), plan.Name),
		Data:      map[string]any{"investment_id": investment.ID},
	})
	return investment, nil
}

// Cancel closes an active position owned by actorID and refunds the
// principal. Accrued profit is forfeited.
func (s *investmentService) Cancel(ctx context.Context, investmentID, actorID string) (*domain.Investment, error) {
	current, err := s.deps.Investments.GetInvestmentByID(ctx, s.deps.Store, investmentID)
	if err != nil {
		return nil, fmt.Errorf("cancel investment: %w", err)
	}
	if current.AccountID != actorID {
		return nil, fmt.Errorf("cancel investment: account %s does not own %s: %w", actorID, investmentID, util.ErrUnauthorized)
	}

	unlock, err := s.deps.lock(ctx, "cancel investment", investmentKey(investmentID), accountKey(current.AccountID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var investment *domain.Investment
	err = s.deps.inTx(ctx, "cancel investment", func(q repository.Executor) error {
		investment, err = s.deps.Investments.GetInvestmentByID(ctx, q, investmentID)
		if err != nil {
			return fmt.Errorf("cancel investment: %w", err)
		}
		if err := investment.Cancel(s.deps.Clock.Now()); err != nil {
			return fmt.Errorf("cancel investment: %w", err)
		}
		if _, err := s.ledger.adjustBalance(ctx, q, investment.AccountID, investment.Amount); err != nil {
			return fmt.Errorf("cancel investment: %w", err)
		}
		if err := s.deps.Investments.SaveInvestment(ctx, q, investment); err != nil {
			return fmt.Errorf("cancel investment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordInvestmentTransition(string(investment.Status))
	s.deps.Logger.InfoContext(ctx, "Investment cancelled",
		"investment_id", investment.ID, "account_id", investment.AccountID, "refund", investment.Amount.String())
	s.deps.notify(ctx, notify.Event{
		AccountID: investment.AccountID,
		Kind:      notify.KindInvestmentCancelled,
		Message:   fmt.Sprintf("Your investment of %s was cancelled and refunded", investment.Amount.String()),
		Data:      map[string]any{"investment_id": investment.ID},
	})
	return investment, nil
}

// SettleMatured completes a position whose term has elapsed at time at and
// credits the profit. The principal is not credited again.
func (s *investmentService) SettleMatured(ctx context.Context, investmentID string, at time.Time) (*domain.Investment, error) {
	current, err := s.deps.Investments.GetInvestmentByID(ctx, s.deps.Store, investmentID)
	if err != nil {
		return nil, fmt.Errorf("settle investment: %w", err)
	}

	unlock, err := s.deps.lock(ctx, "settle investment", investmentKey(investmentID), accountKey(current.AccountID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		investment *domain.Investment
		profit     decimal.Decimal
	)
	err = s.deps.inTx(ctx, "settle investment", func(q repository.Executor) error {
		investment, err = s.deps.Investments.GetInvestmentByID(ctx, q, investmentID)
		if err != nil {
			return fmt.Errorf("settle investment: %w", err)
		}
		profit, err = investment.Complete(at)
		if err != nil {
			return fmt.Errorf("settle investment: %w", err)
		}
		if _, err := s.ledger.adjustBalance(ctx, q, investment.AccountID, profit); err != nil {
			return fmt.Errorf("settle investment: %w", err)
		}
		if err := s.deps.Investments.SaveInvestment(ctx, q, investment); err != nil {
			return fmt.Errorf("settle investment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordInvestmentTransition(string(investment.Status))
	s.deps.Logger.InfoContext(ctx, "Investment matured",
		"investment_id", investment.ID, "account_id", investment.AccountID, "profit", profit.String())
	s.deps.notify(ctx, notify.Event{
		AccountID: investment.AccountID,
		Kind:      notify.KindInvestmentMatured,
		Message:   fmt.Sprintf("Your investment matured with a profit of %s", profit.String()),
		Data:      map[string]any{"investment_id": investment.ID},
	})
	return investment, nil
}

// Revalue stores the valuation of an active position at time at. It reports
// whether CurrentValue moved.
func (s *investmentService) Revalue(ctx context.Context, investmentID string, at time.Time) (*domain.Investment, bool, error) {
	unlock, err := s.deps.lock(ctx, "revalue investment", investmentKey(investmentID))
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	var (
		investment *domain.Investment
		changed    bool
	)
	err = s.deps.inTx(ctx, "revalue investment", func(q repository.Executor) error {
		investment, err = s.deps.Investments.GetInvestmentByID(ctx, q, investmentID)
		if err != nil {
			return fmt.Errorf("revalue investment: %w", err)
		}
		changed, err = investment.Revalue(at)
		if err != nil {
			return fmt.Errorf("revalue investment: %w", err)
		}
		if !changed {
			return nil
		}
		if err := s.deps.Investments.SaveInvestment(ctx, q, investment); err != nil {
			return fmt.Errorf("revalue investment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return investment, changed, nil
}

func (s *investmentService) GetInvestment(ctx context.Context, investmentID, actorID string) (*domain.Investment, error) {
	investment, err := s.deps.Investments.GetInvestmentByID(ctx, s.deps.Store, investmentID)
	if err != nil {
		return nil, fmt.Errorf("get investment: %w", err)
	}
	if err := s.deps.requireOwnerOrAdmin(ctx, "get investment", actorID, investment.AccountID); err != nil {
		return nil, err
	}
	return investment, nil
}

// ListInvestments returns a page of investments, newest first. Non-admins
// only ever see their own.
func (s *investmentService) ListInvestments(ctx context.Context, actorID string, filter repository.InvestmentFilter, limit, offset int) ([]domain.Investment, int, error) {
	isAdmin, err := s.deps.Authorizer.IsAdmin(ctx, actorID)
	if err != nil {
		return nil, 0, fmt.Errorf("list investments: %w", err)
	}
	if !isAdmin {
		if filter.AccountID != "" && filter.AccountID != actorID {
			return nil, 0, fmt.Errorf("list investments: %w", util.ErrUnauthorized)
		}
		filter.AccountID = actorID
	}

	investments, err := s.deps.Investments.ListInvestments(ctx, s.deps.Store, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list investments: %w", err)
	}
	page, total := paginate(investments, limit, offset)
	return page, total, nil
}

// ListActiveInvestments returns every active position for the scheduler.
func (s *investmentService) ListActiveInvestments(ctx context.Context) ([]domain.Investment, error) {
	investments, err := s.deps.Investments.ListInvestments(ctx, s.deps.Store,
		repository.InvestmentFilter{Status: domain.InvestmentStatusActive})
	if err != nil {
		return nil, fmt.Errorf("list active investments: %w", err)
	}
	return investments, nil
}

// CurrentROI is the profit attributable to the position right now.
func (s *investmentService) CurrentROI(ctx context.Context, investmentID, actorID string) (decimal.Decimal, error) {
	investment, err := s.GetInvestment(ctx, investmentID, actorID)
	if err != nil {
		return decimal.Zero, err
	}
	return investment.AccruedProfit(s.deps.Clock.Now()), nil
}

func (s *investmentService) ListPlans(ctx context.Context) ([]domain.InvestmentPlan, error) {
	plans, err := s.deps.Plans.ListPlans(ctx, s.deps.Store)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

func (s *investmentService) GetPlan(ctx context.Context, planID string) (*domain.InvestmentPlan, error) {
	plan, err := s.deps.Plans.GetPlanByID(ctx, s.deps.Store, planID)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return plan, nil
}

// SeedPlans validates and stores the catalog in one unit of work.
func (s *investmentService) SeedPlans(ctx context.Context, plans []domain.InvestmentPlan) error {
	for i := range plans {
		if err := plans[i].Validate(); err != nil {
			return fmt.Errorf("seed plans: %w", err)
		}
	}
	return s.deps.inTx(ctx, "seed plans", func(q repository.Executor) error {
		for i := range plans {
			if err := s.deps.Plans.SavePlan(ctx, q, &plans[i]); err != nil {
				return fmt.Errorf("seed plans: %w", err)
			}
		}
		return nil
	})
}
