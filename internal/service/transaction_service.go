// internal/service/transaction_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finflow-invest/internal/domain"
	"finflow-invest/internal/metrics"
	"finflow-invest/internal/notify"
	"finflow-invest/internal/repository"
	"finflow-invest/internal/util"
)

// DepositRequest describes a deposit the user claims to have sent.
type DepositRequest struct {
	AccountID string
	Amount    decimal.Decimal
	Wallet    string
	Currency  string
	ProofRef  string
}

// WithdrawalRequest describes a payout the user asks for.
type WithdrawalRequest struct {
	AccountID string
	Amount    decimal.Decimal
	Wallet    string
	Currency  string
}

// TransactionService defines the deposit/withdrawal approval workflow.
type TransactionService interface {
	CreateDeposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error)
	CreateWithdrawal(ctx context.Context, req WithdrawalRequest) (*domain.Transaction, error)
	Resolve(ctx context.Context, transactionID string, decision domain.TransactionStatus, actorID string) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, transactionID, actorID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, actorID string, filter repository.TransactionFilter, limit, offset int) ([]domain.Transaction, int, error)
}

type transactionService struct {
	deps      *Deps
	ledger    *ledger
	referrals *referralEngine
}

// NewTransactionService creates the transaction workflow. commissionRate
// falls back to DefaultCommissionRate when not positive.
func NewTransactionService(deps *Deps, commissionRate decimal.Decimal) TransactionService {
	deps.normalize()
	l := &ledger{deps: deps}
	return &transactionService{
		deps:      deps,
		ledger:    l,
		referrals: newReferralEngine(deps, l, commissionRate),
	}
}

func validateAmount(op string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%s: amount must be positive, got %s: %w", op, amount.String(), util.ErrInvalidInput)
	}
	return nil
}

func normalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// CreateDeposit records a pending deposit. The balance is untouched until an
// admin approves it.
func (s *transactionService) CreateDeposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error) {
	if err := validateAmount("create deposit", req.Amount); err != nil {
		return nil, err
	}
	req.Wallet = strings.TrimSpace(req.Wallet)
	req.Currency = normalizeCurrency(req.Currency)
	if req.Wallet == "" || req.Currency == "" {
		return nil, fmt.Errorf("create deposit: wallet and currency are required: %w", util.ErrInvalidInput)
	}

	wallets, err := s.deps.Settings.GetWalletAddresses(ctx, s.deps.Store)
	if err != nil && !errors.Is(err, util.ErrNotFound) {
		return nil, fmt.Errorf("create deposit: failed to read wallet addresses: %w", err)
	}
	if !wallets.Accepts(req.Currency) {
		return nil, fmt.Errorf("create deposit: currency %s is not accepted: %w", req.Currency, util.ErrInvalidInput)
	}

	unlock, err := s.deps.lock(ctx, "create deposit", accountKey(req.AccountID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var transaction *domain.Transaction
	err = s.deps.inTx(ctx, "create deposit", func(q repository.Executor) error {
		if _, err := s.deps.Accounts.GetAccountByID(ctx, q, req.AccountID); err != nil {
			return fmt.Errorf("create deposit: %w", err)
		}
		transaction = domain.NewTransaction(req.AccountID, domain.TransactionKindDeposit, req.Amount, &domain.TransactionDetails{
			Wallet:   req.Wallet,
			Currency: req.Currency,
			ProofRef: strings.TrimSpace(req.ProofRef),
		}, s.deps.Clock.Now())
		if err := s.deps.Transactions.SaveTransaction(ctx, q, transaction); err != nil {
			return fmt.Errorf("create deposit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.InfoContext(ctx, "Deposit requested",
		"transaction_id", transaction.ID, "account_id", req.AccountID, "amount", req.Amount.String(), "currency", req.Currency)
	return transaction, nil
}

// CreateWithdrawal records a pending withdrawal after checking the current
// balance covers it.
func (s *transactionService) CreateWithdrawal(ctx context.Context, req WithdrawalRequest) (*domain.Transaction, error) {
	if err := validateAmount("create withdrawal", req.Amount); err != nil {
		return nil, err
	}
	req.Wallet = strings.TrimSpace(req.Wallet)
	req.Currency = normalizeCurrency(req.Currency)
	if req.Wallet == "" || req.Currency == "" {
		return nil, fmt.Errorf("create withdrawal: wallet and currency are required: %w", util.ErrInvalidInput)
	}

	unlock, err := s.deps.lock(ctx, "create withdrawal", accountKey(req.AccountID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var transaction *domain.Transaction
	err = s.deps.inTx(ctx, "create withdrawal", func(q repository.Executor) error {
		account, err := s.deps.Accounts.GetAccountByID(ctx, q, req.AccountID)
		if err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}
		if account.Balance.LessThan(req.Amount) {
			return fmt.Errorf("create withdrawal: balance %s is below %s: %w",
				account.Balance.String(), req.Amount.String(), util.ErrInsufficientFunds)
		}
		transaction = domain.NewTransaction(req.AccountID, domain.TransactionKindWithdrawal, req.Amount, &domain.TransactionDetails{
			Wallet:   req.Wallet,
			Currency: req.Currency,
		}, s.deps.Clock.Now())
		if err := s.deps.Transactions.SaveTransaction(ctx, q, transaction); err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.InfoContext(ctx, "Withdrawal requested",
		"transaction_id", transaction.ID, "account_id", req.AccountID, "amount", req.Amount.String())
	return transaction, nil
}

// Resolve moves a pending transaction to approved or rejected. The status
// flip, the ledger effect and any referral commission are committed together
// or not at all.
func (s *transactionService) Resolve(ctx context.Context, transactionID string, decision domain.TransactionStatus, actorID string) (*domain.Transaction, error) {
	if !decision.IsTerminal() {
		return nil, fmt.Errorf("resolve: decision must be approved or rejected, got %q: %w", decision, util.ErrInvalidInput)
	}
	if err := s.deps.requireAdmin(ctx, "resolve", actorID); err != nil {
		return nil, err
	}

	// Owner and referrer never change, so they can be read before locking.
	current, err := s.deps.Transactions.GetTransactionByID(ctx, s.deps.Store, transactionID)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	owner, err := s.deps.Accounts.GetAccountByID(ctx, s.deps.Store, current.AccountID)
	if err != nil {
		return nil, fmt.Errorf("resolve: owner of %s: %w", transactionID, err)
	}
	keys := []string{transactionKey(transactionID), accountKey(owner.ID)}
	if owner.ReferredBy != nil {
		keys = append(keys, accountKey(*owner.ReferredBy))
	}

	unlock, err := s.deps.lock(ctx, "resolve", keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		transaction *domain.Transaction
		commission  = decimal.Zero
	)
	err = s.deps.inTx(ctx, "resolve", func(q repository.Executor) error {
		transaction, err = s.deps.Transactions.GetTransactionByID(ctx, q, transactionID)
		if err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
		if err := transaction.Resolve(decision, actorID, s.deps.Clock.Now()); err != nil {
			return fmt.Errorf("resolve: %w", err)
		}

		if decision == domain.TransactionStatusApproved {
			if err := s.applyApproval(ctx, q, transaction, &commission); err != nil {
				return err
			}
		}

		if err := s.deps.Transactions.SaveTransaction(ctx, q, transaction); err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransactionResolved(string(transaction.Kind), string(transaction.Status))
	s.deps.Logger.InfoContext(ctx, "Transaction resolved",
		"transaction_id", transaction.ID, "kind", transaction.Kind, "status", transaction.Status, "actor_id", actorID)
	s.deps.notify(ctx, notify.Event{
		AccountID: transaction.AccountID,
		Kind:      notify.KindTransactionResolved,
		Message:   fmt.Sprintf("Your %s of %s was %s", transaction.Kind, transaction.Amount.String(), transaction.Status),
		Data:      map[string]any{"transaction_id": transaction.ID},
	})
	if commission.IsPositive() && owner.ReferredBy != nil {
		f, _ := commission.Float64()
		metrics.RecordReferralCommission(f)
		s.deps.notify(ctx, notify.Event{
			AccountID: *owner.ReferredBy,
			Kind:      notify.KindReferralCommission,
			Message:   fmt.Sprintf("You earned %s commission from %s", commission.String(), owner.Name),
			Data:      map[string]any{"source_id": owner.ID},
		})
	}
	return transaction, nil
}

// applyApproval performs the ledger side of an approval inside q.
func (s *transactionService) applyApproval(ctx context.Context, q repository.Executor, t *domain.Transaction, commission *decimal.Decimal) error {
	switch t.Kind {
	case domain.TransactionKindDeposit:
		owner, err := s.ledger.adjustBalance(ctx, q, t.AccountID, t.Amount)
		if err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
		if owner.ReferredBy != nil {
			paid, err := s.referrals.payCommission(ctx, q, *owner.ReferredBy, t.Amount, owner)
			if err != nil {
				return fmt.Errorf("resolve: %w", err)
			}
			*commission = paid
		}
	case domain.TransactionKindWithdrawal:
		// Funds were checked when the request was made; the ledger clamps at zero.
		if _, err := s.ledger.adjustBalance(ctx, q, t.AccountID, t.Amount.Neg()); err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
	default:
		return fmt.Errorf("resolve: unknown transaction kind %q: %w", t.Kind, util.ErrInvalidInput)
	}
	return nil
}

func (s *transactionService) GetTransaction(ctx context.Context, transactionID, actorID string) (*domain.Transaction, error) {
	transaction, err := s.deps.Transactions.GetTransactionByID(ctx, s.deps.Store, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if err := s.deps.requireOwnerOrAdmin(ctx, "get transaction", actorID, transaction.AccountID); err != nil {
		return nil, err
	}
	return transaction, nil
}

// ListTransactions returns a page of transactions, newest first. Non-admins
// only ever see their own.
func (s *transactionService) ListTransactions(ctx context.Context, actorID string, filter repository.TransactionFilter, limit, offset int) ([]domain.Transaction, int, error) {
	isAdmin, err := s.deps.Authorizer.IsAdmin(ctx, actorID)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	if !isAdmin {
		if filter.AccountID != "" && filter.AccountID != actorID {
			return nil, 0, fmt.Errorf("list transactions: %w", util.ErrUnauthorized)
		}
		filter.AccountID = actorID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("list transactions: unknown status %q: %w", filter.Status, util.ErrInvalidInput)
	}

	transactions, err := s.deps.Transactions.ListTransactions(ctx, s.deps.Store, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	page, total := paginate(transactions, limit, offset)
	return page, total, nil
}
