// internal/service/account_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"finflow-invest/internal/domain"
	"finflow-invest/internal/repository"
	"finflow-invest/internal/util"
)

// AccountService defines account registration and administration.
type AccountService interface {
	Register(ctx context.Context, name, email, referralCode string) (*domain.Account, error)
	CreateAccount(ctx context.Context, actorID, name, email string, role domain.Role) (*domain.Account, error)
	GetAccount(ctx context.Context, accountID, actorID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, actorID string) ([]domain.Account, error)
	DeleteAccount(ctx context.Context, accountID, actorID string) error
	EnsureAdmin(ctx context.Context, name, email string) (*domain.Account, error)
}

type accountService struct {
	deps      *Deps
	referrals *referralEngine
}

// NewAccountService creates the account service.
func NewAccountService(deps *Deps) AccountService {
	deps.normalize()
	return &accountService{
		deps:      deps,
		referrals: newReferralEngine(deps, &ledger{deps: deps}, DefaultCommissionRate),
	}
}

func normalizeIdentity(op, name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return "", "", fmt.Errorf("%s: name is required: %w", op, util.ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", "", fmt.Errorf("%s: invalid email %q: %w", op, email, util.ErrInvalidInput)
	}
	return name, email, nil
}

// Register creates a user account. A referral code is the referrer's account
// id; unknown codes are ignored so registration still succeeds.
func (s *accountService) Register(ctx context.Context, name, email, referralCode string) (*domain.Account, error) {
	name, email, err := normalizeIdentity("register", name, email)
	if err != nil {
		return nil, err
	}
	referralCode = strings.TrimSpace(referralCode)

	keys := []string{emailKey(email)}
	if referralCode != "" {
		keys = append(keys, accountKey(referralCode))
	}
	unlock, err := s.deps.lock(ctx, "register", keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var account *domain.Account
	err = s.deps.inTx(ctx, "register", func(q repository.Executor) error {
		if err := s.ensureEmailFree(ctx, q, "register", email); err != nil {
			return err
		}

		var referrer *domain.Account
		if referralCode != "" {
			referrer, err = s.deps.Accounts.GetAccountByID(ctx, q, referralCode)
			switch {
			case errors.Is(err, util.ErrNotFound):
				s.deps.Logger.WarnContext(ctx, "Ignoring unknown referral code", "referral_code", referralCode)
				referrer = nil
			case err != nil:
				return fmt.Errorf("register: %w", err)
			}
		}

		var referredBy *string
		if referrer != nil {
			referredBy = &referrer.ID
		}
		account = domain.NewAccount(name, email, domain.RoleUser, referredBy, s.deps.Clock.Now())
		if err := s.deps.Accounts.SaveAccount(ctx, q, account); err != nil {
			return fmt.Errorf("register: %w", err)
		}
		if referrer != nil {
			if err := s.referrals.registerReferral(ctx, q, referrer, account); err != nil {
				return fmt.Errorf("register: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.InfoContext(ctx, "Account registered", "account_id", account.ID, "referred", account.ReferredBy != nil)
	return account, nil
}

// CreateAccount lets an admin add an account with any role.
func (s *accountService) CreateAccount(ctx context.Context, actorID, name, email string, role domain.Role) (*domain.Account, error) {
	if err := s.deps.requireAdmin(ctx, "create account", actorID); err != nil {
		return nil, err
	}
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, fmt.Errorf("create account: unknown role %q: %w", role, util.ErrInvalidInput)
	}
	return s.create(ctx, "create account", name, email, role)
}

func (s *accountService) create(ctx context.Context, op, name, email string, role domain.Role) (*domain.Account, error) {
	name, email, err := normalizeIdentity(op, name, email)
	if err != nil {
		return nil, err
	}
	unlock, err := s.deps.lock(ctx, op, emailKey(email))
	if err != nil {
		return nil, err
	}
	defer unlock()

	account := domain.NewAccount(name, email, role, nil, s.deps.Clock.Now())
	err = s.deps.inTx(ctx, op, func(q repository.Executor) error {
		if err := s.ensureEmailFree(ctx, q, op, email); err != nil {
			return err
		}
		if err := s.deps.Accounts.SaveAccount(ctx, q, account); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.deps.Logger.InfoContext(ctx, "Account created", "account_id", account.ID, "role", role)
	return account, nil
}

func (s *accountService) ensureEmailFree(ctx context.Context, q repository.Executor, op, email string) error {
	_, err := s.deps.Accounts.GetAccountByEmail(ctx, q, email)
	if err == nil {
		return fmt.Errorf("%s: email %s is already registered: %w", op, email, util.ErrConflict)
	}
	if !errors.Is(err, util.ErrNotFound) {
		return fmt.Errorf("%s: failed to check existing account: %w", op, err)
	}
	return nil
}

func (s *accountService) GetAccount(ctx context.Context, accountID, actorID string) (*domain.Account, error) {
	if err := s.deps.requireOwnerOrAdmin(ctx, "get account", actorID, accountID); err != nil {
		return nil, err
	}
	account, err := s.deps.Accounts.GetAccountByID(ctx, s.deps.Store, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// ListAccounts returns every account with its balance. Admin only.
func (s *accountService) ListAccounts(ctx context.Context, actorID string) ([]domain.Account, error) {
	if err := s.deps.requireAdmin(ctx, "list accounts", actorID); err != nil {
		return nil, err
	}
	accounts, err := s.deps.Accounts.ListAccounts(ctx, s.deps.Store)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// DeleteAccount removes a user account. Admins and the acting account itself
// cannot be removed, nor can an account with open positions or pending
// transactions.
func (s *accountService) DeleteAccount(ctx context.Context, accountID, actorID string) error {
	if err := s.deps.requireAdmin(ctx, "delete account", actorID); err != nil {
		return err
	}
	if accountID == actorID {
		return fmt.Errorf("delete account: an admin cannot delete itself: %w", util.ErrConflict)
	}

	unlock, err := s.deps.lock(ctx, "delete account", accountKey(accountID))
	if err != nil {
		return err
	}
	defer unlock()

	err = s.deps.inTx(ctx, "delete account", func(q repository.Executor) error {
		account, err := s.deps.Accounts.GetAccountByID(ctx, q, accountID)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if account.IsAdmin() {
			return fmt.Errorf("delete account: %s is an admin: %w", accountID, util.ErrConflict)
		}
		active, err := s.deps.Investments.ListInvestments(ctx, q, repository.InvestmentFilter{
			AccountID: accountID, Status: domain.InvestmentStatusActive,
		})
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if len(active) > 0 {
			return fmt.Errorf("delete account: %s has %d active investments: %w", accountID, len(active), util.ErrConflict)
		}
		pending, err := s.deps.Transactions.ListTransactions(ctx, q, repository.TransactionFilter{
			AccountID: accountID, Status: domain.TransactionStatusPending,
		})
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if len(pending) > 0 {
			return fmt.Errorf("delete account: %s has %d pending transactions: %w", accountID, len(pending), util.ErrConflict)
		}
		return s.deps.Accounts.DeleteAccount(ctx, q, accountID)
	})
	if err != nil {
		return err
	}
	s.deps.Logger.InfoContext(ctx, "Account deleted", "account_id", accountID, "actor_id", actorID)
	return nil
}

// EnsureAdmin returns the admin account registered under email, creating it
// on first boot.
func (s *accountService) EnsureAdmin(ctx context.Context, name, email string) (*domain.Account, error) {
	existing, err := s.deps.Accounts.GetAccountByEmail(ctx, s.deps.Store, strings.ToLower(strings.TrimSpace(email)))
	if err == nil {
		if !existing.IsAdmin() {
			return nil, fmt.Errorf("ensure admin: %s belongs to a non-admin account: %w", email, util.ErrConflict)
		}
		return existing, nil
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}
	return s.create(ctx, "ensure admin", name, email, domain.RoleAdmin)
}
