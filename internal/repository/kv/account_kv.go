// internal/repository/kv/account_kv.go
package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"finflow-invest/internal/domain"
	"finflow-invest/internal/repository"
	"finflow-invest/internal/util"
	"finflow-invest/pkg/kvstore"
)

// AccountRepository implements repository.AccountRepository on a key-value store.
type AccountRepository struct{}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository() repository.AccountRepository {
	return &AccountRepository{}
}

// SaveAccount writes the account under accounts/<id> together with its email
// index entry. Both writes go through q, so a unit of work commits them together.
func (r *AccountRepository) SaveAccount(ctx context.Context, q repository.Executor, account *domain.Account) error {
	previous, err := getJSON[domain.Account](ctx, q, accountPrefix+account.ID)
	if err != nil && !errors.Is(err, util.ErrNotFound) {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	if previous != nil && emailIndexKey(previous.Email) != emailIndexKey(account.Email) {
		if err := q.Delete(ctx, emailIndexKey(previous.Email)); err != nil {
			return fmt.Errorf("failed to save account %s: %w", account.ID, err)
		}
	}
	if err := putJSON(ctx, q, accountPrefix+account.ID, account); err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	if err := q.Put(ctx, emailIndexKey(account.Email), []byte(account.ID)); err != nil {
		return fmt.Errorf("failed to index email of account %s: %w", account.ID, err)
	}
	return nil
}

// GetAccountByID retrieves an account by its ID.
func (r *AccountRepository) GetAccountByID(ctx context.Context, q repository.Executor, id string) (*domain.Account, error) {
	account, err := getJSON[domain.Account](ctx, q, accountPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by ID %s: %w", id, err)
	}
	return account, nil
}

// GetAccountByEmail resolves a case-insensitive email through the email index.
func (r *AccountRepository) GetAccountByEmail(ctx context.Context, q repository.Executor, email string) (*domain.Account, error) {
	id, err := q.Get(ctx, emailIndexKey(email))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, fmt.Errorf("account with email '%s': %w", email, util.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up email '%s': %w", email, err)
	}
	account, err := r.GetAccountByID(ctx, q, string(id))
	if err != nil {
		return nil, fmt.Errorf("account with email '%s': %w", email, err)
	}
	return account, nil
}

// ListAccounts returns every account, oldest first.
func (r *AccountRepository) ListAccounts(ctx context.Context, q repository.Executor) ([]domain.Account, error) {
	accounts, err := listJSON[domain.Account](ctx, q, accountPrefix)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accounts, func(i, j int) bool { return accounts[i].CreatedAt.Before(accounts[j].CreatedAt) })
	return accounts, nil
}

// DeleteAccount removes an account and its email index entry.
func (r *AccountRepository) DeleteAccount(ctx context.Context, q repository.Executor, id string) error {
	account, err := r.GetAccountByID(ctx, q, id)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}
	if err := q.Delete(ctx, emailIndexKey(account.Email)); err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}
	if err := q.Delete(ctx, accountPrefix+id); err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}
	return nil
}

func emailIndexKey(email string) string {
	return emailIndexPrefix + strings.ToLower(strings.TrimSpace(email))
}
