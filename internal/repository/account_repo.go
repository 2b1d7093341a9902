// internal/repository/account_repo.go
package repository

import (
	"context"

	"finflow-invest/internal/domain"
)

// AccountRepository defines the interface for account data operations.
type AccountRepository interface {
	// SaveAccount inserts or replaces an account.
	SaveAccount(ctx context.Context, q Executor, account *domain.Account) error
	// GetAccountByID retrieves an account by its ID.
	GetAccountByID(ctx context.Context, q Executor, id string) (*domain.Account, error)
	// GetAccountByEmail retrieves an account by email, case-insensitively.
	GetAccountByEmail(ctx context.Context, q Executor, email string) (*domain.Account, error)
	// ListAccounts returns every account ordered by creation time.
	ListAccounts(ctx context.Context, q Executor) ([]domain.Account, error)
	// DeleteAccount removes an account.
	DeleteAccount(ctx context.Context, q Executor, id string) error
}
