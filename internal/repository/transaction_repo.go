// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"finflow-invest/internal/domain"
)

// TransactionFilter narrows transaction listings; zero fields match anything.
type TransactionFilter struct {
	AccountID string
	Status    domain.TransactionStatus
	Kind      domain.TransactionKind
}

// Matches reports whether t satisfies the filter.
func (f TransactionFilter) Matches(t *domain.Transaction) bool {
	return (f.AccountID == "" || t.AccountID == f.AccountID) &&
		(f.Status == "" || t.Status == f.Status) &&
		(f.Kind == "" || t.Kind == f.Kind)
}

// TransactionRepository defines the interface for transaction data operations.
type TransactionRepository interface {
	// SaveTransaction inserts or replaces a transaction record.
	SaveTransaction(ctx context.Context, q Executor, transaction *domain.Transaction) error
	// GetTransactionByID retrieves a transaction by its ID.
	GetTransactionByID(ctx context.Context, q Executor, id string) (*domain.Transaction, error)
	// ListTransactions returns matching transactions, newest first.
	ListTransactions(ctx context.Context, q Executor, filter TransactionFilter) ([]domain.Transaction, error)
}
