// internal/repository/kv/transaction_kv.go
package kv

import (
	"context"
	"fmt"
	"sort"

	"finflow-invest/internal/domain"
	"finflow-invest/internal/repository"
)

// TransactionRepository implements repository.TransactionRepository on a key-value store.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

// SaveTransaction writes the transaction under transactions/<id>.
func (r *TransactionRepository) SaveTransaction(ctx context.Context, q repository.Executor, transaction *domain.Transaction) error {
	if err := putJSON(ctx, q, transactionPrefix+transaction.ID, transaction); err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", transaction.ID, err)
	}
	return nil
}

// GetTransactionByID retrieves a transaction by its ID.
func (r *TransactionRepository) GetTransactionByID(ctx context.Context, q repository.Executor, id string) (*domain.Transaction, error) {
	transaction, err := getJSON[domain.Transaction](ctx, q, transactionPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by ID %s: %w", id, err)
	}
	return transaction, nil
}

// ListTransactions returns the transactions matching filter, newest first.
func (r *TransactionRepository) ListTransactions(ctx context.Context, q repository.Executor, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	all, err := listJSON[domain.Transaction](ctx, q, transactionPrefix)
	if err != nil {
		return nil, err
	}
	transactions := make([]domain.Transaction, 0, len(all))
	for i := range all {
		if filter.Matches(&all[i]) {
			transactions = append(transactions, all[i])
		}
	}
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].CreatedAt.After(transactions[j].CreatedAt)
	})
	return transactions, nil
}
