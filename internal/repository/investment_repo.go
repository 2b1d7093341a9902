// internal/repository/investment_repo.go
package repository

import (
	"context"

	"finflow-invest/internal/domain"
)

// InvestmentFilter narrows investment listings; zero fields match anything.
type InvestmentFilter struct {
	AccountID string
	Status    domain.InvestmentStatus
}

// Matches reports whether i satisfies the filter.
func (f InvestmentFilter) Matches(i *domain.Investment) bool {
	return (f.AccountID == "" || i.AccountID == f.AccountID) &&
		(f.Status == "" || i.Status == f.Status)
}

// InvestmentRepository defines the interface for investment data operations.
type InvestmentRepository interface {
	SaveInvestment(ctx context.Context, q Executor, investment *domain.Investment) error
	GetInvestmentByID(ctx context.Context, q Executor, id string) (*domain.Investment, error)
	// ListInvestments returns matching investments, newest first.
	ListInvestments(ctx context.Context, q Executor, filter InvestmentFilter) ([]domain.Investment, error)
}
