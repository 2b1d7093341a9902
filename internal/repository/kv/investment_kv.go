// internal/repository/kv/investment_kv.go
package kv

import (
	"context"
	"fmt"
	"sort"

	"finflow-invest/internal/domain"
	"finflow-invest/internal/repository"
)

// InvestmentRepository implements repository.InvestmentRepository on a key-value store.
type InvestmentRepository struct{}

// NewInvestmentRepository creates a new InvestmentRepository.
func NewInvestmentRepository() repository.InvestmentRepository {
	return &InvestmentRepository{}
}

func (r *InvestmentRepository) SaveInvestment(ctx context.Context, q repository.Executor, investment *domain.Investment) error {
	if err := putJSON(ctx, q, investmentPrefix+investment.ID, investment); err != nil {
		return fmt.Errorf("failed to save investment %s: %w", investment.ID, err)
	}
	return nil
}

func (r *InvestmentRepository) GetInvestmentByID(ctx context.Context, q repository.Executor, id string) (*domain.Investment, error) {
	investment, err := getJSON[domain.Investment](ctx, q, investmentPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("failed to get investment by ID %s: %w", id, err)
	}
	return investment, nil
}

func (r *InvestmentRepository) ListInvestments(ctx context.Context, q repository.Executor, filter repository.InvestmentFilter) ([]domain.Investment, error) {
	all, err := listJSON[domain.Investment](ctx, q, investmentPrefix)
	if err != nil {
		return nil, err
	}
	investments := make([]domain.Investment, 0, len(all))
	for i := range all {
		if filter.Matches(&all[i]) {
			investments = append(investments, all[i])
		}
	}
	sort.SliceStable(investments, func(i, j int) bool {
		return investments[i].CreatedAt.After(investments[j].CreatedAt)
	})
	return investments, nil
}
