// internal/repository/kv/catalog_kv.go
package kv

import (
	"context"
	"fmt"
	"sort"

	"finflow-invest/internal/domain"
	"finflow-invest/internal/repository"
)

// PlanRepository implements repository.PlanRepository on a key-value store.
type PlanRepository struct{}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository() repository.PlanRepository {
	return &PlanRepository{}
}

func (r *PlanRepository) SavePlan(ctx context.Context, q repository.Executor, plan *domain.InvestmentPlan) error {
	if err := putJSON(ctx, q, planPrefix+plan.ID, plan); err != nil {
		return fmt.Errorf("failed to save plan %s: %w", plan.ID, err)
	}
	return nil
}

func (r *PlanRepository) GetPlanByID(ctx context.Context, q repository.Executor, id string) (*domain.InvestmentPlan, error) {
	plan, err := getJSON[domain.InvestmentPlan](ctx, q, planPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan by ID %s: %w", id, err)
	}
	return plan, nil
}

// ListPlans returns the catalog ordered by minimum deposit.
func (r *PlanRepository) ListPlans(ctx context.Context, q repository.Executor) ([]domain.InvestmentPlan, error) {
	plans, err := listJSON[domain.InvestmentPlan](ctx, q, planPrefix)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].MinDeposit.LessThan(plans[j].MinDeposit) })
	return plans, nil
}

// SettingsRepository implements repository.SettingsRepository on a key-value store.
type SettingsRepository struct{}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository() repository.SettingsRepository {
	return &SettingsRepository{}
}

func (r *SettingsRepository) GetWalletAddresses(ctx context.Context, q repository.Executor) (*domain.WalletAddresses, error) {
	return getJSON[domain.WalletAddresses](ctx, q, walletsKey)
}

func (r *SettingsRepository) SaveWalletAddresses(ctx context.Context, q repository.Executor, addresses *domain.WalletAddresses) error {
	return putJSON(ctx, q, walletsKey, addresses)
}
