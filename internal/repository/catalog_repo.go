// internal/repository/catalog_repo.go
package repository

import (
	"context"

	"finflow-invest/internal/domain"
)

// PlanRepository defines the interface for the plan catalog.
type PlanRepository interface {
	SavePlan(ctx context.Context, q Executor, plan *domain.InvestmentPlan) error
	GetPlanByID(ctx context.Context, q Executor, id string) (*domain.InvestmentPlan, error)
	ListPlans(ctx context.Context, q Executor) ([]domain.InvestmentPlan, error)
}

// SettingsRepository defines the interface for platform settings.
type SettingsRepository interface {
	// GetWalletAddresses returns util.ErrNotFound until addresses are first saved.
	GetWalletAddresses(ctx context.Context, q Executor) (*domain.WalletAddresses, error)
	SaveWalletAddresses(ctx context.Context, q Executor, addresses *domain.WalletAddresses) error
}
