package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finflow-invest/internal/util"
)

// PlanStatus marks whether a plan accepts new investments.
type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusInactive PlanStatus = "inactive"
)

// InvestmentPlan is a catalog entry. The core never mutates plans.
type InvestmentPlan struct {
	ID           string          `json:"id" yaml:"id"`
	Name         string          `json:"name" yaml:"name"`
	ROI          decimal.Decimal `json:"roi" yaml:"roi"`
	MinDeposit   decimal.Decimal `json:"min_deposit" yaml:"min_deposit"`
	MaxDeposit   decimal.Decimal `json:"max_deposit" yaml:"max_deposit"`
	DurationDays int             `json:"duration_days" yaml:"duration_days"`
	Status       PlanStatus      `json:"status" yaml:"status"`
}

// Duration is the plan term.
func (p *InvestmentPlan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// IsActive reports whether the plan accepts new investments.
func (p *InvestmentPlan) IsActive() bool {
	return p.Status == PlanStatusActive
}

// Accepts reports whether amount lies within [MinDeposit, MaxDeposit].
func (p *InvestmentPlan) Accepts(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(p.MinDeposit) && amount.LessThanOrEqual(p.MaxDeposit)
}

// Validate checks catalog consistency.
func (p *InvestmentPlan) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: plan id is required", util.ErrInvalidInput)
	case p.ROI.IsNegative():
		return fmt.Errorf("%w: plan %s has negative roi", util.ErrInvalidInput, p.ID)
	case !p.MinDeposit.IsPositive() || p.MaxDeposit.LessThan(p.MinDeposit):
		return fmt.Errorf("%w: plan %s has invalid deposit bounds", util.ErrInvalidInput, p.ID)
	case p.DurationDays <= 0:
		return fmt.Errorf("%w: plan %s has non-positive duration", util.ErrInvalidInput, p.ID)
	case p.Status != PlanStatusActive && p.Status != PlanStatusInactive:
		return fmt.Errorf("%w: plan %s has unknown status %q", util.ErrInvalidInput, p.ID, p.Status)
	}
	return nil
}
