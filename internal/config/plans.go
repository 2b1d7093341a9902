// internal/config/plans.go
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"finflow-invest/internal/domain"
)

type planFile struct {
	Plans []domain.InvestmentPlan `yaml:"plans"`
}

// DefaultPlans is the catalog used when no plans file is configured.
func DefaultPlans() []domain.InvestmentPlan {
	return []domain.InvestmentPlan{
		{
			ID: "basic", Name: "Basic Plan",
			ROI:        decimal.RequireFromString("0.05"),
			MinDeposit: decimal.NewFromInt(100), MaxDeposit: decimal.NewFromInt(1000),
			DurationDays: 30, Status: domain.PlanStatusActive,
		},
		{
			ID: "standard", Name: "Standard Plan",
			ROI:        decimal.RequireFromString("0.10"),
			MinDeposit: decimal.NewFromInt(1001), MaxDeposit: decimal.NewFromInt(5000),
			DurationDays: 60, Status: domain.PlanStatusActive,
		},
		{
			ID: "premium", Name: "Premium Plan",
			ROI:        decimal.RequireFromString("0.15"),
			MinDeposit: decimal.NewFromInt(5001), MaxDeposit: decimal.NewFromInt(10000),
			DurationDays: 90, Status: domain.PlanStatusActive,
		},
	}
}

// LoadPlans reads the plan catalog from a YAML file, or returns DefaultPlans
// when path is empty.
func LoadPlans(path string) ([]domain.InvestmentPlan, error) {
	if path == "" {
		return DefaultPlans(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plans file: %w", err)
	}
	return ParsePlans(data)
}

// ParsePlans decodes and validates a YAML plan catalog.
func ParsePlans(data []byte) ([]domain.InvestmentPlan, error) {
	var f planFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plans: %w", err)
	}
	if len(f.Plans) == 0 {
		return nil, fmt.Errorf("plans file defines no plans")
	}
	seen := make(map[string]bool, len(f.Plans))
	for i := range f.Plans {
		if f.Plans[i].Status == "" {
			f.Plans[i].Status = domain.PlanStatusActive
		}
		if err := f.Plans[i].Validate(); err != nil {
			return nil, err
		}
		if seen[f.Plans[i].ID] {
			return nil, fmt.Errorf("duplicate plan id %q", f.Plans[i].ID)
		}
		seen[f.Plans[i].ID] = true
	}
	return f.Plans, nil
}
