package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finflow-invest/internal/util"
)

// InvestmentStatus is the lifecycle state of a position.
type InvestmentStatus string

const (
	InvestmentStatusActive    InvestmentStatus = "active"
	InvestmentStatusCompleted InvestmentStatus = "completed"
	InvestmentStatusCancelled InvestmentStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s InvestmentStatus) IsTerminal() bool {
	return s == InvestmentStatusCompleted || s == InvestmentStatusCancelled
}

// valuePlaces is the precision kept for accrued values.
const valuePlaces = 8

// Investment is a time-bounded position opened against a plan.
// ROI and DurationDays are copied from the plan when the position opens, so
// later catalog edits never change a running position.
type Investment struct {
	ID           string           `json:"id"`
	AccountID    string           `json:"account_id"`
	PlanID       string           `json:"plan_id"`
	Amount       decimal.Decimal  `json:"amount"`
	ROI          decimal.Decimal  `json:"roi"`
	DurationDays int              `json:"duration_days"`
	StartDate    time.Time        `json:"start_date"`
	EndDate      time.Time        `json:"end_date"`
	Status       InvestmentStatus `json:"status"`
	ROIEarned    decimal.Decimal  `json:"roi_earned"`
	CurrentValue decimal.Decimal  `json:"current_value"`
	ClosedAt     *time.Time       `json:"closed_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// NewInvestment opens an active position at now.
func NewInvestment(accountID string, plan *InvestmentPlan, amount decimal.Decimal, now time.Time) *Investment {
	return &Investment{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		PlanID:       plan.ID,
		Amount:       amount,
		ROI:          plan.ROI,
		DurationDays: plan.DurationDays,
		StartDate:    now,
		EndDate:      now.Add(plan.Duration()),
		Status:       InvestmentStatusActive,
		ROIEarned:    decimal.Zero,
		CurrentValue: amount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Progress is the elapsed fraction of the term at time at, clamped to [0, 1].
func (i *Investment) Progress(at time.Time) decimal.Decimal {
	total := i.EndDate.Sub(i.StartDate)
	if total <= 0 {
		return decimal.NewFromInt(1)
	}
	elapsed := at.Sub(i.StartDate)
	switch {
	case elapsed <= 0:
		return decimal.Zero
	case elapsed >= total:
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(elapsed)).Div(decimal.NewFromInt(int64(total)))
}

// ExpectedProfit is the profit realized at full maturity.
func (i *Investment) ExpectedProfit() decimal.Decimal {
	return i.Amount.Mul(i.ROI)
}

// ValueAt is amount + expectedProfit*progress(at). It depends only on at.
func (i *Investment) ValueAt(at time.Time) decimal.Decimal {
	return i.Amount.Add(i.ExpectedProfit().Mul(i.Progress(at))).Round(valuePlaces)
}

// IsMatured reports whether the term has fully elapsed at time at.
func (i *Investment) IsMatured(at time.Time) bool {
	return !at.Before(i.EndDate)
}

// Revalue recomputes CurrentValue for an active position and reports whether
// it changed. The value never moves backwards while active.
func (i *Investment) Revalue(at time.Time) (bool, error) {
	if i.Status != InvestmentStatusActive {
		return false, fmt.Errorf("%w: investment %s is %s", util.ErrConflict, i.ID, i.Status)
	}
	next := i.ValueAt(at)
	if !next.GreaterThan(i.CurrentValue) {
		return false, nil
	}
	i.CurrentValue = next
	i.UpdatedAt = at
	return true, nil
}

// Cancel closes an active position; CurrentValue keeps its last valuation.
func (i *Investment) Cancel(now time.Time) error {
	if i.Status != InvestmentStatusActive {
		return fmt.Errorf("%w: investment %s is %s", util.ErrConflict, i.ID, i.Status)
	}
	i.Status = InvestmentStatusCancelled
	i.ClosedAt = &now
	i.UpdatedAt = now
	return nil
}

// Complete settles a matured position and returns the realized profit.
func (i *Investment) Complete(at time.Time) (decimal.Decimal, error) {
	if i.Status != InvestmentStatusActive {
		return decimal.Zero, fmt.Errorf("%w: investment %s is %s", util.ErrConflict, i.ID, i.Status)
	}
	if !i.IsMatured(at) {
		return decimal.Zero, fmt.Errorf("%w: investment %s matures at %s", util.ErrConflict, i.ID, i.EndDate.Format(time.RFC3339))
	}
	i.CurrentValue = i.ValueAt(at)
	i.ROIEarned = i.CurrentValue.Sub(i.Amount)
	i.Status = InvestmentStatusCompleted
	i.ClosedAt = &at
	i.UpdatedAt = at
	return i.ROIEarned, nil
}

// AccruedProfit is the profit attributable to the position at time at:
// the running accrual while active, the realized profit once completed and
// nothing once cancelled.
func (i *Investment) AccruedProfit(at time.Time) decimal.Decimal {
	switch i.Status {
	case InvestmentStatusActive:
		return i.ValueAt(at).Sub(i.Amount)
	case InvestmentStatusCompleted:
		return i.ROIEarned
	default:
		return decimal.Zero
	}
}
