// internal/scheduler/valuation.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"finflow-invest/internal/clock"
	"finflow-invest/internal/domain"
	"finflow-invest/internal/metrics"
	"finflow-invest/internal/util"
)

// Valuer is the part of the investment service the scheduler drives.
type Valuer interface {
	ListActiveInvestments(ctx context.Context) ([]domain.Investment, error)
	Revalue(ctx context.Context, investmentID string, at time.Time) (*domain.Investment, bool, error)
	SettleMatured(ctx context.Context, investmentID string, at time.Time) (*domain.Investment, error)
}

// Report summarizes one tick.
type Report struct {
	At       time.Time
	Skipped  bool
	Scanned  int
	Revalued int
	Settled  int
	// Closed counts positions another caller finalized during the tick.
	Closed int
	Failed int
}

// Valuation recomputes the value of every active investment and settles the
// ones that reached maturity.
type Valuation struct {
	valuer  Valuer
	clock   clock.Clock
	logger  *slog.Logger
	timeout time.Duration
	busy    atomic.Bool
}

// NewValuation creates the valuation job. timeout bounds a single scheduled
// run; zero means no bound.
func NewValuation(valuer Valuer, clk clock.Clock, timeout time.Duration, logger *slog.Logger) *Valuation {
	return &Valuation{valuer: valuer, clock: clk, timeout: timeout, logger: logger}
}

// Tick values all active investments as of now. It never overlaps with
// itself: a call made while another tick is running returns at once with
// Skipped set. Running Tick twice with the same now leaves the same state.
func (v *Valuation) Tick(ctx context.Context, now time.Time) (Report, error) {
	report := Report{At: now}
	if !v.busy.CompareAndSwap(false, true) {
		report.Skipped = true
		metrics.RecordValuationTick("skipped", 0)
		v.logger.WarnContext(ctx, "Valuation tick skipped, previous tick still running", "at", now)
		return report, nil
	}
	defer v.busy.Store(false)

	start := time.Now()
	err := v.tick(ctx, now, &report)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordValuationTick(outcome, time.Since(start))
	return report, err
}

func (v *Valuation) tick(ctx context.Context, now time.Time, report *Report) error {
	active, err := v.valuer.ListActiveInvestments(ctx)
	if err != nil {
		return fmt.Errorf("valuation tick: %w", err)
	}

	var errs []error
	for i := range active {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("valuation tick: %w", err))
			break
		}
		inv := &active[i]
		report.Scanned++

		if inv.IsMatured(now) {
			_, err = v.valuer.SettleMatured(ctx, inv.ID, now)
			if err == nil {
				report.Settled++
				continue
			}
		} else {
			var changed bool
			_, changed, err = v.valuer.Revalue(ctx, inv.ID, now)
			if err == nil {
				if changed {
					report.Revalued++
				}
				continue
			}
		}

		if errors.Is(err, util.ErrConflict) || errors.Is(err, util.ErrNotFound) {
			report.Closed++
			v.logger.DebugContext(ctx, "Investment closed during valuation", "investment_id", inv.ID)
			continue
		}
		report.Failed++
		v.logger.ErrorContext(ctx, "Failed to value investment", "investment_id", inv.ID, "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Run is the scheduled entry point: it ticks at the current clock time.
func (v *Valuation) Run(ctx context.Context) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	report, err := v.Tick(ctx, v.clock.Now())
	if err != nil {
		v.logger.ErrorContext(ctx, "Valuation tick finished with errors", "error", err, "failed", report.Failed)
		return
	}
	if !report.Skipped {
		v.logger.InfoContext(ctx, "Valuation tick completed",
			"scanned", report.Scanned, "revalued", report.Revalued, "settled", report.Settled, "closed", report.Closed)
	}
}
