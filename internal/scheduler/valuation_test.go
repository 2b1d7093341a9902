package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finflow-invest/internal/clock"
	"finflow-invest/internal/domain"
	"finflow-invest/internal/repository/kv"
	"finflow-invest/internal/service"
	"finflow-invest/internal/util"
	"finflow-invest/pkg/kvstore"
)

var start = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockValuer is a mock implementation of Valuer.
type MockValuer struct {
	mock.Mock
}

func (m *MockValuer) ListActiveInvestments(ctx context.Context) ([]domain.Investment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Investment), args.Error(1)
}

func (m *MockValuer) Revalue(ctx context.Context, id string, at time.Time) (*domain.Investment, bool, error) {
	args := m.Called(ctx, id, at)
	return nil, args.Bool(0), args.Error(1)
}

func (m *MockValuer) SettleMatured(ctx context.Context, id string, at time.Time) (*domain.Investment, error) {
	args := m.Called(ctx, id, at)
	return nil, args.Error(0)
}

type fixture struct {
	deps        *service.Deps
	investments service.InvestmentService
	accountID   string
}

func newFixture(t *testing.T, clk clock.Clock) *fixture {
	t.Helper()
	ctx := context.Background()
	store := kvstore.NewMemory()
	deps := &service.Deps{
		Store:        store,
		Accounts:     kv.NewAccountRepository(),
		Transactions: kv.NewTransactionRepository(),
		Investments:  kv.NewInvestmentRepository(),
		Plans:        kv.NewPlanRepository(),
		Settings:     kv.NewSettingsRepository(),
		Clock:        clk,
		Logger:       discardLogger(),
	}
	investments := service.NewInvestmentService(deps)
	accounts := service.NewAccountService(deps)

	require.NoError(t, investments.SeedPlans(ctx, []domain.InvestmentPlan{{
		ID: "standard", Name: "Standard", ROI: decimal.RequireFromString("0.05"),
		MinDeposit: decimal.NewFromInt(100), MaxDeposit: decimal.NewFromInt(5000),
		DurationDays: 30, Status: domain.PlanStatusActive,
	}}))
	account, err := accounts.Register(ctx, "Bob", "bob@example.com", "")
	require.NoError(t, err)
	account.Balance = decimal.NewFromInt(1000)
	require.NoError(t, deps.Accounts.SaveAccount(ctx, store, account))

	return &fixture{deps: deps, investments: investments, accountID: account.ID}
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	account, err := f.deps.Accounts.GetAccountByID(context.Background(), f.deps.Store, f.accountID)
	require.NoError(t, err)
	return account.Balance
}

func TestTickRevaluesAndSettles(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFixed(start)
	f := newFixture(t, clk)
	inv, err := f.investments.Open(ctx, f.accountID, "standard", decimal.NewFromInt(500))
	require.NoError(t, err)

	v := NewValuation(f.investments, clk, 0, discardLogger())

	report, err := v.Tick(ctx, start.Add(15*day))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Revalued)
	got, err := f.investments.GetInvestment(ctx, inv.ID, f.accountID)
	require.NoError(t, err)
	assert.Equal(t, "512.5", got.CurrentValue.String())

	// Same instant again changes nothing.
	report, err = v.Tick(ctx, start.Add(15*day))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Revalued)
	got, err = f.investments.GetInvestment(ctx, inv.ID, f.accountID)
	require.NoError(t, err)
	assert.Equal(t, "512.5", got.CurrentValue.String())

	report, err = v.Tick(ctx, start.Add(30*day))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Settled)
	got, err = f.investments.GetInvestment(ctx, inv.ID, f.accountID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentStatusCompleted, got.Status)
	assert.Equal(t, "25", got.ROIEarned.String())
	assert.Equal(t, "525", f.balance(t).String())

	// Nothing left to do; a later tick never pays twice.
	report, err = v.Tick(ctx, start.Add(31*day))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	assert.Equal(t, "525", f.balance(t).String())
}

func TestTickSkipsWhenBusy(t *testing.T) {
	valuer := new(MockValuer)
	release := make(chan struct{})
	entered := make(chan struct{})
	valuer.On("ListActiveInvestments", mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return([]domain.Investment{}, nil).Once()

	v := NewValuation(valuer, clock.NewFixed(start), 0, discardLogger())
	done := make(chan Report)
	go func() {
		report, _ := v.Tick(context.Background(), start)
		done <- report
	}()
	<-entered

	report, err := v.Tick(context.Background(), start)
	require.NoError(t, err)
	assert.True(t, report.Skipped)

	close(release)
	first := <-done
	assert.False(t, first.Skipped)
	valuer.AssertExpectations(t)
}

func TestTickCountsClosedAndFailed(t *testing.T) {
	now := start.Add(10 * day)
	valuer := new(MockValuer)
	active := []domain.Investment{
		{ID: "gone", StartDate: start, EndDate: start.Add(30 * day), Status: domain.InvestmentStatusActive},
		{ID: "broken", StartDate: start, EndDate: start.Add(30 * day), Status: domain.InvestmentStatusActive},
		{ID: "due", StartDate: start, EndDate: start.Add(5 * day), Status: domain.InvestmentStatusActive},
	}
	boom := errors.New("store unavailable")
	valuer.On("ListActiveInvestments", mock.Anything).Return(active, nil)
	valuer.On("Revalue", mock.Anything, "gone", now).Return(false, util.ErrConflict)
	valuer.On("Revalue", mock.Anything, "broken", now).Return(false, boom)
	valuer.On("SettleMatured", mock.Anything, "due", now).Return(nil)

	v := NewValuation(valuer, clock.NewFixed(now), 0, discardLogger())
	report, err := v.Tick(context.Background(), now)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.Closed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Settled)
	valuer.AssertExpectations(t)
}

func TestRunUsesClock(t *testing.T) {
	now := start.Add(day)
	valuer := new(MockValuer)
	valuer.On("ListActiveInvestments", mock.Anything).Return(nil, errors.New("down")).Once()

	v := NewValuation(valuer, clock.NewFixed(now), time.Second, discardLogger())
	v.Run(context.Background())
	valuer.AssertExpectations(t)
}
