package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finflow-invest/internal/clock"
	"finflow-invest/internal/domain"
	"finflow-invest/internal/notify"
	"finflow-invest/internal/repository/kv"
	"finflow-invest/pkg/db"
	"finflow-invest/pkg/kvstore"
)

var testStart = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

// recordingSink captures notifications synchronously.
type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingSink) Notify(_ context.Context, e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

// MockAuthorizer is a mock implementation of Authorizer.
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) IsAdmin(ctx context.Context, accountID string) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

type testEnv struct {
	store        *kvstore.Memory
	clock        *clock.Fixed
	sink         *recordingSink
	deps         *Deps
	accounts     AccountService
	transactions TransactionService
	investments  InvestmentService
	settings     SettingsService
	admin        *domain.Account
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := kvstore.NewMemory()
	env := &testEnv{
		store: store,
		clock: clock.NewFixed(testStart),
		sink:  &recordingSink{},
	}
	env.deps = &Deps{
		Store:        store,
		Accounts:     kv.NewAccountRepository(),
		Transactions: kv.NewTransactionRepository(),
		Investments:  kv.NewInvestmentRepository(),
		Plans:        kv.NewPlanRepository(),
		Settings:     kv.NewSettingsRepository(),
		Clock:        env.clock,
		Notifier:     env.sink,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	env.accounts = NewAccountService(env.deps)
	env.transactions = NewTransactionService(env.deps, decimal.Zero)
	env.investments = NewInvestmentService(env.deps)
	env.settings = NewSettingsService(env.deps)

	require.NoError(t, env.investments.SeedPlans(context.Background(), []domain.InvestmentPlan{
		{ID: "basic", Name: "Basic", ROI: dec("0.05"), MinDeposit: dec("100"), MaxDeposit: dec("1000"), DurationDays: 30, Status: domain.PlanStatusActive},
		{ID: "premium", Name: "Premium", ROI: dec("0.15"), MinDeposit: dec("5001"), MaxDeposit: dec("50000"), DurationDays: 90, Status: domain.PlanStatusActive},
		{ID: "legacy", Name: "Legacy", ROI: dec("0.30"), MinDeposit: dec("10"), MaxDeposit: dec("100"), DurationDays: 10, Status: domain.PlanStatusInactive},
	}))

	admin, err := env.accounts.EnsureAdmin(context.Background(), "Admin", "admin@example.com")
	require.NoError(t, err)
	env.admin = admin
	return env
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// user registers an account and funds it through an approved deposit.
func (e *testEnv) user(t *testing.T, name string, balance string, referrer string) *domain.Account {
	t.Helper()
	ctx := context.Background()
	account, err := e.accounts.Register(ctx, name, name+"@example.com", referrer)
	require.NoError(t, err)
	if balance != "" && !dec(balance).IsZero() {
		e.setBalance(t, account.ID, balance)
	}
	return e.balanceOf(t, account.ID)
}

// setBalance writes a balance directly, bypassing the workflow.
func (e *testEnv) setBalance(t *testing.T, accountID, balance string) {
	t.Helper()
	ctx := context.Background()
	account, err := e.deps.Accounts.GetAccountByID(ctx, e.store, accountID)
	require.NoError(t, err)
	account.Balance = dec(balance)
	require.NoError(t, e.deps.Accounts.SaveAccount(ctx, e.store, account))
}

func (e *testEnv) balanceOf(t *testing.T, accountID string) *domain.Account {
	t.Helper()
	account, err := e.deps.Accounts.GetAccountByID(context.Background(), e.store, accountID)
	require.NoError(t, err)
	return account
}

func requireBalance(t *testing.T, env *testEnv, accountID, want string) {
	t.Helper()
	got := env.balanceOf(t, accountID).Balance
	require.Truef(t, dec(want).Equal(got), "balance: want %s, got %s", want, got.String())
}

// failingCommit wraps the real commit and fails after rolling back, as a
// store would on a lost connection.
var errCommitFailed = errors.New("commit failed")

func failingCommit(tx db.TxController) error {
	_ = tx.Rollback()
	return errCommitFailed
}
