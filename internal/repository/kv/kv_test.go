package kv

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finflow-invest/internal/domain"
	"finflow-invest/internal/repository"
	"finflow-invest/internal/util"
	"finflow-invest/pkg/kvstore"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	repo := NewAccountRepository()

	older := domain.NewAccount("Old", "old@example.com", domain.RoleUser, nil, t0)
	newer := domain.NewAccount("New", "New@Example.com", domain.RoleAdmin, nil, t0.Add(time.Hour))
	newer.Balance = decimal.RequireFromString("12.34")
	require.NoError(t, repo.SaveAccount(ctx, store, newer))
	require.NoError(t, repo.SaveAccount(ctx, store, older))

	got, err := repo.GetAccountByID(ctx, store, newer.ID)
	require.NoError(t, err)
	assert.True(t, newer.Balance.Equal(got.Balance))
	assert.Equal(t, domain.RoleAdmin, got.Role)

	byEmail, err := repo.GetAccountByEmail(ctx, store, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, byEmail.ID)

	all, err := repo.ListAccounts(ctx, store)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, older.ID, all[0].ID)

	require.NoError(t, repo.DeleteAccount(ctx, store, older.ID))
	_, err = repo.GetAccountByID(ctx, store, older.ID)
	assert.ErrorIs(t, err, util.ErrNotFound)

	_, err = repo.GetAccountByEmail(ctx, store, "nobody@example.com")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestAccountEmailIndex(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	repo := NewAccountRepository()

	account := domain.NewAccount("Ann", "Ann@Example.com", domain.RoleUser, nil, t0)
	require.NoError(t, repo.SaveAccount(ctx, store, account))

	raw, err := store.Get(ctx, "account-emails/ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, string(raw))

	// Index entries never show up as accounts.
	all, err := repo.ListAccounts(ctx, store)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	account.Email = "ann.new@example.com"
	require.NoError(t, repo.SaveAccount(ctx, store, account))
	_, err = repo.GetAccountByEmail(ctx, store, "ann@example.com")
	assert.ErrorIs(t, err, util.ErrNotFound)
	got, err := repo.GetAccountByEmail(ctx, store, "ANN.NEW@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	require.NoError(t, repo.DeleteAccount(ctx, store, account.ID))
	_, err = repo.GetAccountByEmail(ctx, store, "ann.new@example.com")
	assert.ErrorIs(t, err, util.ErrNotFound)
	_, err = store.Get(ctx, "account-emails/ann.new@example.com")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestAccountEmailIndexFollowsUnitOfWork(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	repo := NewAccountRepository()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	q, ok := tx.(repository.Executor)
	require.True(t, ok)
	account := domain.NewAccount("Ben", "ben@example.com", domain.RoleUser, nil, t0)
	require.NoError(t, repo.SaveAccount(ctx, q, account))

	got, err := repo.GetAccountByEmail(ctx, q, "ben@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	require.NoError(t, tx.Rollback())

	_, err = repo.GetAccountByEmail(ctx, store, "ben@example.com")
	assert.ErrorIs(t, err, util.ErrNotFound)
	_, err = repo.GetAccountByID(ctx, store, account.ID)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestTransactionRepositoryFilters(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	repo := NewTransactionRepository()

	first := domain.NewTransaction("a", domain.TransactionKindDeposit, decimal.NewFromInt(10), nil, t0)
	second := domain.NewTransaction("a", domain.TransactionKindWithdrawal, decimal.NewFromInt(5), nil, t0.Add(time.Minute))
	other := domain.NewTransaction("b", domain.TransactionKindDeposit, decimal.NewFromInt(7), nil, t0.Add(2*time.Minute))
	require.NoError(t, other.Resolve(domain.TransactionStatusApproved, "admin", t0))
	for _, tx := range []*domain.Transaction{first, second, other} {
		require.NoError(t, repo.SaveTransaction(ctx, store, tx))
	}

	mine, err := repo.ListTransactions(ctx, store, repository.TransactionFilter{AccountID: "a"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID, "newest first")

	approved, err := repo.ListTransactions(ctx, store, repository.TransactionFilter{Status: domain.TransactionStatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, other.ID, approved[0].ID)

	deposits, err := repo.ListTransactions(ctx, store, repository.TransactionFilter{Kind: domain.TransactionKindDeposit})
	require.NoError(t, err)
	assert.Len(t, deposits, 2)
}

func TestInvestmentRepositoryRoundTripInsideTx(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	repo := NewInvestmentRepository()
	plan := &domain.InvestmentPlan{ID: "p", ROI: decimal.RequireFromString("0.1"), DurationDays: 60}
	inv := domain.NewInvestment("a", plan, decimal.NewFromInt(2000), t0)

	txc, err := store.BeginTx(ctx)
	require.NoError(t, err)
	tx := txc.(kvstore.Tx)
	require.NoError(t, repo.SaveInvestment(ctx, tx, inv))

	active, err := repo.ListInvestments(ctx, tx, repository.InvestmentFilter{Status: domain.InvestmentStatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, tx.Rollback())
	_, err = repo.GetInvestmentByID(ctx, store, inv.ID)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestCatalogRepositories(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	plans := NewPlanRepository()
	settings := NewSettingsRepository()

	require.NoError(t, plans.SavePlan(ctx, store, &domain.InvestmentPlan{ID: "premium", MinDeposit: decimal.NewFromInt(5001)}))
	require.NoError(t, plans.SavePlan(ctx, store, &domain.InvestmentPlan{ID: "basic", MinDeposit: decimal.NewFromInt(100)}))
	list, err := plans.ListPlans(ctx, store)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "basic", list[0].ID)

	_, err = settings.GetWalletAddresses(ctx, store)
	assert.ErrorIs(t, err, util.ErrNotFound)
	require.NoError(t, settings.SaveWalletAddresses(ctx, store, &domain.WalletAddresses{Addresses: map[string]string{"TRC20": "T"}}))
	w, err := settings.GetWalletAddresses(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "T", w.Addresses["TRC20"])
}
