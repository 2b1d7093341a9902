package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finflow-invest/internal/domain"
	"finflow-invest/internal/util"
)

func TestRegisterWithReferral(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice", "0", "")

	b, err := env.accounts.Register(ctx, "  Bob ", "BOB@Example.com", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", b.Name)
	assert.Equal(t, "bob@example.com", b.Email)
	assert.Equal(t, domain.RoleUser, b.Role)
	require.NotNil(t, b.ReferredBy)
	assert.Equal(t, a.ID, *b.ReferredBy)

	alice := env.balanceOf(t, a.ID)
	require.Len(t, alice.Referrals, 1)
	assert.Equal(t, b.ID, alice.Referrals[0].AccountID)
	assert.True(t, alice.Referrals[0].Commission.IsZero())
}

func TestRegisterIgnoresUnknownReferralCode(t *testing.T) {
	env := newTestEnv(t)
	b, err := env.accounts.Register(context.Background(), "Bob", "bob@example.com", "no-such-account")
	require.NoError(t, err)
	assert.Nil(t, b.ReferredBy)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.accounts.Register(ctx, "", "x@example.com", "")
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	_, err = env.accounts.Register(ctx, "X", "not-an-email", "")
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	_, err = env.accounts.Register(ctx, "X", "x@example.com", "")
	require.NoError(t, err)
	_, err = env.accounts.Register(ctx, "Y", "X@EXAMPLE.COM", "")
	assert.ErrorIs(t, err, util.ErrConflict)
}

func TestAdminAccountOperations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "bob", "0", "")

	_, err := env.accounts.CreateAccount(ctx, u.ID, "Mallory", "m@example.com", domain.RoleAdmin)
	assert.ErrorIs(t, err, util.ErrUnauthorized)
	_, err = env.accounts.CreateAccount(ctx, env.admin.ID, "Ops", "ops@example.com", "root")
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	ops, err := env.accounts.CreateAccount(ctx, env.admin.ID, "Ops", "ops@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ops.IsAdmin())

	_, err = env.accounts.ListAccounts(ctx, u.ID)
	assert.ErrorIs(t, err, util.ErrUnauthorized)
	all, err := env.accounts.ListAccounts(ctx, env.admin.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = env.accounts.GetAccount(ctx, env.admin.ID, u.ID)
	assert.ErrorIs(t, err, util.ErrUnauthorized)
	self, err := env.accounts.GetAccount(ctx, u.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, self.ID)
	_, err = env.accounts.GetAccount(ctx, "ghost", env.admin.ID)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestDeleteAccountRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "bob", "500", "")

	assert.ErrorIs(t, env.accounts.DeleteAccount(ctx, u.ID, u.ID), util.ErrUnauthorized)
	assert.ErrorIs(t, env.accounts.DeleteAccount(ctx, env.admin.ID, env.admin.ID), util.ErrConflict)

	ops, err := env.accounts.CreateAccount(ctx, env.admin.ID, "Ops", "ops@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	assert.ErrorIs(t, env.accounts.DeleteAccount(ctx, ops.ID, env.admin.ID), util.ErrConflict)

	inv, err := env.investments.Open(ctx, u.ID, "basic", dec("200"))
	require.NoError(t, err)
	assert.ErrorIs(t, env.accounts.DeleteAccount(ctx, u.ID, env.admin.ID), util.ErrConflict)
	_, err = env.investments.Cancel(ctx, inv.ID, u.ID)
	require.NoError(t, err)

	d := deposit(t, env, u.ID, "10")
	assert.ErrorIs(t, env.accounts.DeleteAccount(ctx, u.ID, env.admin.ID), util.ErrConflict)
	_, err = env.transactions.Resolve(ctx, d.ID, domain.TransactionStatusRejected, env.admin.ID)
	require.NoError(t, err)

	require.NoError(t, env.accounts.DeleteAccount(ctx, u.ID, env.admin.ID))
	_, err = env.accounts.GetAccount(ctx, u.ID, env.admin.ID)
	assert.ErrorIs(t, err, util.ErrNotFound)
	assert.ErrorIs(t, env.accounts.DeleteAccount(ctx, u.ID, env.admin.ID), util.ErrNotFound)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	again, err := env.accounts.EnsureAdmin(ctx, "Admin", "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, env.admin.ID, again.ID)

	env.user(t, "bob", "0", "")
	_, err = env.accounts.EnsureAdmin(ctx, "Bob", "bob@example.com")
	assert.ErrorIs(t, err, util.ErrConflict)
}
