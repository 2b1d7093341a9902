package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finflow-invest/internal/util"
)

func TestWalletAddresses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "bob", "0", "")

	empty, err := env.settings.GetWalletAddresses(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Addresses)

	require.NoError(t, env.settings.EnsureWalletAddresses(ctx, map[string]string{"trc20": " T1 ", "BEP20": "0x1"}))
	got, err := env.settings.GetWalletAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"TRC20": "T1", "BEP20": "0x1"}, got.Addresses)
	assert.Equal(t, []string{"BEP20", "TRC20"}, got.Currencies())

	_, err = env.settings.UpdateWalletAddresses(ctx, u.ID, map[string]string{"TRC20": "T2"})
	assert.ErrorIs(t, err, util.ErrUnauthorized)
	_, err = env.settings.UpdateWalletAddresses(ctx, env.admin.ID, map[string]string{})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	_, err = env.settings.UpdateWalletAddresses(ctx, env.admin.ID, map[string]string{"TRC20": ""})
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	updated, err := env.settings.UpdateWalletAddresses(ctx, env.admin.ID, map[string]string{"TRC20": "T2"})
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Addresses["TRC20"])

	// Defaults never overwrite saved addresses.
	require.NoError(t, env.settings.EnsureWalletAddresses(ctx, map[string]string{"TRC20": "T1"}))
	got, err = env.settings.GetWalletAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"TRC20": "T2"}, got.Addresses)
}
