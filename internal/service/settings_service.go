// internal/service/settings_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finflow-invest/internal/domain"
	"finflow-invest/internal/repository"
	"finflow-invest/internal/util"
)

const walletsLockKey = "settings:wallets"

// SettingsService manages the deposit wallet addresses shown to users.
type SettingsService interface {
	GetWalletAddresses(ctx context.Context) (*domain.WalletAddresses, error)
	UpdateWalletAddresses(ctx context.Context, actorID string, addresses map[string]string) (*domain.WalletAddresses, error)
	EnsureWalletAddresses(ctx context.Context, defaults map[string]string) error
}

type settingsService struct {
	deps *Deps
}

func NewSettingsService(deps *Deps) SettingsService {
	deps.normalize()
	return &settingsService{deps: deps}
}

// GetWalletAddresses returns the configured addresses, or an empty set when
// none were ever saved.
func (s *settingsService) GetWalletAddresses(ctx context.Context) (*domain.WalletAddresses, error) {
	wallets, err := s.deps.Settings.GetWalletAddresses(ctx, s.deps.Store)
	if errors.Is(err, util.ErrNotFound) {
		return &domain.WalletAddresses{Addresses: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet addresses: %w", err)
	}
	return wallets, nil
}

func cleanAddresses(op string, addresses map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(addresses))
	for currency, address := range addresses {
		currency = normalizeCurrency(currency)
		address = strings.TrimSpace(address)
		if currency == "" || address == "" {
			return nil, fmt.Errorf("%s: currency and address must be non-empty: %w", op, util.ErrInvalidInput)
		}
		out[currency] = address
	}
	return out, nil
}

// UpdateWalletAddresses replaces the address set. Admin only.
func (s *settingsService) UpdateWalletAddresses(ctx context.Context, actorID string, addresses map[string]string) (*domain.WalletAddresses, error) {
	if err := s.deps.requireAdmin(ctx, "update wallet addresses", actorID); err != nil {
		return nil, err
	}
	cleaned, err := cleanAddresses("update wallet addresses", addresses)
	if err != nil {
		return nil, err
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("update wallet addresses: at least one address is required: %w", util.ErrInvalidInput)
	}

	unlock, err := s.deps.lock(ctx, "update wallet addresses", walletsLockKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	wallets := &domain.WalletAddresses{Addresses: cleaned, UpdatedAt: s.deps.Clock.Now()}
	err = s.deps.inTx(ctx, "update wallet addresses", func(q repository.Executor) error {
		if err := s.deps.Settings.SaveWalletAddresses(ctx, q, wallets); err != nil {
			return fmt.Errorf("update wallet addresses: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.deps.Logger.InfoContext(ctx, "Wallet addresses updated", "actor_id", actorID, "currencies", wallets.Currencies())
	return wallets, nil
}

// EnsureWalletAddresses stores defaults unless addresses were already saved.
func (s *settingsService) EnsureWalletAddresses(ctx context.Context, defaults map[string]string) error {
	cleaned, err := cleanAddresses("ensure wallet addresses", defaults)
	if err != nil {
		return err
	}
	if len(cleaned) == 0 {
		return nil
	}

	unlock, err := s.deps.lock(ctx, "ensure wallet addresses", walletsLockKey)
	if err != nil {
		return err
	}
	defer unlock()

	return s.deps.inTx(ctx, "ensure wallet addresses", func(q repository.Executor) error {
		_, err := s.deps.Settings.GetWalletAddresses(ctx, q)
		if err == nil {
			return nil
		}
		if !errors.Is(err, util.ErrNotFound) {
			return fmt.Errorf("ensure wallet addresses: %w", err)
		}
		wallets := &domain.WalletAddresses{Addresses: cleaned, UpdatedAt: s.deps.Clock.Now()}
		if err := s.deps.Settings.SaveWalletAddresses(ctx, q, wallets); err != nil {
			return fmt.Errorf("ensure wallet addresses: %w", err)
		}
		return nil
	})
}
