// internal/service/authz.go
package service

import (
	"context"
	"errors"
	"fmt"

	"finflow-invest/internal/repository"
	"finflow-invest/internal/util"
)

// Authorizer answers role questions about an acting account.
type Authorizer interface {
	IsAdmin(ctx context.Context, accountID string) (bool, error)
}

type accountAuthorizer struct {
	q        repository.Executor
	accounts repository.AccountRepository
}

// NewAccountAuthorizer checks roles against stored accounts.
// An unknown account is simply not an admin.
func NewAccountAuthorizer(q repository.Executor, accounts repository.AccountRepository) Authorizer {
	return &accountAuthorizer{q: q, accounts: accounts}
}

func (a *accountAuthorizer) IsAdmin(ctx context.Context, accountID string) (bool, error) {
	if accountID == "" {
		return false, nil
	}
	account, err := a.accounts.GetAccountByID(ctx, a.q, accountID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("authorize %s: %w", accountID, err)
	}
	return account.IsAdmin(), nil
}

// requireAdmin fails with ErrUnauthorized unless actorID is an admin.
func (d *Deps) requireAdmin(ctx context.Context, op, actorID string) error {
	ok, err := d.Authorizer.IsAdmin(ctx, actorID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: account %s is not an admin: %w", op, actorID, util.ErrUnauthorized)
	}
	return nil
}

// requireOwnerOrAdmin fails with ErrUnauthorized unless actorID owns the
// resource or is an admin.
func (d *Deps) requireOwnerOrAdmin(ctx context.Context, op, actorID, ownerID string) error {
	if actorID != "" && actorID == ownerID {
		return nil
	}
	ok, err := d.Authorizer.IsAdmin(ctx, actorID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: account %s may not access resources of %s: %w", op, actorID, ownerID, util.ErrUnauthorized)
	}
	return nil
}
