// internal/domain/account.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role defines what an account may do.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Referral records one account brought in by the owning account and the
// commission it has generated so far.
type Referral struct {
	AccountID  string          `json:"account_id"`
	Name       string          `json:"name"`
	Commission decimal.Decimal `json:"commission"`
}

// Account represents a platform user together with its balance.
// Balance is only changed through the ledger; ReferralBonus and Referrals
// only through the referral engine.
type Account struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Role          Role            `json:"role"`
	Balance       decimal.Decimal `json:"balance"`
	ReferredBy    *string         `json:"referred_by,omitempty"`
	ReferralBonus decimal.Decimal `json:"referral_bonus"`
	Referrals     []Referral      `json:"referrals"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewAccount creates a new Account with a zero balance.
func NewAccount(name, email string, role Role, referredBy *string, now time.Time) *Account {
	return &Account{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         email,
		Role:          role,
		Balance:       decimal.Zero,
		ReferredBy:    referredBy,
		ReferralBonus: decimal.Zero,
		Referrals:     []Referral{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsAdmin reports whether the account holds the admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ApplyBalanceDelta sets the balance to max(0, balance+delta) and returns it.
func (a *Account) ApplyBalanceDelta(delta decimal.Decimal, now time.Time) decimal.Decimal {
	next := a.Balance.Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	a.Balance = next
	a.UpdatedAt = now
	return next
}

// CreditReferral adds commission earned from the referred account,
// appending a record the first time that account pays out.
func (a *Account) CreditReferral(referredID, referredName string, commission decimal.Decimal, now time.Time) {
	a.ReferralBonus = a.ReferralBonus.Add(commission)
	for i := range a.Referrals {
		if a.Referrals[i].AccountID == referredID {
			a.Referrals[i].Commission = a.Referrals[i].Commission.Add(commission)
			a.UpdatedAt = now
			return
		}
	}
	a.Referrals = append(a.Referrals, Referral{AccountID: referredID, Name: referredName, Commission: commission})
	a.UpdatedAt = now
}
