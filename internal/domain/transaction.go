// internal/domain/transaction.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations

	"finflow-invest/internal/util"
)

// TransactionKind defines the type of a money movement request.
type TransactionKind string

const (
	TransactionKindDeposit    TransactionKind = "deposit"
	TransactionKindWithdrawal TransactionKind = "withdrawal"
)

// TransactionStatus defines the status of a money movement request.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusApproved TransactionStatus = "approved"
	TransactionStatusRejected TransactionStatus = "rejected"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusApproved || s == TransactionStatusRejected
}

// Valid reports whether s is one of the known statuses.
func (s TransactionStatus) Valid() bool {
	return s == TransactionStatusPending || s.IsTerminal()
}

// TransactionDetails carries the payment routing data supplied by the user.
type TransactionDetails struct {
	Wallet   string `json:"wallet,omitempty"`
	Currency string `json:"currency,omitempty"`
	ProofRef string `json:"proof_ref,omitempty"`
}

// Transaction represents a deposit or withdrawal awaiting or past admin review.
type Transaction struct {
	ID         string              `json:"id"`
	AccountID  string              `json:"account_id"`
	Kind       TransactionKind     `json:"kind"`
	Amount     decimal.Decimal     `json:"amount"`
	Status     TransactionStatus   `json:"status"`
	Details    *TransactionDetails `json:"details,omitempty"`
	ResolvedBy string              `json:"resolved_by,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// NewTransaction creates a pending Transaction.
func NewTransaction(accountID string, kind TransactionKind, amount decimal.Decimal, details *TransactionDetails, now time.Time) *Transaction {
	return &Transaction{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Kind:      kind,
		Amount:    amount,
		Status:    TransactionStatusPending,
		Details:   details,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Resolve moves a pending transaction to decision. Only pending transactions
// may be resolved, and only to a terminal status.
func (t *Transaction) Resolve(decision TransactionStatus, actorID string, now time.Time) error {
	if !decision.IsTerminal() {
		return fmt.Errorf("%w: decision must be approved or rejected, got %q", util.ErrInvalidInput, decision)
	}
	if t.Status != TransactionStatusPending {
		return fmt.Errorf("%w: transaction %s is already %s", util.ErrConflict, t.ID, t.Status)
	}
	t.Status = decision
	t.ResolvedBy = actorID
	t.UpdatedAt = now
	return nil
}
