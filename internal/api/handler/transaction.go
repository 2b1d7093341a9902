// internal/api/handler/transaction.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"finflow-invest/internal/api/types"
	"finflow-invest/internal/domain"
	"finflow-invest/internal/repository"
	"finflow-invest/internal/service"
)

// TransactionHandler handles HTTP requests for deposits and withdrawals.
type TransactionHandler struct {
	responder
	service service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(svc service.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{responder: responder{logger: logger}, service: svc}
}

// DepositRequest represents the request body for deposit.
type DepositRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Wallet   string          `json:"wallet"`
	Currency string          `json:"currency"`
	ProofRef string          `json:"proof_ref"`
}

// CreateDeposit records a pending deposit for the actor.
// POST /transactions/deposits
func (h *TransactionHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if !h.decode(w, r, &req) {
		return
	}
	transaction, err := h.service.CreateDeposit(r.Context(), service.DepositRequest{
		AccountID: ActorFromContext(r.Context()),
		Amount:    req.Amount,
		Wallet:    req.Wallet,
		Currency:  req.Currency,
		ProofRef:  req.ProofRef,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, transaction)
}

// WithdrawRequest represents the request body for withdraw.
type WithdrawRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Wallet   string          `json:"wallet"`
	Currency string          `json:"currency"`
}

// CreateWithdrawal records a pending withdrawal for the actor.
// POST /transactions/withdrawals
func (h *TransactionHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if !h.decode(w, r, &req) {
		return
	}
	transaction, err := h.service.CreateWithdrawal(r.Context(), service.WithdrawalRequest{
		AccountID: ActorFromContext(r.Context()),
		Amount:    req.Amount,
		Wallet:    req.Wallet,
		Currency:  req.Currency,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, transaction)
}

// ResolveRequest represents the admin decision on a pending transaction.
type ResolveRequest struct {
	Decision domain.TransactionStatus `json:"decision"`
}

// Resolve approves or rejects a pending transaction.
// POST /admin/transactions/{transactionID}/resolve
func (h *TransactionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !h.decode(w, r, &req) {
		return
	}
	transaction, err := h.service.Resolve(r.Context(), chi.URLParam(r, "transactionID"), req.Decision, ActorFromContext(r.Context()))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, transaction)
}

// Get returns one transaction.
// GET /transactions/{transactionID}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.service.GetTransaction(r.Context(), chi.URLParam(r, "transactionID"), ActorFromContext(r.Context()))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, transaction)
}

// List returns a page of transactions.
// GET /transactions?account_id=&status=&kind=&limit=&offset=
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	q := r.URL.Query()
	filter := repository.TransactionFilter{
		AccountID: q.Get("account_id"),
		Status:    domain.TransactionStatus(q.Get("status")),
		Kind:      domain.TransactionKind(q.Get("kind")),
	}

	transactions, total, err := h.service.ListTransactions(r.Context(), ActorFromContext(r.Context()), filter, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewPage(transactions, limit, offset, total))
}
