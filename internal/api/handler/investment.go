// internal/api/handler/investment.go
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

// InvestmentHandler handles HTTP requests for plans and investments.
type InvestmentHandler struct {
	responder
	service service.InvestmentService
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(svc service.InvestmentService, logger *slog.Logger) *InvestmentHandler {
	return &InvestmentHandler{responder: responder{logger: logger}, service: svc}
}

// ListPlans returns the plan catalog.
// GET /plans
func (h *InvestmentHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": plans})
}

// OpenRequest represents the request body for opening an investment.
type OpenRequest struct {
	PlanID string          `json:"plan_id"`
	Amount decimal.Decimal `json:"amount"`
}

// Open starts an investment for the actor.
// POST /investments
func (h *InvestmentHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if !h.decode(w, r, &req) {
		return
	}
	investment, err := h.service.Open(r.Context(), ActorFromContext(r.Context()), req.PlanID, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, investment)
}

// Get returns one investment.
// GET /investments/{investmentID}
func (h *InvestmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	investment, err := h.service.GetInvestment(r.Context(), chi.URLParam(r, "investmentID"), ActorFromContext(r.Context()))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, investment)
}

// ROI returns the profit attributable to an investment right now.
// GET /investments/{investmentID}/roi
func (h *InvestmentHandler) ROI(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "investmentID")
	roi, err := h.service.CurrentROI(r.Context(), id, ActorFromContext(r.Context()))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"investment_id": id,
		"roi":           roi,
	})
}

// Cancel closes an active investment and refunds the principal.
// POST /investments/{investmentID}/cancel
func (h *InvestmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	investment, err := h.service.Cancel(r.Context(), chi.URLParam(r, "investmentID"), ActorFromContext(r.Context()))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, investment)
}

// List returns a page of investments.
// GET /investments?account_id=&status=&limit=&offset=
func (h *InvestmentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	q := r.URL.Query()
	filter := repository.InvestmentFilter{
		AccountID: q.Get("account_id"),
		Status:    domain.InvestmentStatus(q.Get("status")),
	}

	investments, total, err := h.service.ListInvestments(r.Context(), ActorFromContext(r.Context()), filter, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewPage(investments, limit, offset, total))
}
