// internal/api/handler/settings.go
package handler

import (
	"log/slog"
	"net/http"

	"finflow-invest/internal/service"
)

// SettingsHandler exposes the deposit wallet addresses.
type SettingsHandler struct {
	responder
	service service.SettingsService
}

func NewSettingsHandler(svc service.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{responder: responder{logger: logger}, service: svc}
}

// GetWallets returns the configured deposit addresses.
// GET /settings/wallets
func (h *SettingsHandler) GetWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.service.GetWalletAddresses(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, wallets)
}

// UpdateWalletsRequest maps currency codes to deposit addresses.
type UpdateWalletsRequest struct {
	Addresses map[string]string `json:"addresses"`
}

// UpdateWallets replaces the deposit addresses.
// PUT /admin/settings/wallets
func (h *SettingsHandler) UpdateWallets(w http.ResponseWriter, r *http.Request) {
	var req UpdateWalletsRequest
	if !h.decode(w, r, &req) {
		return
	}
	wallets, err := h.service.UpdateWalletAddresses(r.Context(), ActorFromContext(r.Context()), req.Addresses)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, wallets)
}
