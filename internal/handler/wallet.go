package handler

import (
	"net/http"

	"github.com/msomdec/passgate/internal/service"
)

// WalletHandler serves the /api/wallets endpoints.
type WalletHandler struct {
	wallets *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// HandleCreateWallet provisions the requester's wallet.
// POST /api/wallets/create-wallet
// Request:  {"phoneNumber":"...","currency":"NGN"}
// Response: 201 {"message":"...","wallet":{...}}
func (h *WalletHandler) HandleCreateWallet(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req createWalletRequest
	if err := readJSON(r, createWalletSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}

	wallet, err := h.wallets.ProvisionWallet(r.Context(), claims, req.PhoneNumber, req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Wallet created successfully",
		"wallet":  toWalletDTO(wallet),
	})
}
