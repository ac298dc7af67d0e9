package handler

import (
	"net/http"

	"github.com/msomdec/passgate/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, accounts *service.AccountService, profiles *service.ProfileService, wallets *service.WalletService, tokens TokenVerifier) {
	ah := NewAccountHandler(accounts)
	ph := NewProfileHandler(profiles)
	wh := NewWalletHandler(wallets)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.HandleFunc("POST /api/users/signup", ah.HandleSignup)
	mux.HandleFunc("POST /api/users/login", ah.HandleLogin)
	mux.HandleFunc("POST /api/users/verify-otp", ah.HandleVerifyOTP)
	mux.HandleFunc("POST /api/users/resend-otp", ah.HandleResendOTP)
	mux.HandleFunc("POST /api/users/forget-password", ah.HandleForgotPassword)
	mux.HandleFunc("POST /api/users/reset-password", ah.HandleResetPassword)

	mux.Handle("GET /api/users/get-all-users", RequireAuth(tokens, http.HandlerFunc(ah.HandleListAccounts)))
	mux.Handle("GET /api/users/me", RequireAuth(tokens, http.HandlerFunc(ah.HandleMe)))
	mux.Handle("PUT /api/users/upload-profile-picture", RequireAuth(tokens, http.HandlerFunc(ph.HandleUpload)))

	mux.Handle("POST /api/wallets/create-wallet", RequireAuth(tokens, http.HandlerFunc(wh.HandleCreateWallet)))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
}
