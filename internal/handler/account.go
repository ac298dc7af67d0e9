package handler

import (
	"net/http"

	"github.com/msomdec/passgate/internal/service"
)

// AccountHandler serves the /api/users endpoints.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// HandleSignup registers an account and emails its first OTP.
// POST /api/users/signup
// Request:  {"name":"...","email":"...","password":"..."}
// Response: 201 {"message":"...","user":{...}}
func (h *AccountHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := readJSON(r, signupSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}

	account, err := h.accounts.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully. Check your email for the OTP.",
		"user":    toAccountDTO(account),
	})
}

// HandleLogin exchanges credentials for a session token.
// POST /api/users/login
// Response: 200 {"message":"...","token":"..."}
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, loginSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Login successful",
		"token":   token,
	})
}

// HandleVerifyOTP marks the account verified.
// POST /api/users/verify-otp
func (h *AccountHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := readJSON(r, verifyOTPSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.accounts.VerifyOTP(r.Context(), req.Email, string(req.OTP)); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Email verified successfully")
}

// HandleResendOTP issues a fresh verification code.
// POST /api/users/resend-otp
func (h *AccountHandler) HandleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := readJSON(r, emailOnlySchema, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.accounts.ResendOTP(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP resent successfully")
}

// HandleForgotPassword emails a password recovery code.
// POST /api/users/forget-password
func (h *AccountHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := readJSON(r, emailOnlySchema, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP sent to your email")
}

// HandleResetPassword sets a new password using the recovery code.
// POST /api/users/reset-password
func (h *AccountHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := readJSON(r, resetPasswordSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.Email, string(req.OTP), req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successfully")
}

// HandleMe returns the authenticated account.
// GET /api/users/me
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.GetSelf(r.Context(), claims)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User retrieved successfully",
		"user":    toAccountDTO(account),
	})
}

// HandleListAccounts returns every account to an admin.
// GET /api/users/get-all-users
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), claims)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Users retrieved successfully",
		"users":   toAccountDTOs(accounts),
	})
}
