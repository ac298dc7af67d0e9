package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/msomdec/passgate/internal/domain"
)

// AccountDTO is the public JSON representation of an account. Password and
// OTP hashes are never exposed.
type AccountDTO struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Role              string  `json:"role"`
	IsVerified        bool    `json:"isVerified"`
	PhoneNumber       *string `json:"phoneNumber"`
	ProfilePictureURL *string `json:"profilePictureUrl"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

func toAccountDTO(a *domain.Account) AccountDTO {
	return AccountDTO{
		ID:                a.ID,
		Name:              a.Name,
		Email:             a.Email,
		Role:              string(a.Role),
		IsVerified:        a.IsVerified,
		PhoneNumber:       a.PhoneNumber,
		ProfilePictureURL: a.ProfilePictureURL,
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         a.UpdatedAt.Format(time.RFC3339),
	}
}

func toAccountDTOs(accounts []domain.Account) []AccountDTO {
	dtos := make([]AccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}
	return dtos
}

// WalletDTO is the JSON representation of a wallet. Balance is a decimal
// string to avoid float rounding.
type WalletDTO struct {
	ID            string `json:"id"`
	AccountID     string `json:"userId"`
	AccountNumber string `json:"accountNumber"`
	Balance       string `json:"balance"`
	Currency      string `json:"currency"`
	CreatedAt     string `json:"createdAt"`
}

func toWalletDTO(w *domain.Wallet) WalletDTO {
	return WalletDTO{
		ID:            w.ID,
		AccountID:     w.AccountID,
		AccountNumber: w.AccountNumber,
		Balance:       w.Balance.StringFixed(2),
		Currency:      w.Currency,
		CreatedAt:     w.CreatedAt.Format(time.RFC3339),
	}
}

// otpValue accepts a code sent either as a JSON string or a number.
type otpValue string

func (o *otpValue) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = otpValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	// JSON Schema counts 123456.0 as an integer; a code has no fraction or exponent.
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("%w: OTP must be a whole number", domain.ErrInvalidInput)
	}
	*o = otpValue(n.String())
	return nil
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string   `json:"email"`
	OTP   otpValue `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string   `json:"email"`
	OTP         otpValue `json:"otp"`
	NewPassword string   `json:"newPassword"`
}

type createWalletRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Currency    string `json:"currency"`
}
