package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	ErrOTPExpired   = errors.New("otp expired")
	ErrOTPInvalid   = errors.New("invalid otp")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")

	ErrDuplicateEmail = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrDuplicatePhone = fmt.Errorf("%w: phone number or account number already in use", ErrConflict)
	ErrWalletExists   = fmt.Errorf("%w: wallet already exists for this account", ErrConflict)
)
