package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/msomdec/passgate/internal/domain"
)

// DefaultCountryCode is stripped from international phone numbers.
const DefaultCountryCode = "234"

// WalletService provisions the single wallet an account may own.
type WalletService struct {
	accounts    domain.AccountRepository
	wallets     domain.WalletRepository
	countryCode string
}

// NewWalletService creates a new WalletService.
func NewWalletService(accounts domain.AccountRepository, wallets domain.WalletRepository, countryCode string) *WalletService {
	countryCode = strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return &WalletService{accounts: accounts, wallets: wallets, countryCode: countryCode}
}

// NormalizePhone strips separators, then a leading +<country code> or a
// single leading zero. The result must be 6 to 15 digits.
func (s *WalletService) NormalizePhone(raw string) (string, error) {
	phone := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, raw)

	if rest, ok := strings.CutPrefix(phone, "+"+s.countryCode); ok {
		phone = rest
	} else if rest, ok := strings.CutPrefix(phone, "0"); ok {
		phone = rest
	}

	if len(phone) < 6 || len(phone) > 15 {
		return "", fmt.Errorf("%w: phone number must have 6 to 15 digits", domain.ErrInvalidInput)
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: phone number must contain only digits", domain.ErrInvalidInput)
		}
	}
	return phone, nil
}

func normalizeCurrency(raw string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if len(c) != 3 {
		return "", fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrInvalidInput)
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrInvalidInput)
		}
	}
	return c, nil
}

// ProvisionWallet creates a zero-balance wallet for the requester, keyed by
// the normalized phone number, and records that number on the account.
// Concurrent calls for the same account are settled by the store's unique
// constraints and surface as a conflict.
func (s *WalletService) ProvisionWallet(ctx context.Context, claims domain.Claims, phoneNumber, currency string) (*domain.Wallet, error) {
	if strings.TrimSpace(phoneNumber) == "" || strings.TrimSpace(currency) == "" {
		return nil, fmt.Errorf("%w: phone number and currency are required", domain.ErrInvalidInput)
	}
	phone, err := s.NormalizePhone(phoneNumber)
	if err != nil {
		return nil, err
	}
	code, err := normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: account not found", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if _, err := s.wallets.GetByAccountID(ctx, account.ID); err == nil {
		return nil, domain.ErrWalletExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	if other, err := s.accounts.GetByPhoneNumber(ctx, phone); err == nil {
		if other.ID != account.ID {
			return nil, domain.ErrDuplicatePhone
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get account by phone: %w", err)
	}
	if _, err := s.wallets.GetByAccountNumber(ctx, phone); err == nil {
		return nil, domain.ErrDuplicatePhone
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get wallet by account number: %w", err)
	}

	// The phone goes on the account first so a failed wallet insert can be
	// retried; the account's own number never counts as taken.
	if account.PhoneNumber == nil || *account.PhoneNumber != phone {
		if err := s.accounts.UpdateFields(ctx, account.ID, domain.AccountUpdate{PhoneNumber: &phone}); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, err
			}
			return nil, fmt.Errorf("store phone number: %w", err)
		}
	}

	wallet := &domain.Wallet{
		AccountID:     account.ID,
		AccountNumber: phone,
		Balance:       decimal.Zero,
		Currency:      code,
	}
	if err := s.wallets.Create(ctx, wallet); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return wallet, nil
}
