package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the single balance holder owned by an account.
type Wallet struct {
	ID            string
	AccountID     string
	AccountNumber string // normalized phone number
	Balance       decimal.Decimal
	Currency      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// WalletRepository defines persistence operations for wallets.
// Create returns ErrWalletExists when the account already owns a wallet and
// ErrDuplicatePhone when the account number is taken.
type WalletRepository interface {
	Create(ctx context.Context, wallet *Wallet) error
	GetByAccountID(ctx context.Context, accountID string) (*Wallet, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*Wallet, error)
}
