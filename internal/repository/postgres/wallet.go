package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/msomdec/passgate/internal/domain"
)

type WalletRepository struct {
	db DBTX
}

func NewWalletRepository(db DBTX) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(ctx context.Context, w *domain.Wallet) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO wallets (id, account_id, account_number, balance, currency)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		w.ID, w.AccountID, w.AccountNumber, w.Balance, w.Currency,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		switch uniqueViolation(err) {
		case "wallets_account_id_key":
			return domain.ErrWalletExists
		case "wallets_account_number_key":
			return domain.ErrDuplicatePhone
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *WalletRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Wallet, error) {
	return r.getOne(ctx, "account_id", accountID)
}

func (r *WalletRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Wallet, error) {
	return r.getOne(ctx, "account_number", accountNumber)
}

func (r *WalletRepository) getOne(ctx context.Context, column, value string) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, account_number, balance, currency, created_at, updated_at
		 FROM wallets WHERE `+column+` = $1`, value,
	).Scan(&w.ID, &w.AccountID, &w.AccountNumber, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return w, nil
}
