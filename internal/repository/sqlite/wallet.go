package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/passgate/internal/domain"
)

// WalletRepository implements domain.WalletRepository using SQLite.
type WalletRepository struct {
	db *sql.DB
}

// NewWalletRepository creates a new SQLite-backed WalletRepository.
func NewWalletRepository(db *DB) *WalletRepository {
	return &WalletRepository{db: db.SqlDB}
}

func (r *WalletRepository) Create(ctx context.Context, w *domain.Wallet) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wallets (id, account_id, account_number, balance, currency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.AccountID, w.AccountNumber, w.Balance.String(), w.Currency, now, now,
	)
	if err != nil {
		switch constraintColumn(err) {
		case "wallets.account_id":
			return domain.ErrWalletExists
		case "wallets.account_number":
			return domain.ErrDuplicatePhone
		}
		return fmt.Errorf("insert wallet: %w", err)
	}

	w.CreatedAt = now
	w.UpdatedAt = now
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
		 FROM wallets WHERE `+column+` = ?`, value,
	).Scan(&w.ID, &w.AccountID, &w.AccountNumber, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query wallet by %s: %w", column, err)
	}
	return w, nil
}
