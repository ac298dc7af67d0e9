package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/passgate/internal/domain"
)

// AccountRepository implements domain.AccountRepository using SQLite.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new SQLite-backed AccountRepository.
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db.SqlDB}
}

const accountColumns = `id, name, email, password_hash, role, is_verified, otp_hash, otp_expiry,
	phone_number, profile_picture_url, created_at, updated_at`

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = domain.RoleUser
	}
	now := time.Now().UTC()

	var otpHash sql.NullString
	var otpExpiry sql.NullTime
	if a.OTP != nil {
		otpHash = sql.NullString{String: a.OTP.Hash, Valid: a.OTP.Hash != ""}
		otpExpiry = sql.NullTime{Time: a.OTP.ExpiresAt.UTC(), Valid: !a.OTP.ExpiresAt.IsZero()}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, email, password_hash, role, is_verified, otp_hash, otp_expiry,
			phone_number, profile_picture_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Email, a.PasswordHash, string(a.Role), a.IsVerified, otpHash, otpExpiry,
		a.PhoneNumber, a.ProfilePictureURL, now, now,
	)
	if err != nil {
		switch constraintColumn(err) {
		case "accounts.email":
			return domain.ErrDuplicateEmail
		case "accounts.phone_number":
			return domain.ErrDuplicatePhone
		case "accounts.id":
			return fmt.Errorf("%w: account id already exists", domain.ErrConflict)
		}
		return fmt.Errorf("insert account: %w", err)
	}

	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, "id", id)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx, "email", email)
}

func (r *AccountRepository) GetByPhoneNumber(ctx context.Context, phone string) (*domain.Account, error) {
	return r.getOne(ctx, "phone_number", phone)
}

func (r *AccountRepository) GetByOTPHash(ctx context.Context, otpHash string) (*domain.Account, error) {
	return r.getOne(ctx, "otp_hash", otpHash)
}

// getOne looks up a single account by a trusted column name.
func (r *AccountRepository) getOne(ctx context.Context, column, value string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE `+column+` = ?`, value)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query account by %s: %w", column, err)
	}
	return a, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// UpdateFields writes the non-nil fields of u. An empty update is a no-op
// and does not touch updated_at.
func (r *AccountRepository) UpdateFields(ctx context.Context, id string, u domain.AccountUpdate) error {
	if u.Empty() {
		return nil
	}
	set, args := updateClauses(u)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if constraintColumn(err) == "accounts.phone_number" {
			return domain.ErrDuplicatePhone
		}
		return fmt.Errorf("update account: %w", err)
	}
	return requireOneRow(result, domain.ErrNotFound)
}

func (r *AccountRepository) ConsumeOTP(ctx context.Context, id, otpHash string, u domain.AccountUpdate) error {
	u.OTP = nil
	u.ClearOTP = true
	set, args := updateClauses(u)
	args = append(args, id, otpHash)

	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET `+strings.Join(set, ", ")+` WHERE id = ? AND otp_hash = ?`, args...)
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return requireOneRow(result, domain.ErrOTPInvalid)
}

// updateClauses builds the SET list for a partial update. updated_at is
// always bumped.
func updateClauses(u domain.AccountUpdate) ([]string, []any) {
	var set []string
	var args []any
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}

	if u.PasswordHash != nil {
		add("password_hash", *u.PasswordHash)
	}
	if u.Role != nil {
		add("role", string(*u.Role))
	}
	if u.IsVerified != nil {
		add("is_verified", *u.IsVerified)
	}
	switch {
	case u.ClearOTP:
		set = append(set, "otp_hash = NULL", "otp_expiry = NULL")
	case u.OTP != nil:
		add("otp_hash", u.OTP.Hash)
		add("otp_expiry", u.OTP.ExpiresAt.UTC())
	}
	if u.PhoneNumber != nil {
		add("phone_number", *u.PhoneNumber)
	}
	if u.ProfilePictureURL != nil {
		add("profile_picture_url", *u.ProfilePictureURL)
	}
	add("updated_at", time.Now().UTC())
	return set, args
}

func requireOneRow(result sql.Result, none error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return none
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*domain.Account, error) {
	var (
		a         domain.Account
		role      string
		otpHash   sql.NullString
		otpExpiry sql.NullTime
		phone     sql.NullString
		picture   sql.NullString
	)
	err := s.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &a.IsVerified,
		&otpHash, &otpExpiry, &phone, &picture, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	if otpHash.Valid && otpHash.String != "" {
		a.OTP = &domain.PendingOTP{Hash: otpHash.String}
		if otpExpiry.Valid {
			a.OTP.ExpiresAt = otpExpiry.Time.UTC()
		}
	}
	if phone.Valid {
		a.PhoneNumber = &phone.String
	}
	if picture.Valid {
		a.ProfilePictureURL = &picture.String
	}
	return &a, nil
}
