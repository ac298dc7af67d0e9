package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/msomdec/passgate/internal/domain"
)

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
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

	var otpHash sql.NullString
	var otpExpiry sql.NullTime
	if a.OTP != nil {
		otpHash = sql.NullString{String: a.OTP.Hash, Valid: a.OTP.Hash != ""}
		otpExpiry = sql.NullTime{Time: a.OTP.ExpiresAt, Valid: !a.OTP.ExpiresAt.IsZero()}
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (id, name, email, password_hash, role, is_verified, otp_hash, otp_expiry,
			phone_number, profile_picture_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`,
		a.ID, a.Name, a.Email, a.PasswordHash, string(a.Role), a.IsVerified, otpHash, otpExpiry,
		a.PhoneNumber, a.ProfilePictureURL,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		switch uniqueViolation(err) {
		case "accounts_email_key":
			return domain.ErrDuplicateEmail
		case "accounts_phone_number_key":
			return domain.ErrDuplicatePhone
		case "accounts_pkey":
			return fmt.Errorf("%w: account id already exists", domain.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
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

func (r *AccountRepository) getOne(ctx context.Context, column, value string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE `+column+` = $1`, value)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return accounts, nil
}

// UpdateFields writes the non-nil fields of u. An empty update is a no-op
// and does not touch updated_at.
func (r *AccountRepository) UpdateFields(ctx context.Context, id string, u domain.AccountUpdate) error {
	if u.Empty() {
		return nil
	}
	set, args := updateClauses(u)
	args = append(args, id)
	query := `UPDATE accounts SET ` + strings.Join(set, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if uniqueViolation(err) == "accounts_phone_number_key" {
			return domain.ErrDuplicatePhone
		}
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(result, domain.ErrNotFound)
}

func (r *AccountRepository) ConsumeOTP(ctx context.Context, id, otpHash string, u domain.AccountUpdate) error {
	u.OTP = nil
	u.ClearOTP = true
	set, args := updateClauses(u)
	args = append(args, id, otpHash)
	n := len(args)
	query := `UPDATE accounts SET ` + strings.Join(set, ", ") +
		` WHERE id = $` + strconv.Itoa(n-1) + ` AND otp_hash = $` + strconv.Itoa(n)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(result, domain.ErrOTPInvalid)
}

// updateClauses builds a numbered SET list for a partial update, always
// bumping updated_at.
func updateClauses(u domain.AccountUpdate) ([]string, []any) {
	var set []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, col+" = $"+strconv.Itoa(len(args)))
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
	set = append(set, "updated_at = now()")
	return set, args
}

func requireOneRow(result sql.Result, none error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
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
	if err := s.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &a.IsVerified,
		&otpHash, &otpExpiry, &phone, &picture, &a.CreatedAt, &a.UpdatedAt); err != nil {
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
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
