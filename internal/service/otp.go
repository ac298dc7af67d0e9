package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/msomdec/passgate/internal/domain"
)

const (
	otpMin = 100000
	otpMax = 999999

	// DefaultOTPTTL is how long an issued code stays valid.
	DefaultOTPTTL = 10 * time.Minute
)

// OTPIssuer generates, persists and validates six-digit one-time passcodes.
// Only the bcrypt hash of a code is ever stored; issuing a new code replaces
// any pending one.
type OTPIssuer struct {
	accounts domain.AccountRepository
	hasher   *Hasher
	ttl      time.Duration
	now      func() time.Time
}

// NewOTPIssuer creates an OTPIssuer. A zero ttl means DefaultOTPTTL and a
// nil now means time.Now.
func NewOTPIssuer(accounts domain.AccountRepository, hasher *Hasher, ttl time.Duration, now func() time.Time) *OTPIssuer {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	if now == nil {
		now = time.Now
	}
	return &OTPIssuer{accounts: accounts, hasher: hasher, ttl: ttl, now: now}
}

// Generate returns a uniformly random code in [100000, 999999].
func (o *OTPIssuer) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// New generates a code and its pending record without persisting anything.
// Signup uses it to create the account and its first code in one insert.
func (o *OTPIssuer) New() (string, *domain.PendingOTP, error) {
	code, err := o.Generate()
	if err != nil {
		return "", nil, err
	}
	hash, err := o.hasher.Hash(code)
	if err != nil {
		return "", nil, fmt.Errorf("hash otp: %w", err)
	}
	return code, &domain.PendingOTP{Hash: hash, ExpiresAt: o.now().UTC().Add(o.ttl)}, nil
}

// Issue generates a fresh code for account, persists its hash and expiry and
// returns the plaintext for out-of-band delivery.
func (o *OTPIssuer) Issue(ctx context.Context, account *domain.Account) (string, error) {
	code, pending, err := o.New()
	if err != nil {
		return "", err
	}
	if err := o.accounts.UpdateFields(ctx, account.ID, domain.AccountUpdate{OTP: pending}); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	account.OTP = pending
	return code, nil
}

// Validate checks candidate against the pending code on account. It returns
// ErrOTPInvalid when nothing is pending or the code does not match, and
// ErrOTPExpired when the expiry is missing or has passed, even for a
// correct code.
func (o *OTPIssuer) Validate(account *domain.Account, candidate string) error {
	if !account.HasPendingOTP() {
		return fmt.Errorf("%w: no pending OTP, request a new one", domain.ErrOTPInvalid)
	}
	if account.OTP.ExpiresAt.IsZero() || !o.now().Before(account.OTP.ExpiresAt) {
		return fmt.Errorf("%w: OTP has expired, request a new one", domain.ErrOTPExpired)
	}
	if !o.hasher.Verify(candidate, account.OTP.Hash) {
		return fmt.Errorf("%w: OTP is incorrect", domain.ErrOTPInvalid)
	}
	return nil
}

// Consume applies update and clears the pending code validated on account.
// A concurrent consumer that got there first turns this call into
// ErrOTPInvalid.
func (o *OTPIssuer) Consume(ctx context.Context, account *domain.Account, update domain.AccountUpdate) error {
	if !account.HasPendingOTP() {
		return fmt.Errorf("%w: no pending OTP, request a new one", domain.ErrOTPInvalid)
	}
	if err := o.accounts.ConsumeOTP(ctx, account.ID, account.OTP.Hash, update); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	account.OTP = nil
	return nil
}
