package domain

import (
	"context"
	"time"
)

// Role controls access to administrative operations.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// PendingOTP is the hashed one-time passcode currently awaiting use.
// A zero ExpiresAt means the expiry was never recorded and the code is
// treated as expired.
type PendingOTP struct {
	Hash      string
	ExpiresAt time.Time
}

// Account is a registered identity.
type Account struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	Role              Role
	IsVerified        bool
	OTP               *PendingOTP // nil when no code is pending
	PhoneNumber       *string
	ProfilePictureURL *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasPendingOTP reports whether a code has been issued and not yet consumed.
func (a *Account) HasPendingOTP() bool {
	return a.OTP != nil && a.OTP.Hash != ""
}

// AccountUpdate is a partial update. Nil fields are left untouched, so OTP
// fields can be rewritten without supplying name or password.
type AccountUpdate struct {
	PasswordHash      *string
	Role              *Role
	IsVerified        *bool
	OTP               *PendingOTP
	ClearOTP          bool
	PhoneNumber       *string
	ProfilePictureURL *string
}

// Empty reports whether the update changes nothing.
func (u AccountUpdate) Empty() bool {
	return u.PasswordHash == nil && u.Role == nil && u.IsVerified == nil &&
		u.OTP == nil && !u.ClearOTP && u.PhoneNumber == nil && u.ProfilePictureURL == nil
}

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByPhoneNumber(ctx context.Context, phone string) (*Account, error)
	GetByOTPHash(ctx context.Context, otpHash string) (*Account, error)
	List(ctx context.Context) ([]Account, error)
	UpdateFields(ctx context.Context, id string, update AccountUpdate) error
	// ConsumeOTP applies update and clears the pending code in one statement,
	// but only while the stored hash still equals otpHash. It returns
	// ErrOTPInvalid when the code was already consumed or replaced.
	ConsumeOTP(ctx context.Context, id, otpHash string, update AccountUpdate) error
}
