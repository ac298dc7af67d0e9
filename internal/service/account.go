package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/msomdec/passgate/internal/domain"
)

// AccountService runs the account lifecycle: signup, login, OTP verification
// and resend, password recovery and account queries.
type AccountService struct {
	accounts domain.AccountRepository
	hasher   *Hasher
	otps     *OTPIssuer
	tokens   *TokenService
	notifier Notifier
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts domain.AccountRepository, hasher *Hasher, otps *OTPIssuer, tokens *TokenService, notifier Notifier) *AccountService {
	return &AccountService{
		accounts: accounts,
		hasher:   hasher,
		otps:     otps,
		tokens:   tokens,
		notifier: notifier,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an unverified account with a pending OTP and emails the code.
func (s *AccountService) Signup(ctx context.Context, name, email, password string) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", domain.ErrInvalidInput)
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get account: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, pending, err := s.otps.New()
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		OTP:          pending,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.notifier.Dispatch(ctx, domain.Email{
		To:       account.Email,
		Subject:  "Verify your email",
		Template: domain.TemplateSignup,
		Data:     map[string]string{"name": account.Name, "otp": code},
	})
	return account, nil
}

// Login checks credentials on a verified account and returns a session token.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	account, err := s.lookup(ctx, email)
	if err != nil {
		return "", err
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		return "", fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if !account.IsVerified {
		return "", fmt.Errorf("%w: please verify your email before logging in", domain.ErrUnauthorized)
	}

	token, err := s.tokens.Mint(domain.Claims{AccountID: account.ID, Role: account.Role})
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}

	s.notifier.Dispatch(ctx, domain.Email{
		To:       account.Email,
		Subject:  "New login to your account",
		Template: domain.TemplateLogin,
		Data:     map[string]string{"name": account.Name, "email": account.Email},
	})
	return token, nil
}

// VerifyOTP consumes the pending code and marks the account verified.
func (s *AccountService) VerifyOTP(ctx context.Context, email, otp string) error {
	email = normalizeEmail(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return fmt.Errorf("%w: email and otp are required", domain.ErrInvalidInput)
	}

	account, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if err := s.otps.Validate(account, otp); err != nil {
		return err
	}

	verified := true
	if err := s.otps.Consume(ctx, account, domain.AccountUpdate{IsVerified: &verified}); err != nil {
		return err
	}
	account.IsVerified = true
	return nil
}

// ResendOTP replaces any pending code with a fresh one and emails it.
func (s *AccountService) ResendOTP(ctx context.Context, email string) error {
	return s.issueFor(ctx, email, "Resend OTP", domain.TemplateSignup)
}

// ForgotPassword issues a recovery code. The account need not be verified.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	return s.issueFor(ctx, email, "Reset your password", domain.TemplateForgotPassword)
}

func (s *AccountService) issueFor(ctx context.Context, email, subject, template string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	account, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	code, err := s.otps.Issue(ctx, account)
	if err != nil {
		return err
	}

	s.notifier.Dispatch(ctx, domain.Email{
		To:       account.Email,
		Subject:  subject,
		Template: template,
		Data:     map[string]string{"name": account.Name, "otp": code},
	})
	return nil
}

// ResetPassword replaces the password after validating the recovery code.
func (s *AccountService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	email = normalizeEmail(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" || newPassword == "" {
		return fmt.Errorf("%w: email, otp and new password are required", domain.ErrInvalidInput)
	}

	account, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if err := s.otps.Validate(account, otp); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.otps.Consume(ctx, account, domain.AccountUpdate{PasswordHash: &hash}); err != nil {
		return err
	}
	account.PasswordHash = hash

	s.notifier.Dispatch(ctx, domain.Email{
		To:       account.Email,
		Subject:  "Your password was changed",
		Template: domain.TemplateResetPassword,
		Data:     map[string]string{"name": account.Name, "email": account.Email},
	})
	return nil
}

// GetSelf returns the account identified by claims.
func (s *AccountService) GetSelf(ctx context.Context, claims domain.Claims) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: account not found", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// ListAccounts returns every account. The requester's role is re-read from
// the store so a demotion after the token was minted takes effect at once.
func (s *AccountService) ListAccounts(ctx context.Context, claims domain.Claims) ([]domain.Account, error) {
	requester, err := s.GetSelf(ctx, claims)
	if err != nil {
		return nil, err
	}
	if requester.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	}

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// SetRole changes the role of the account registered under email.
func (s *AccountService) SetRole(ctx context.Context, email string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	account, err := s.lookup(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if err := s.accounts.UpdateFields(ctx, account.ID, domain.AccountUpdate{Role: &role}); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}

// CreateAdmin creates a verified admin account without an OTP round trip.
func (s *AccountService) CreateAdmin(ctx context.Context, name, email, password string) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", domain.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	account := &domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsVerified:   true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

func (s *AccountService) lookup(ctx context.Context, email string) (*domain.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: no account with that email", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}
