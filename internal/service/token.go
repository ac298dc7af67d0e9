package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/msomdec/passgate/internal/domain"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = time.Hour

// TokenService mints and verifies HS256 session tokens carrying
// {id, role} claims.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type sessionClaims struct {
	AccountID string `json:"id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// NewTokenService creates a TokenService. An empty secret is a configuration
// error and is refused here so no token can be minted without one.
func NewTokenService(secret string, ttl time.Duration, now func() time.Time) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is not configured")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// Mint signs claims with an expiry of ttl from now.
func (s *TokenService) Mint(c domain.Claims) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		AccountID: c.AccountID,
		Role:      string(c.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and returns its claims. It fails with ErrTokenExpired
// once the expiry has passed and ErrTokenInvalid for every other problem.
func (s *TokenService) Verify(token string) (domain.Claims, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Claims{}, domain.ErrTokenExpired
		}
		return domain.Claims{}, domain.ErrTokenInvalid
	}

	role := domain.Role(claims.Role)
	if claims.AccountID == "" || !role.Valid() {
		return domain.Claims{}, domain.ErrTokenInvalid
	}
	return domain.Claims{AccountID: claims.AccountID, Role: role}, nil
}
