package service_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/msomdec/passgate/internal/domain"
	"github.com/msomdec/passgate/internal/service"
)

func TestNewTokenService_RequiresSecret(t *testing.T) {
	if _, err := service.NewTokenService("", time.Hour, nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	clk := newClock()
	tokens, err := service.NewTokenService(testJWTSecret, time.Hour, clk.Now)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	for _, c := range []domain.Claims{
		{AccountID: "acc-1", Role: domain.RoleUser},
		{AccountID: "acc-2", Role: domain.RoleAdmin},
	} {
		token, err := tokens.Mint(c)
		if err != nil {
			t.Fatalf("Mint: %v", err)
		}
		got, err := tokens.Verify(token)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if got != c {
			t.Fatalf("expected %+v, got %+v", c, got)
		}
	}
}

func TestTokenService_Expiry(t *testing.T) {
	clk := newClock()
	tokens, _ := service.NewTokenService(testJWTSecret, time.Hour, clk.Now)

	token, err := tokens.Mint(domain.Claims{AccountID: "acc-1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	clk.Advance(59 * time.Minute)
	if _, err := tokens.Verify(token); err != nil {
		t.Fatalf("expected token valid before expiry, got %v", err)
	}

	clk.Advance(2 * time.Minute)
	_, err = tokens.Verify(token)
	assertKind(t, err, domain.ErrTokenExpired)
}

func TestTokenService_Invalid(t *testing.T) {
	clk := newClock()
	tokens, _ := service.NewTokenService(testJWTSecret, time.Hour, clk.Now)
	other, _ := service.NewTokenService("another-secret-that-is-long-enough!!", time.Hour, clk.Now)

	foreign, err := other.Mint(domain.Claims{AccountID: "acc-1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id": "acc-1", "role": "admin", "exp": clk.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": "acc-1", "role": "user",
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign no expiry: %v", err)
	}

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": "acc-1", "role": "root", "exp": clk.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign bad role: %v", err)
	}

	valid, _ := tokens.Mint(domain.Claims{AccountID: "acc-1", Role: domain.RoleUser})
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := map[string]string{
		"different secret": foreign,
		"alg none":         none,
		"malformed":        "not-a-token",
		"empty":            "",
		"no expiry":        noExpiry,
		"unknown role":     badRole,
		"tampered payload": tampered,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(token)
			assertKind(t, err, domain.ErrTokenInvalid)
		})
	}
}
