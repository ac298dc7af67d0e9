package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/msomdec/passgate/internal/domain"
	"github.com/msomdec/passgate/internal/handler"
	"github.com/msomdec/passgate/internal/service"
)

func newGateTokens(t *testing.T, now func() time.Time) *service.TokenService {
	t.Helper()
	tokens, err := service.NewTokenService(testJWTSecret, time.Hour, now)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return tokens
}

func TestRequireAuth(t *testing.T) {
	clk := &clock{now: time.Now()}
	tokens := newGateTokens(t, clk.Now)

	valid, err := tokens.Mint(domain.Claims{AccountID: "acc-1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	other, err := service.NewTokenService("a-completely-different-secret-value!", time.Hour, clk.Now)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	forged, err := other.Mint(domain.Claims{AccountID: "acc-1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("Mint forged: %v", err)
	}

	tests := []struct {
		name    string
		header  string
		advance time.Duration
		status  int
		message string
	}{
		{"missing header", "", 0, http.StatusUnauthorized, "Authorization header missing or malformed"},
		{"wrong scheme", "Basic " + valid, 0, http.StatusUnauthorized, "Authorization header missing or malformed"},
		{"bearer without token", "Bearer ", 0, http.StatusUnauthorized, "Authorization header missing or malformed"},
		{"garbage token", "Bearer not.a.jwt", 0, http.StatusUnauthorized, "Invalid authentication token"},
		{"wrong secret", "Bearer " + forged, 0, http.StatusUnauthorized, "Invalid authentication token"},
		{"expired", "Bearer " + valid, 61 * time.Minute, http.StatusUnauthorized, "Token expired. Please login again."},
		{"valid", "Bearer " + valid, 0, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk.mu.Lock()
			saved := clk.now
			clk.now = clk.now.Add(tt.advance)
			clk.mu.Unlock()
			defer func() { clk.mu.Lock(); clk.now = saved; clk.mu.Unlock() }()

			var got domain.Claims
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = domain.ClaimsFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.RequireAuth(tokens, inner).ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if tt.status == http.StatusOK {
				if got.AccountID != "acc-1" || got.Role != domain.RoleAdmin {
					t.Fatalf("unexpected claims in context: %+v", got)
				}
				return
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["message"] != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, body["message"])
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	w := httptest.NewRecorder()
	handler.SecurityHeaders(inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
		"Cache-Control":          "no-store",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s: expected %q, got %q", header, want, got)
		}
	}
}
