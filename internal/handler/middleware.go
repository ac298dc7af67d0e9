package handler

import (
	"net/http"
	"strings"

	"github.com/msomdec/passgate/internal/domain"
)

// TokenVerifier verifies a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (domain.Claims, error)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer <token>"
// header and attaches the verified claims to the request context. It never
// touches the store.
func RequireAuth(tokens TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Authorization header missing or malformed")
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.WithClaims(r.Context(), claims)))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsRune(token, ' ') {
		return "", false
	}
	return token, true
}

// claimsFrom returns the claims RequireAuth attached. Handlers behind the
// gate can rely on their presence; a missing value is answered with 401.
func claimsFrom(w http.ResponseWriter, r *http.Request) (domain.Claims, bool) {
	claims, ok := domain.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authorization header missing or malformed")
	}
	return claims, ok
}

// SecurityHeaders sets conservative response headers for a JSON API.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
