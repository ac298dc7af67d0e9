package domain

import "context"

// Claims is the identity carried by a session token.
type Claims struct {
	AccountID string
	Role      Role
}

type claimsContextKey struct{}

// WithClaims stores verified claims in the context.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, c)
}

// ClaimsFromContext returns the claims attached by the auth gate.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(Claims)
	return c, ok
}
