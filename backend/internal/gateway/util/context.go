package util

import (
	"context"

	"schooladmin/backend/internal/auth"
)

type contextKey struct{ name string }

var claimsKey = &contextKey{"claims"}

// WithClaims attaches verified token claims to ctx
func WithClaims(ctx context.Context, claims *auth.CustomClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims set by the auth middleware, or nil
func ClaimsFromContext(ctx context.Context) *auth.CustomClaims {
	claims, _ := ctx.Value(claimsKey).(*auth.CustomClaims)
	return claims
}
