// Package auth provides bearer-token authentication for querygate-engine.
// Tokens carry the caller's role and the claim values bound into row-level
// security predicates.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
)

// Claims is the JWT claims structure the gateway understands. It embeds
// RegisteredClaims for standard fields (sub, iss, exp) and adds the tenant role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"` // "admin" or "client"

	// Extra holds any non-standard claims so RLS policies can bind
	// predicate values by claim name.
	Extra map[string]any `json:"-"`
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// WithClaims returns a context carrying the given claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// RoleFromContext returns the authenticated caller's role, or fallback when
// the request carries no claims or no role claim.
func RoleFromContext(ctx context.Context, fallback string) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil || claims.Role == "" {
		return fallback
	}
	return claims.Role
}

// ClaimValue looks up a claim by name for RLS predicate binding. Standard
// registered claims are resolved first, then the extra claim set.
func ClaimValue(ctx context.Context, name string) (string, bool) {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return "", false
	}
	switch name {
	case "sub":
		if claims.Subject != "" {
			return claims.Subject, true
		}
	case "iss":
		if claims.Issuer != "" {
			return claims.Issuer, true
		}
	case "role":
		if claims.Role != "" {
			return claims.Role, true
		}
	}
	if v, present := claims.Extra[name]; present {
		if s, isStr := v.(string); isStr {
			return s, true
		}
	}
	return "", false
}
