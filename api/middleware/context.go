package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/internal/auth"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// PrincipalFromContext returns the authenticated identity, nil for
// anonymous requests.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxPrincipal).(*auth.Principal); ok {
		return v
	}
	return nil
}

// UserIDFromContext returns the authenticated user id, uuid.Nil for
// anonymous requests.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if principal := PrincipalFromContext(ctx); principal != nil {
		return principal.UserID
	}
	return uuid.Nil
}

// WithPrincipal injects the authenticated identity into the context.
func WithPrincipal(ctx context.Context, principal *auth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, principal)
}
