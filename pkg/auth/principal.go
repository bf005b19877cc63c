package auth

import (
	"context"
	"errors"
)

// Principal is the authenticated caller attached to a request context.
// OrgID is always populated: callers with no external organization get
// the synthetic "user_<userID>" org so every user has a default workspace.
type Principal struct {
	UserID string
	Email  string
	OrgID  string
}

type contextKey string

const principalContextKey contextKey = "principal"

// ErrNoPrincipal is returned when no principal is attached to the context
var ErrNoPrincipal = errors.New("no principal in context")

// WithPrincipal attaches a principal to the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext extracts the principal from the context
func PrincipalFromContext(ctx context.Context) (*Principal, error) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	if !ok || p == nil {
		return nil, ErrNoPrincipal
	}
	return p, nil
}

// SyntheticOrgID returns the per-user fallback organization identifier
func SyntheticOrgID(userID string) string {
	return "user_" + userID
}
