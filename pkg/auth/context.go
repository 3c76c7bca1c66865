package auth

import (
	"context"

	"github.com/folio/backend/pkg/identity"
)

type contextKey string

const tokenKey contextKey = "id_token"

// WithToken stores the verified token in the context.
func WithToken(ctx context.Context, tok *identity.Token) context.Context {
	return context.WithValue(ctx, tokenKey, tok)
}

// TokenFromContext returns the verified token set by RequireUser or RequireAdmin.
func TokenFromContext(ctx context.Context) (*identity.Token, bool) {
	tok, ok := ctx.Value(tokenKey).(*identity.Token)
	return tok, ok && tok != nil
}

// UserIDFromContext returns the uid of the verified token.
func UserIDFromContext(ctx context.Context) (string, bool) {
	tok, ok := TokenFromContext(ctx)
	if !ok {
		return "", false
	}
	return tok.UID, true
}

// IsAdminFromContext returns whether the authenticated user carries the admin claim.
// Returns false when no token is set.
func IsAdminFromContext(ctx context.Context) bool {
	tok, _ := TokenFromContext(ctx)
	return tok.IsAdmin()
}
