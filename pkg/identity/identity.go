// Package identity issues and verifies signed ID tokens and keeps the
// per-account state (custom claims, disabled flag, revocation watermark)
// that verification depends on.
package identity

import (
	"context"
	"errors"
	"time"
)

// AdminClaim is the custom claim that grants the admin capability.
const AdminClaim = "admin"

var (
	ErrIDTokenInvalid  = errors.New("identity: invalid id token")
	ErrIDTokenExpired  = errors.New("identity: id token expired")
	ErrIDTokenRevoked  = errors.New("identity: id token revoked")
	ErrUserDisabled    = errors.New("identity: user disabled")
	ErrAccountNotFound = errors.New("identity: account not found")
)

// Token is a verified ID token.
type Token struct {
	UID       string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Claims    map[string]any
}

// IsAdmin reports whether the admin claim is exactly true.
func (t *Token) IsAdmin() bool {
	if t == nil {
		return false
	}
	v, ok := t.Claims[AdminClaim].(bool)
	return ok && v
}

// Account is the provider-side record for a user.
type Account struct {
	UID              string         `json:"uid"`
	Email            string         `json:"email,omitempty"`
	Disabled         bool           `json:"disabled"`
	CustomClaims     map[string]any `json:"customClaims,omitempty"`
	TokensValidAfter time.Time      `json:"tokensValidAfter"`
}

// AccountStore persists accounts. Get returns ErrAccountNotFound for unknown uids.
type AccountStore interface {
	Get(ctx context.Context, uid string) (*Account, error)
	Put(ctx context.Context, account *Account) error
}
