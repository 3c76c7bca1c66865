package identity

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	minSigningKeyLen = 32
	clockSkew        = 5 * time.Second
)

// Config configures a Provider.
type Config struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// Provider signs and verifies HS256 ID tokens backed by an AccountStore.
type Provider struct {
	key      []byte
	issuer   string
	audience string
	store    AccountStore
	now      func() time.Time
}

type idClaims struct {
	Email  string         `json:"email,omitempty"`
	Claims map[string]any `json:"claims,omitempty"`
	jwt.RegisteredClaims
}

// NewProvider creates a Provider. The signing key must be at least 32 bytes.
func NewProvider(cfg Config, store AccountStore) (*Provider, error) {
	if len(cfg.SigningKey) < minSigningKeyLen {
		return nil, fmt.Errorf("identity: signing key must be at least %d bytes", minSigningKeyLen)
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("identity: issuer and audience are required")
	}
	if store == nil {
		return nil, errors.New("identity: account store is required")
	}
	return &Provider{
		key:      []byte(cfg.SigningKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		store:    store,
		now:      time.Now,
	}, nil
}

// MintIDToken signs a token for uid carrying the account's current custom claims.
func (p *Provider) MintIDToken(ctx context.Context, uid string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("identity: ttl must be positive")
	}
	acct, err := p.store.Get(ctx, uid)
	if err != nil {
		return "", err
	}
	if acct.Disabled {
		return "", ErrUserDisabled
	}

	now := p.now()
	// a token minted right after a revocation must not fall below the watermark
	if now.Before(acct.TokensValidAfter) {
		now = acct.TokensValidAfter
	}
	claims := idClaims{
		Email:  acct.Email,
		Claims: maps.Clone(acct.CustomClaims),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   uid,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("identity: sign token: %w", err)
	}
	return signed, nil
}

// VerifyIDToken checks signature, issuer, audience and expiry only.
func (p *Provider) VerifyIDToken(_ context.Context, raw string) (*Token, error) {
	var claims idClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return p.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrIDTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrIDTokenInvalid, err)
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing sub or iat", ErrIDTokenInvalid)
	}

	tok := &Token{
		UID:      claims.Subject,
		Email:    claims.Email,
		IssuedAt: claims.IssuedAt.Time,
		Claims:   claims.Claims,
	}
	if claims.ExpiresAt != nil {
		tok.ExpiresAt = claims.ExpiresAt.Time
	}
	if tok.Claims == nil {
		tok.Claims = map[string]any{}
	}
	return tok, nil
}

// VerifyIDTokenAndCheckRevoked verifies the token and then consults the
// account: disabled accounts and tokens issued before the revocation
// watermark are rejected.
func (p *Provider) VerifyIDTokenAndCheckRevoked(ctx context.Context, raw string) (*Token, error) {
	tok, err := p.VerifyIDToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	acct, err := p.store.Get(ctx, tok.UID)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("%w: unknown account", ErrIDTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("identity: load account: %w", err)
	}
	if acct.Disabled {
		return nil, ErrUserDisabled
	}
	if tok.IssuedAt.Before(acct.TokensValidAfter) {
		return nil, ErrIDTokenRevoked
	}
	return tok, nil
}

// EnsureAccount returns the account for uid, creating it when absent.
// An empty email leaves an existing address untouched.
func (p *Provider) EnsureAccount(ctx context.Context, uid, email string) (*Account, error) {
	if uid == "" {
		return nil, errors.New("identity: uid is required")
	}
	acct, err := p.store.Get(ctx, uid)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		acct = &Account{UID: uid, Email: email, CustomClaims: map[string]any{}}
	case err != nil:
		return nil, err
	case email == "" || email == acct.Email:
		return acct, nil
	default:
		acct.Email = email
	}
	if err := p.store.Put(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// GetAccount returns the account or ErrAccountNotFound.
func (p *Provider) GetAccount(ctx context.Context, uid string) (*Account, error) {
	return p.store.Get(ctx, uid)
}

// SetCustomUserClaims replaces the account's custom claims. The change is
// visible in tokens minted afterwards.
func (p *Provider) SetCustomUserClaims(ctx context.Context, uid string, claims map[string]any) error {
	acct, err := p.store.Get(ctx, uid)
	if err != nil {
		return err
	}
	acct.CustomClaims = maps.Clone(claims)
	if acct.CustomClaims == nil {
		acct.CustomClaims = map[string]any{}
	}
	return p.store.Put(ctx, acct)
}

// RevokeRefreshTokens invalidates every token issued before now.
func (p *Provider) RevokeRefreshTokens(ctx context.Context, uid string) error {
	acct, err := p.store.Get(ctx, uid)
	if err != nil {
		return err
	}
	// iat has second precision; round up so tokens from this second are covered
	acct.TokensValidAfter = p.now().Truncate(time.Second).Add(time.Second)
	return p.store.Put(ctx, acct)
}

// SetDisabled enables or disables the account.
func (p *Provider) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	acct, err := p.store.Get(ctx, uid)
	if err != nil {
		return err
	}
	acct.Disabled = disabled
	return p.store.Put(ctx, acct)
}
