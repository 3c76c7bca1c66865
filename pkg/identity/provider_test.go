package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-signing-key-0123456789abcdef"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestProvider(t *testing.T) (*Provider, *fakeClock) {
	t.Helper()
	p, err := NewProvider(Config{SigningKey: testKey, Issuer: "folio-identity", Audience: "folio"}, NewMemoryAccountStore())
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	p.now = clock.Now
	return p, clock
}

func TestNewProvider_RejectsShortKey(t *testing.T) {
	_, err := NewProvider(Config{SigningKey: "short", Issuer: "i", Audience: "a"}, NewMemoryAccountStore())
	assert.Error(t, err)
}

func TestMintAndVerify_RoundTrip(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	_, err := p.EnsureAccount(ctx, "uid-1", "jo@example.com")
	require.NoError(t, err)
	require.NoError(t, p.SetCustomUserClaims(ctx, "uid-1", map[string]any{AdminClaim: true}))

	raw, err := p.MintIDToken(ctx, "uid-1", time.Hour)
	require.NoError(t, err)

	tok, err := p.VerifyIDTokenAndCheckRevoked(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", tok.UID)
	assert.Equal(t, "jo@example.com", tok.Email)
	assert.True(t, tok.IsAdmin())
}

func TestIsAdmin_RequiresBooleanTrue(t *testing.T) {
	assert.False(t, (&Token{Claims: map[string]any{AdminClaim: "true"}}).IsAdmin())
	assert.False(t, (&Token{Claims: map[string]any{AdminClaim: false}}).IsAdmin())
	assert.False(t, (&Token{}).IsAdmin())
	assert.False(t, (*Token)(nil).IsAdmin())
}

func TestVerify_Expired(t *testing.T) {
	p, clock := newTestProvider(t)
	ctx := context.Background()
	_, err := p.EnsureAccount(ctx, "uid-1", "")
	require.NoError(t, err)

	raw, err := p.MintIDToken(ctx, "uid-1", time.Minute)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	_, err = p.VerifyIDTokenAndCheckRevoked(ctx, raw)
	assert.True(t, errors.Is(err, ErrIDTokenExpired), "got %v", err)
}

func TestVerify_Revoked(t *testing.T) {
	p, clock := newTestProvider(t)
	ctx := context.Background()
	_, err := p.EnsureAccount(ctx, "uid-1", "")
	require.NoError(t, err)

	raw, err := p.MintIDToken(ctx, "uid-1", time.Hour)
	require.NoError(t, err)

	// still valid without the revocation check
	require.NoError(t, p.RevokeRefreshTokens(ctx, "uid-1"))
	_, err = p.VerifyIDToken(ctx, raw)
	require.NoError(t, err)

	_, err = p.VerifyIDTokenAndCheckRevoked(ctx, raw)
	assert.True(t, errors.Is(err, ErrIDTokenRevoked), "got %v", err)

	// a token minted in the same second as the revocation is accepted
	fresh, err := p.MintIDToken(ctx, "uid-1", time.Hour)
	require.NoError(t, err)
	clock.Advance(2 * time.Second)
	_, err = p.VerifyIDTokenAndCheckRevoked(ctx, fresh)
	assert.NoError(t, err)
}

func TestVerify_DisabledAccount(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	_, err := p.EnsureAccount(ctx, "uid-1", "")
	require.NoError(t, err)
	raw, err := p.MintIDToken(ctx, "uid-1", time.Hour)
	require.NoError(t, err)

	require.NoError(t, p.SetDisabled(ctx, "uid-1", true))
	_, err = p.VerifyIDTokenAndCheckRevoked(ctx, raw)
	assert.True(t, errors.Is(err, ErrUserDisabled))

	_, err = p.MintIDToken(ctx, "uid-1", time.Hour)
	assert.True(t, errors.Is(err, ErrUserDisabled))
}

func TestVerify_Invalid(t *testing.T) {
	p, clock := newTestProvider(t)
	ctx := context.Background()

	other, err := NewProvider(Config{SigningKey: testKey, Issuer: "someone-else", Audience: "folio"}, NewMemoryAccountStore())
	require.NoError(t, err)
	other.now = clock.Now
	_, err = other.EnsureAccount(ctx, "uid-1", "")
	require.NoError(t, err)
	wrongIssuer, err := other.MintIDToken(ctx, "uid-1", time.Hour)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "uid-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong issuer", wrongIssuer},
		{"alg none", noneAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.VerifyIDTokenAndCheckRevoked(ctx, tt.raw)
			assert.True(t, errors.Is(err, ErrIDTokenInvalid), "got %v", err)
		})
	}
}

func TestVerify_UnknownAccountIsInvalid(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	_, err := p.EnsureAccount(ctx, "uid-1", "")
	require.NoError(t, err)
	raw, err := p.MintIDToken(ctx, "uid-1", time.Hour)
	require.NoError(t, err)

	p.store = NewMemoryAccountStore()
	_, err = p.VerifyIDTokenAndCheckRevoked(ctx, raw)
	assert.True(t, errors.Is(err, ErrIDTokenInvalid))
}

func TestSetCustomUserClaims_UnknownAccount(t *testing.T) {
	p, _ := newTestProvider(t)
	err := p.SetCustomUserClaims(context.Background(), "nobody", map[string]any{AdminClaim: true})
	assert.True(t, errors.Is(err, ErrAccountNotFound))
}

func TestEnsureAccount_KeepsExistingEmail(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	_, err := p.EnsureAccount(ctx, "uid-1", "a@example.com")
	require.NoError(t, err)
	acct, err := p.EnsureAccount(ctx, "uid-1", "")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", acct.Email)
}
