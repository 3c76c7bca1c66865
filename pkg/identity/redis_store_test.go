package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the two commands the store uses.
type fakeRedis struct {
	redis.Cmdable
	data   map[string]string
	getErr error
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func TestRedisAccountStore_RoundTrip(t *testing.T) {
	fake := &fakeRedis{data: map[string]string{}}
	store := NewRedisAccountStore(fake)
	ctx := context.Background()

	watermark := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Put(ctx, &Account{
		UID:              "uid-1",
		Email:            "jo@example.com",
		CustomClaims:     map[string]any{AdminClaim: true},
		TokensValidAfter: watermark,
	}))
	assert.Contains(t, fake.data, "identity:account:uid-1")

	got, err := store.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", got.Email)
	assert.Equal(t, true, got.CustomClaims[AdminClaim])
	assert.True(t, got.TokensValidAfter.Equal(watermark))
}

func TestRedisAccountStore_Missing(t *testing.T) {
	store := NewRedisAccountStore(&fakeRedis{data: map[string]string{}})
	_, err := store.Get(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrAccountNotFound))
}

func TestRedisAccountStore_BackendError(t *testing.T) {
	boom := errors.New("connection refused")
	store := NewRedisAccountStore(&fakeRedis{data: map[string]string{}, getErr: boom})
	_, err := store.Get(context.Background(), "uid-1")
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, ErrAccountNotFound))
}
