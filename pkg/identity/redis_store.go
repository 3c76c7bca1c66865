package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const accountKeyPrefix = "identity:account:"

// NewRedisClient parses redisURL, applies pool settings and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

// RedisAccountStore stores accounts as JSON strings under identity:account:<uid>.
type RedisAccountStore struct {
	client redis.Cmdable
}

// NewRedisAccountStore creates a RedisAccountStore.
func NewRedisAccountStore(client redis.Cmdable) *RedisAccountStore {
	return &RedisAccountStore{client: client}
}

var _ AccountStore = (*RedisAccountStore)(nil)

func (s *RedisAccountStore) Get(ctx context.Context, uid string) (*Account, error) {
	raw, err := s.client.Get(ctx, accountKey(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", uid, err)
	}
	var a Account
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", uid, err)
	}
	return &a, nil
}

func (s *RedisAccountStore) Put(ctx context.Context, account *Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account %s: %w", account.UID, err)
	}
	if err := s.client.Set(ctx, accountKey(account.UID), raw, 0).Err(); err != nil {
		return fmt.Errorf("put account %s: %w", account.UID, err)
	}
	return nil
}

func accountKey(uid string) string {
	return accountKeyPrefix + uid
}
