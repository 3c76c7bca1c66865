package identity

import (
	"context"
	"maps"
	"sync"
)

// MemoryAccountStore keeps accounts in process memory. State is lost on
// restart, so it is meant for development and tests.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryAccountStore creates an empty MemoryAccountStore.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]Account)}
}

var _ AccountStore = (*MemoryAccountStore)(nil)

func (s *MemoryAccountStore) Get(_ context.Context, uid string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[uid]
	if !ok {
		return nil, ErrAccountNotFound
	}
	a.CustomClaims = maps.Clone(a.CustomClaims)
	return &a, nil
}

func (s *MemoryAccountStore) Put(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := *account
	a.CustomClaims = maps.Clone(account.CustomClaims)
	s.accounts[a.UID] = a
	return nil
}
