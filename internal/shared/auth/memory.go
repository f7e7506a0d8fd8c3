package auth

import (
	"context"
	"sync"
)

// MemoryTokenStore is an in-memory TokenStore implementation.
type MemoryTokenStore struct {
	tokens sync.Map
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Grant associates a token with an identity.
func (s *MemoryTokenStore) Grant(token string, identity Identity) {
	s.tokens.Store(token, identity)
}

// Revoke forgets a token.
func (s *MemoryTokenStore) Revoke(token string) {
	s.tokens.Delete(token)
}

func (s *MemoryTokenStore) Resolve(_ context.Context, token string) (Identity, error) {
	value, ok := s.tokens.Load(token)
	if !ok {
		return Identity{}, ErrUnknownToken
	}
	return value.(Identity), nil
}
