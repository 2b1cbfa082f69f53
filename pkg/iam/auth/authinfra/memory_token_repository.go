package authinfra

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/kernel"
)

type MemoryTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]auth.RefreshToken
}

func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{tokens: make(map[string]auth.RefreshToken)}
}

var _ auth.TokenRepository = (*MemoryTokenRepository)(nil)

func (r *MemoryTokenRepository) SaveRefreshToken(ctx context.Context, token auth.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *MemoryTokenRepository) FindRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, auth.ErrInvalidRefreshToken()
	}
	return &t, nil
}

func (r *MemoryTokenRepository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return auth.ErrInvalidRefreshToken()
	}
	now := time.Now()
	t.RevokedAt = &now
	r.tokens[tokenHash] = t
	return nil
}

func (r *MemoryTokenRepository) RevokeAllUserTokens(ctx context.Context, userID kernel.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for hash, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			r.tokens[hash] = t
		}
	}
	return nil
}

func (r *MemoryTokenRepository) CleanExpiredTokens(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for hash, t := range r.tokens {
		if t.RevokedAt != nil || now.After(t.ExpiresAt) {
			delete(r.tokens, hash)
		}
	}
	return nil
}

// Len is the number of stored tokens, revoked ones included
func (r *MemoryTokenRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
