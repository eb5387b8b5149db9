package auth

import (
	"context"
	"sync"
	"time"
)

// Blacklist remembers revoked refresh tokens by jti until they expire.
type Blacklist interface {
	// Revoke marks jti revoked until the given time. Revoking an already
	// revoked jti returns ErrTokenRevoked.
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryBlacklist is a process-local Blacklist.
type MemoryBlacklist struct {
	now func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewMemoryBlacklist builds an empty MemoryBlacklist.
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, jti string, until time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked()
	if _, exists := b.revoked[jti]; exists {
		return ErrTokenRevoked
	}
	b.revoked[jti] = until
	return nil
}

func (b *MemoryBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	until, exists := b.revoked[jti]
	return exists && b.now().Before(until), nil
}

func (b *MemoryBlacklist) pruneLocked() {
	now := b.now()
	for jti, until := range b.revoked {
		if !now.Before(until) {
			delete(b.revoked, jti)
		}
	}
}
