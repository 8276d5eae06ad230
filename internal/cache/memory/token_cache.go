// Package memory implements cache interfaces with in-process maps.
package memory

import (
	"context"
	"sync"
	"time"

	"foresight-go/internal/cache"
	"foresight-go/internal/domain"
)

// DefaultTTL bounds how long a token entry stays valid.
const DefaultTTL = 5 * time.Minute

type entry struct {
	info      domain.TokenInfo
	expiresAt time.Time
}

// TokenCache implements cache.TokenCache with a mutex-guarded map.
// Expired entries are dropped lazily on read.
type TokenCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a TokenCache.
type Option func(*TokenCache)

// WithTTL overrides the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *TokenCache) {
		c.ttl = ttl
	}
}

// WithClock injects the time source, letting tests expire entries
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *TokenCache) {
		c.now = now
	}
}

// NewTokenCache creates an empty in-memory token cache.
func NewTokenCache(opts ...Option) *TokenCache {
	c := &TokenCache{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves token metadata by mint address.
func (c *TokenCache) Get(_ context.Context, mint string) (domain.TokenInfo, error) {
	c.mu.RLock()
	e, ok := c.entries[mint]
	c.mu.RUnlock()

	if !ok {
		return domain.TokenInfo{}, cache.ErrNotFound
	}

	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, mint)
		c.mu.Unlock()
		return domain.TokenInfo{}, cache.ErrNotFound
	}

	return e.info, nil
}

// Set stores token metadata under its mint address.
func (c *TokenCache) Set(_ context.Context, info domain.TokenInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[info.Address] = entry{
		info:      info,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Invalidate removes an entry. Missing entries are not an error.
func (c *TokenCache) Invalidate(_ context.Context, mint string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, mint)
	return nil
}

var _ cache.TokenCache = (*TokenCache)(nil)
