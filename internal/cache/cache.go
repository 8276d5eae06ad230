// Package cache defines the token-metadata cache consumed by callers
// that resolve mint addresses to display metadata. Implementations are
// explicit objects constructed by the caller; there is no process-wide
// instance, so tests run isolated caches.
package cache

import (
	"context"
	"errors"

	"foresight-go/internal/domain"
)

// ErrNotFound is returned on a cache miss or after invalidation.
var ErrNotFound = errors.New("cache: not found")

// TokenCache stores token metadata keyed by mint address. Entries
// expire by TTL; Invalidate removes an entry before its TTL lapses.
type TokenCache interface {
	Get(ctx context.Context, mint string) (domain.TokenInfo, error)
	Set(ctx context.Context, info domain.TokenInfo) error
	Invalidate(ctx context.Context, mint string) error
}
