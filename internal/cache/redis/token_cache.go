package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"foresight-go/internal/cache"
	"foresight-go/internal/domain"
)

const tokenTTL = 5 * time.Minute

// TokenCache implements cache.TokenCache using Redis string values
// with JSON-serialized token metadata.
//
// Key schema:
//
//	token:{mint} - JSON-encoded TokenInfo
type TokenCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTokenCache creates a TokenCache backed by the given Client.
func NewTokenCache(c *Client) *TokenCache {
	return &TokenCache{rdb: c.Underlying(), ttl: tokenTTL}
}

func tokenKey(mint string) string { return "token:" + mint }

// Get retrieves token metadata by mint address. It returns
// cache.ErrNotFound when the key does not exist.
func (tc *TokenCache) Get(ctx context.Context, mint string) (domain.TokenInfo, error) {
	data, err := tc.rdb.Get(ctx, tokenKey(mint)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.TokenInfo{}, cache.ErrNotFound
		}
		return domain.TokenInfo{}, fmt.Errorf("redis: get token %s: %w", mint, err)
	}

	var info domain.TokenInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return domain.TokenInfo{}, fmt.Errorf("redis: unmarshal token %s: %w", mint, err)
	}
	return info, nil
}

// Set stores token metadata with the cache TTL.
func (tc *TokenCache) Set(ctx context.Context, info domain.TokenInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("redis: marshal token %s: %w", info.Address, err)
	}

	if err := tc.rdb.Set(ctx, tokenKey(info.Address), data, tc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set token %s: %w", info.Address, err)
	}
	return nil
}

// Invalidate removes a token entry. Missing entries are not an error.
func (tc *TokenCache) Invalidate(ctx context.Context, mint string) error {
	if err := tc.rdb.Del(ctx, tokenKey(mint)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate token %s: %w", mint, err)
	}
	return nil
}

var _ cache.TokenCache = (*TokenCache)(nil)
