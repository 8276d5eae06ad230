// Package token resolves stake-token metadata: a remote token list
// merged with the app's built-in defaults, fronted by a TokenCache.
package token

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"foresight-go/internal/cache"
	"foresight-go/internal/domain"
	"foresight-go/internal/observability"
)

// ErrNotFound is returned when no token matches the query.
var ErrNotFound = errors.New("token not found")

// DefaultTokens are always available even when the remote list is
// unreachable, and sort first in listings.
var DefaultTokens = []domain.TokenInfo{
	{
		Address:  "So11111111111111111111111111111111111111112",
		Symbol:   "SOL",
		Name:     "Solana",
		Decimals: 9,
		LogoURI:  "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/So11111111111111111111111111111111111111112/logo.png",
	},
	{
		Address:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Symbol:   "USDC",
		Name:     "USD Coin",
		Decimals: 6,
		LogoURI:  "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v/logo.png",
	},
}

// Lister fetches the remote token list.
type Lister interface {
	ListTokens(ctx context.Context) ([]domain.TokenInfo, error)
}

// Service serves token lookups for the market and stake flows.
type Service struct {
	lister Lister
	cache  cache.TokenCache
	log    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New creates a token service over a remote lister and a cache.
func New(lister Lister, c cache.TokenCache, opts ...Option) *Service {
	s := &Service{
		lister: lister,
		cache:  c,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AllTokens returns the defaults followed by the remote list, with
// remote entries that shadow a default dropped. A remote failure
// degrades to the defaults instead of erroring.
func (s *Service) AllTokens(ctx context.Context) ([]domain.TokenInfo, error) {
	out := append([]domain.TokenInfo(nil), DefaultTokens...)
	seen := make(map[string]struct{}, len(out))
	for _, t := range out {
		seen[t.Address] = struct{}{}
	}

	remote, err := s.lister.ListTokens(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("token list unavailable, serving defaults only")
		return out, nil
	}

	for _, t := range remote {
		if _, dup := seen[t.Address]; dup {
			continue
		}
		seen[t.Address] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// GetByAddress resolves one token by mint, consulting the cache first.
// A miss loads the full list and warms the cache with it.
func (s *Service) GetByAddress(ctx context.Context, mint string) (*domain.TokenInfo, error) {
	info, err := s.cache.Get(ctx, mint)
	if err == nil {
		observability.DefaultMetrics.CacheHits.WithLabelValues("token").Inc()
		return &info, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		return nil, fmt.Errorf("token cache get: %w", err)
	}
	observability.DefaultMetrics.CacheMisses.WithLabelValues("token").Inc()

	tokens, err := s.AllTokens(ctx)
	if err != nil {
		return nil, err
	}

	var found *domain.TokenInfo
	for i := range tokens {
		if cacheErr := s.cache.Set(ctx, tokens[i]); cacheErr != nil {
			s.log.Debug().Err(cacheErr).Str("mint", tokens[i].Address).Msg("token cache set failed")
		}
		if tokens[i].Address == mint {
			found = &tokens[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, mint)
	}
	return found, nil
}

// GetBySymbol resolves one token by symbol, case-insensitively.
func (s *Service) GetBySymbol(ctx context.Context, symbol string) (*domain.TokenInfo, error) {
	tokens, err := s.AllTokens(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tokens {
		if strings.EqualFold(tokens[i].Symbol, symbol) {
			return &tokens[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
}

// DefaultToken returns the token the stake flow falls back to (SOL).
func (s *Service) DefaultToken(ctx context.Context) (*domain.TokenInfo, error) {
	return s.GetBySymbol(ctx, "SOL")
}
