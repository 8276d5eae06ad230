// Package fetcher reads program accounts from the ledger: full market
// scans, per-user and per-market prediction queries, profile lookups.
// Bulk scans recover from individual decode failures; explicitly
// requested accounts fail hard.
package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"

	"foresight-go/internal/codec"
	"foresight-go/internal/domain"
	"foresight-go/internal/observability"
	"foresight-go/internal/pda"
	"foresight-go/internal/solana"
)

// ErrNotFound is returned when an explicitly requested account does not
// exist on the ledger.
var ErrNotFound = errors.New("account not found")

// Fetcher queries and decodes program accounts.
type Fetcher struct {
	rpc       solana.RPCClient
	programID string
	log       zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the fetcher logger.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Fetcher) {
		f.log = log
	}
}

// WithProgramID overrides the scanned program.
func WithProgramID(programID string) Option {
	return func(f *Fetcher) {
		f.programID = programID
	}
}

// New creates a Fetcher over the given RPC client.
func New(rpc solana.RPCClient, opts ...Option) *Fetcher {
	f := &Fetcher{
		rpc:       rpc,
		programID: pda.ProgramID,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetAllMarkets scans every market account. A decode failure on one
// account is logged and that account skipped; it never aborts the scan.
func (f *Fetcher) GetAllMarkets(ctx context.Context) ([]domain.Market, error) {
	accounts, err := f.rpc.GetProgramAccounts(ctx, f.programID, &solana.ProgramAccountsOpts{
		Filters: []solana.MemcmpFilter{
			{Offset: 0, Bytes: codec.MarketDiscriminator[:]},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scan markets: %w", err)
	}

	markets := make([]domain.Market, 0, len(accounts))
	for _, acc := range accounts {
		market, err := codec.DecodeMarket(acc.Account.Data)
		if err != nil {
			f.log.Warn().
				Str("account", acc.Pubkey).
				Err(err).
				Msg("skipping undecodable market account")
			observability.RecordDecodeFailure("market")
			continue
		}
		market.Address = acc.Pubkey
		markets = append(markets, *market)
	}
	observability.DefaultMetrics.MarketsScanned.Add(float64(len(markets)))

	return markets, nil
}

// GetMarket fetches and decodes one market account. Unlike bulk scans,
// a decode failure here is fatal.
func (f *Fetcher) GetMarket(ctx context.Context, address string) (*domain.Market, error) {
	info, err := f.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch market %s: %w", address, err)
	}
	if info == nil {
		return nil, fmt.Errorf("market %s: %w", address, ErrNotFound)
	}

	market, err := codec.DecodeMarket(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode market %s: %w", address, err)
	}
	market.Address = address
	return market, nil
}

// GetUserPredictions scans predictions staked by a user and derives
// each prediction's status from its market's resolution state.
func (f *Fetcher) GetUserPredictions(ctx context.Context, user string) ([]domain.Prediction, error) {
	return f.scanPredictions(ctx, codec.PredictionUserOffset, user)
}

// GetMarketPredictions scans predictions staked on a market.
func (f *Fetcher) GetMarketPredictions(ctx context.Context, market string) ([]domain.Prediction, error) {
	return f.scanPredictions(ctx, codec.PredictionMarketOffset, market)
}

// CountMarketPredictions counts predictions on a market without
// retrieving account payloads.
func (f *Fetcher) CountMarketPredictions(ctx context.Context, market string) (int, error) {
	keyBytes, err := decodeKey(market)
	if err != nil {
		return 0, err
	}

	accounts, err := f.rpc.GetProgramAccounts(ctx, f.programID, &solana.ProgramAccountsOpts{
		Filters: []solana.MemcmpFilter{
			{Offset: 0, Bytes: codec.PredictionDiscriminator[:]},
			{Offset: codec.PredictionMarketOffset, Bytes: keyBytes},
		},
		SliceData:   true,
		SliceLength: 0,
	})
	if err != nil {
		return 0, fmt.Errorf("count predictions for %s: %w", market, err)
	}

	return len(accounts), nil
}

// GetCreatorProfile fetches the creator profile account derived from a
// creator wallet. Returns ErrNotFound when the profile was never
// initialized.
func (f *Fetcher) GetCreatorProfile(ctx context.Context, creator string) (*domain.CreatorProfile, error) {
	address, _, err := pda.CreatorProfile(creator)
	if err != nil {
		return nil, err
	}

	info, err := f.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch creator profile %s: %w", address, err)
	}
	if info == nil {
		return nil, fmt.Errorf("creator profile for %s: %w", creator, ErrNotFound)
	}

	profile, err := codec.DecodeCreatorProfile(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode creator profile %s: %w", address, err)
	}
	return profile, nil
}

// GetUserProfile fetches the user profile account derived from a user
// wallet. Returns ErrNotFound when the profile was never initialized.
func (f *Fetcher) GetUserProfile(ctx context.Context, user string) (*domain.UserProfile, error) {
	address, _, err := pda.UserProfile(user)
	if err != nil {
		return nil, err
	}

	info, err := f.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch user profile %s: %w", address, err)
	}
	if info == nil {
		return nil, fmt.Errorf("user profile for %s: %w", user, ErrNotFound)
	}

	profile, err := codec.DecodeUserProfile(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode user profile %s: %w", address, err)
	}
	return profile, nil
}

// scanPredictions scans prediction accounts matching a key at a fixed
// offset, then resolves each prediction's status against its market.
// RPC failures propagate; per-record decode failures are logged and
// skipped.
func (f *Fetcher) scanPredictions(ctx context.Context, offset int, key string) ([]domain.Prediction, error) {
	keyBytes, err := decodeKey(key)
	if err != nil {
		return nil, err
	}

	accounts, err := f.rpc.GetProgramAccounts(ctx, f.programID, &solana.ProgramAccountsOpts{
		Filters: []solana.MemcmpFilter{
			{Offset: 0, Bytes: codec.PredictionDiscriminator[:]},
			{Offset: offset, Bytes: keyBytes},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scan predictions: %w", err)
	}

	// One market serves many predictions in a market-keyed scan.
	marketCache := make(map[string]*domain.Market)

	predictions := make([]domain.Prediction, 0, len(accounts))
	for _, acc := range accounts {
		prediction, err := codec.DecodePrediction(acc.Account.Data)
		if err != nil {
			f.log.Warn().
				Str("account", acc.Pubkey).
				Err(err).
				Msg("skipping undecodable prediction account")
			observability.RecordDecodeFailure("prediction")
			continue
		}

		market, ok := marketCache[prediction.Market]
		if !ok {
			market, err = f.GetMarket(ctx, prediction.Market)
			if err != nil {
				if errors.Is(err, ErrNotFound) || errors.Is(err, codec.ErrMalformedAccountData) || errors.Is(err, codec.ErrAccountTypeMismatch) {
					f.log.Warn().
						Str("prediction", acc.Pubkey).
						Str("market", prediction.Market).
						Err(err).
						Msg("skipping prediction with unreadable market")
					continue
				}
				return nil, err
			}
			marketCache[prediction.Market] = market
		}

		f.resolveStatus(prediction, market)
		predictions = append(predictions, *prediction)
	}

	observability.DefaultMetrics.PredictionsScanned.Add(float64(len(predictions)))

	return predictions, nil
}

// resolveStatus derives a prediction's status and, for winners, its
// potential reward from the market's resolution state.
func (f *Fetcher) resolveStatus(p *domain.Prediction, m *domain.Market) {
	if !m.Resolved || m.WinningOutcome == nil {
		p.Status = domain.PredictionPending
		return
	}

	if p.OutcomeIndex != *m.WinningOutcome {
		p.Status = domain.PredictionLost
		return
	}

	p.Status = domain.PredictionWon

	var stakeOnWinning uint64
	if int(*m.WinningOutcome) < len(m.StakesPerOutcome) {
		stakeOnWinning = m.StakesPerOutcome[*m.WinningOutcome]
	}
	p.PotentialReward = potentialReward(p.Amount, stakeOnWinning, m.TotalPool, m.CreatorFeeBps, m.ProtocolFeeBps)
}

func decodeKey(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("invalid account address %q", address)
	}
	return raw, nil
}
