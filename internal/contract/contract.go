// Package contract is the high-level client surface: it composes
// derivation, instruction assembly, the transaction lifecycle and the
// account fetcher into the operations an application calls.
package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"foresight-go/internal/domain"
	"foresight-go/internal/fetcher"
	"foresight-go/internal/instruction"
	"foresight-go/internal/pda"
	"foresight-go/internal/solana"
	"foresight-go/internal/txn"
)

// ErrNoPrediction is returned by ClaimReward when the wallet holds no
// prediction on the given market.
var ErrNoPrediction = errors.New("no prediction on market")

// Client executes prediction-market operations on behalf of one wallet.
// The wallet never exposes its key here; signing happens through the
// injected SignFunc.
type Client struct {
	wallet  string
	sign    txn.SignFunc
	fetcher *fetcher.Fetcher
	manager *txn.Manager
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger and propagates it to components
// built by New.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithFetcher overrides the account fetcher.
func WithFetcher(f *fetcher.Fetcher) Option {
	return func(c *Client) {
		c.fetcher = f
	}
}

// WithManager overrides the transaction lifecycle manager.
func WithManager(m *txn.Manager) Option {
	return func(c *Client) {
		c.manager = m
	}
}

// New creates a Client for a wallet over an RPC connection.
func New(rpc solana.RPCClient, wallet string, sign txn.SignFunc, opts ...Option) *Client {
	c := &Client{
		wallet: wallet,
		sign:   sign,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = fetcher.New(rpc, fetcher.WithLogger(c.log))
	}
	if c.manager == nil {
		c.manager = txn.NewManager(rpc, txn.WithLogger(c.log))
	}
	return c
}

// CreateMarket creates a market. When the wallet has no creator profile
// yet, a profile-creation instruction is prefixed in the same
// transaction. Returns the transaction signature.
func (c *Client) CreateMarket(ctx context.Context, params domain.MarketParams, cb *txn.Callbacks) (string, error) {
	var instrs []instruction.Instruction
	var creationIndex uint32

	profile, err := c.fetcher.GetCreatorProfile(ctx, c.wallet)
	switch {
	case err == nil:
		creationIndex = profile.MarketsCreated
	case errors.Is(err, fetcher.ErrNotFound):
		createProfile, err := instruction.CreateCreatorProfile(c.wallet)
		if err != nil {
			return "", err
		}
		instrs = append(instrs, *createProfile)
	default:
		return "", err
	}

	createMarket, err := instruction.CreateMarket(c.wallet, creationIndex, params)
	if err != nil {
		return "", err
	}
	instrs = append(instrs, *createMarket)

	receipt, err := c.manager.Execute(ctx, c.wallet, instrs, c.sign, cb)
	if err != nil {
		return "", err
	}

	c.log.Info().
		Str("signature", receipt.Signature).
		Uint32("creation_index", creationIndex).
		Msg("market created")
	return receipt.Signature, nil
}

// MakePrediction stakes on a market outcome. When the wallet has no
// user profile yet, a profile-initialization instruction is prefixed in
// the same transaction. Returns the transaction signature.
func (c *Client) MakePrediction(ctx context.Context, params domain.PredictionParams, cb *txn.Callbacks) (string, error) {
	market, err := c.fetcher.GetMarket(ctx, params.Market)
	if err != nil {
		return "", err
	}

	var instrs []instruction.Instruction

	if _, err := c.fetcher.GetUserProfile(ctx, c.wallet); err != nil {
		if !errors.Is(err, fetcher.ErrNotFound) {
			return "", err
		}
		initProfile, err := instruction.InitializeUserProfile(c.wallet)
		if err != nil {
			return "", err
		}
		instrs = append(instrs, *initProfile)
	}

	mint := params.TokenMint
	if mint == "" {
		mint = market.TokenMint
	}
	userTokenAccount, _, err := pda.AssociatedTokenAccount(c.wallet, mint)
	if err != nil {
		return "", err
	}

	stake, err := instruction.StakePrediction(c.wallet, params.Market, market.Creator, userTokenAccount, params.OutcomeIndex, params.Amount)
	if err != nil {
		return "", err
	}
	instrs = append(instrs, *stake)

	receipt, err := c.manager.Execute(ctx, c.wallet, instrs, c.sign, cb)
	if err != nil {
		return "", err
	}

	c.log.Info().
		Str("signature", receipt.Signature).
		Str("market", params.Market).
		Uint8("outcome", params.OutcomeIndex).
		Uint64("amount", params.Amount).
		Msg("prediction staked")
	return receipt.Signature, nil
}

// ClaimReward claims the payout of a winning prediction. The market is
// fetched to resolve the creator and the stake mint; the reward amount
// reported is the one computed from current market state.
func (c *Client) ClaimReward(ctx context.Context, marketAddress string, cb *txn.Callbacks) (*domain.ClaimRewardResult, error) {
	market, err := c.fetcher.GetMarket(ctx, marketAddress)
	if err != nil {
		return nil, err
	}

	prediction, err := c.findPrediction(ctx, marketAddress)
	if err != nil {
		return nil, err
	}

	userTokenAccount, _, err := pda.AssociatedTokenAccount(c.wallet, market.TokenMint)
	if err != nil {
		return nil, err
	}
	creatorTokenAccount, _, err := pda.AssociatedTokenAccount(market.Creator, market.TokenMint)
	if err != nil {
		return nil, err
	}
	protocolTokenAccount, _, err := pda.AssociatedTokenAccount(pda.ProtocolFeeAccount, market.TokenMint)
	if err != nil {
		return nil, err
	}

	claim, err := instruction.ClaimReward(c.wallet, marketAddress, market.Creator, userTokenAccount, creatorTokenAccount, protocolTokenAccount)
	if err != nil {
		return nil, err
	}

	receipt, err := c.manager.Execute(ctx, c.wallet, []instruction.Instruction{*claim}, c.sign, cb)
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Str("signature", receipt.Signature).
		Str("market", marketAddress).
		Uint64("reward", prediction.PotentialReward).
		Msg("reward claimed")

	return &domain.ClaimRewardResult{
		Signature:    receipt.Signature,
		RewardAmount: prediction.PotentialReward,
		Market:       marketAddress,
	}, nil
}

// findPrediction locates the wallet's prediction on a market.
func (c *Client) findPrediction(ctx context.Context, marketAddress string) (*domain.Prediction, error) {
	predictions, err := c.fetcher.GetUserPredictions(ctx, c.wallet)
	if err != nil {
		return nil, err
	}
	for i := range predictions {
		if predictions[i].Market == marketAddress {
			return &predictions[i], nil
		}
	}
	return nil, fmt.Errorf("market %s: %w", marketAddress, ErrNoPrediction)
}

// GetAllMarkets lists every market.
func (c *Client) GetAllMarkets(ctx context.Context) ([]domain.Market, error) {
	return c.fetcher.GetAllMarkets(ctx)
}

// GetMarket fetches one market.
func (c *Client) GetMarket(ctx context.Context, address string) (*domain.Market, error) {
	return c.fetcher.GetMarket(ctx, address)
}

// GetUserPredictions lists a user's predictions with derived status.
func (c *Client) GetUserPredictions(ctx context.Context, user string) ([]domain.Prediction, error) {
	return c.fetcher.GetUserPredictions(ctx, user)
}

// GetMarketPredictions lists predictions staked on a market.
func (c *Client) GetMarketPredictions(ctx context.Context, market string) ([]domain.Prediction, error) {
	return c.fetcher.GetMarketPredictions(ctx, market)
}

// GetUserStats derives presentation stats from a user profile. A user
// with no profile yet gets zero stats, not an error.
func (c *Client) GetUserStats(ctx context.Context, user string) (*domain.UserStats, error) {
	profile, err := c.fetcher.GetUserProfile(ctx, user)
	if err != nil {
		if errors.Is(err, fetcher.ErrNotFound) {
			return &domain.UserStats{}, nil
		}
		return nil, err
	}

	stats := &domain.UserStats{
		TotalPredictions:   profile.TotalPredictions,
		WinningPredictions: profile.WinningPredictions,
		TotalStaked:        profile.TotalStaked,
		TotalWinnings:      profile.TotalWinnings,
		LastActiveAt:       profile.LastActiveAt,
	}
	if profile.TotalPredictions > 0 {
		stats.Accuracy = float64(profile.WinningPredictions) / float64(profile.TotalPredictions) * 100
	}
	return stats, nil
}

// CalculateMarketStats derives the per-outcome stake distribution and
// summary figures for a market.
func (c *Client) CalculateMarketStats(ctx context.Context, marketAddress string) (*domain.MarketStats, error) {
	market, err := c.fetcher.GetMarket(ctx, marketAddress)
	if err != nil {
		return nil, err
	}

	count, err := c.fetcher.CountMarketPredictions(ctx, marketAddress)
	if err != nil {
		return nil, err
	}

	distribution := make([]float64, len(market.StakesPerOutcome))
	if market.TotalPool > 0 {
		for i, stake := range market.StakesPerOutcome {
			distribution[i] = float64(stake) / float64(market.TotalPool) * 100
		}
	}

	return &domain.MarketStats{
		TotalPredictions:    count,
		OutcomeDistribution: distribution,
		Deadline:            market.Deadline,
		Resolved:            market.Resolved,
		WinningOutcome:      market.WinningOutcome,
		Liquidity:           market.TotalPool,
	}, nil
}
