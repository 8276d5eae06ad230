package instruction

import (
	"fmt"

	"foresight-go/internal/codec"
	"foresight-go/internal/domain"
	"foresight-go/internal/pda"
)

// CreateMarket builds the instruction creating a new market for the
// creator's next creation index. The creator profile must already exist;
// callers prefix CreateCreatorProfile when it does not.
func CreateMarket(creator string, creationIndex uint32, params domain.MarketParams) (*Instruction, error) {
	if creator == "" {
		return nil, fmt.Errorf("creator is required")
	}
	if params.Question == "" {
		return nil, fmt.Errorf("question is required")
	}
	if len(params.Outcomes) < 2 {
		return nil, fmt.Errorf("at least two outcomes are required, got %d", len(params.Outcomes))
	}
	if params.TokenMint == "" {
		return nil, fmt.Errorf("token mint is required")
	}

	profile, _, err := pda.CreatorProfile(creator)
	if err != nil {
		return nil, fmt.Errorf("derive creator profile: %w", err)
	}
	market, _, err := pda.Market(creator, creationIndex)
	if err != nil {
		return nil, fmt.Errorf("derive market: %w", err)
	}
	vault, _, err := pda.MarketVault(market)
	if err != nil {
		return nil, fmt.Errorf("derive market vault: %w", err)
	}

	w := codec.NewWriter(codec.InstructionDiscriminator("create_market"))
	w.String(params.Question)
	w.StringSlice(params.Outcomes)
	w.Float32(params.QualityScore)
	w.Int64(params.Deadline.Unix())
	w.Uint8(uint8(params.MarketType))
	w.String(params.CreatorMetadata)
	w.OptionUint16(params.CreatorFeeBps)
	w.OptionBool(params.ResolverEligible)

	return &Instruction{
		ProgramID: pda.ProgramID,
		Accounts: []AccountMeta{
			meta(creator, true, true),
			meta(profile, false, true),
			meta(market, false, true),
			meta(vault, false, true),
			meta(params.TokenMint, false, false),
			meta(TokenProgramID, false, false),
			meta(SystemProgramID, false, false),
			meta(RentSysvarID, false, false),
		},
		Data: w.Bytes(),
	}, nil
}

// StakePrediction builds the instruction staking on a market outcome.
// marketCreator is the market's creator wallet, resolved by the caller
// from the fetched market state. The user profile must already exist;
// callers prefix InitializeUserProfile when it does not.
func StakePrediction(user, market, marketCreator, userTokenAccount string, outcomeIndex uint8, amount uint64) (*Instruction, error) {
	if user == "" {
		return nil, fmt.Errorf("user is required")
	}
	if market == "" {
		return nil, fmt.Errorf("market is required")
	}
	if amount == 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	creatorProfile, _, err := pda.CreatorProfile(marketCreator)
	if err != nil {
		return nil, fmt.Errorf("derive creator profile: %w", err)
	}
	prediction, _, err := pda.Prediction(market, user)
	if err != nil {
		return nil, fmt.Errorf("derive prediction: %w", err)
	}
	vault, _, err := pda.MarketVault(market)
	if err != nil {
		return nil, fmt.Errorf("derive market vault: %w", err)
	}
	userProfile, _, err := pda.UserProfile(user)
	if err != nil {
		return nil, fmt.Errorf("derive user profile: %w", err)
	}

	w := codec.NewWriter(codec.InstructionDiscriminator("stake_prediction"))
	w.Uint8(outcomeIndex)
	w.Uint64(amount)

	return &Instruction{
		ProgramID: pda.ProgramID,
		Accounts: []AccountMeta{
			meta(user, true, true),
			meta(market, false, true),
			meta(creatorProfile, false, true),
			meta(prediction, false, true),
			meta(userTokenAccount, false, true),
			meta(vault, false, true),
			meta(userProfile, false, true),
			meta(TokenProgramID, false, false),
			meta(SystemProgramID, false, false),
		},
		Data: w.Bytes(),
	}, nil
}

// ClaimReward builds the instruction claiming a won prediction's payout.
// marketCreator is resolved by the caller from the fetched market state.
func ClaimReward(user, market, marketCreator, userTokenAccount, creatorTokenAccount, protocolFeeAccount string) (*Instruction, error) {
	if user == "" {
		return nil, fmt.Errorf("user is required")
	}
	if market == "" {
		return nil, fmt.Errorf("market is required")
	}

	prediction, _, err := pda.Prediction(market, user)
	if err != nil {
		return nil, fmt.Errorf("derive prediction: %w", err)
	}
	vault, _, err := pda.MarketVault(market)
	if err != nil {
		return nil, fmt.Errorf("derive market vault: %w", err)
	}
	userProfile, _, err := pda.UserProfile(user)
	if err != nil {
		return nil, fmt.Errorf("derive user profile: %w", err)
	}
	creatorProfile, _, err := pda.CreatorProfile(marketCreator)
	if err != nil {
		return nil, fmt.Errorf("derive creator profile: %w", err)
	}

	w := codec.NewWriter(codec.InstructionDiscriminator("claim_reward"))

	return &Instruction{
		ProgramID: pda.ProgramID,
		Accounts: []AccountMeta{
			meta(user, true, true),
			meta(market, false, true),
			meta(prediction, false, true),
			meta(vault, false, true),
			meta(userTokenAccount, false, true),
			meta(creatorTokenAccount, false, true),
			meta(protocolFeeAccount, false, true),
			meta(userProfile, false, true),
			meta(creatorProfile, false, true),
			meta(TokenProgramID, false, false),
		},
		Data: w.Bytes(),
	}, nil
}

// CreateCreatorProfile builds the instruction lazily initializing a
// creator's profile before their first market.
func CreateCreatorProfile(creator string) (*Instruction, error) {
	if creator == "" {
		return nil, fmt.Errorf("creator is required")
	}

	profile, _, err := pda.CreatorProfile(creator)
	if err != nil {
		return nil, fmt.Errorf("derive creator profile: %w", err)
	}

	w := codec.NewWriter(codec.InstructionDiscriminator("create_creator_profile"))

	return &Instruction{
		ProgramID: pda.ProgramID,
		Accounts: []AccountMeta{
			meta(creator, true, true),
			meta(profile, false, true),
			meta(SystemProgramID, false, false),
		},
		Data: w.Bytes(),
	}, nil
}

// InitializeUserProfile builds the instruction lazily initializing a
// user's profile before their first stake.
func InitializeUserProfile(user string) (*Instruction, error) {
	if user == "" {
		return nil, fmt.Errorf("user is required")
	}

	profile, _, err := pda.UserProfile(user)
	if err != nil {
		return nil, fmt.Errorf("derive user profile: %w", err)
	}

	w := codec.NewWriter(codec.InstructionDiscriminator("initialize_user_profile"))

	return &Instruction{
		ProgramID: pda.ProgramID,
		Accounts: []AccountMeta{
			meta(user, true, true),
			meta(profile, false, true),
			meta(SystemProgramID, false, false),
		},
		Data: w.Bytes(),
	}, nil
}
