// Package codec decodes raw program account buffers into typed records
// and encodes instruction argument payloads. The layout is fixed by the
// deployed program: an 8-byte discriminator, then fields in declared
// order.
package codec

import (
	"time"

	"foresight-go/internal/domain"
)

// DecodeMarket decodes a market account. The account address is not
// part of the data; the caller sets it on the returned record.
func DecodeMarket(data []byte) (*domain.Market, error) {
	r := NewReader(data)
	if err := r.Discriminator(MarketDiscriminator); err != nil {
		return nil, err
	}

	var m domain.Market
	var err error

	if m.Creator, err = r.Pubkey(); err != nil {
		return nil, err
	}
	if m.Question, err = r.String(); err != nil {
		return nil, err
	}
	if m.Outcomes, err = r.StringSlice(); err != nil {
		return nil, err
	}
	if m.QualityScore, err = r.Float32(); err != nil {
		return nil, err
	}
	marketType, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	m.MarketType = domain.MarketType(marketType)

	deadline, err := r.Int64()
	if err != nil {
		return nil, err
	}
	m.Deadline = time.Unix(deadline, 0).UTC()

	suggested, err := r.Int64()
	if err != nil {
		return nil, err
	}
	m.SuggestedDeadline = time.Unix(suggested, 0).UTC()

	if m.Resolved, err = r.Bool(); err != nil {
		return nil, err
	}
	if m.WinningOutcome, err = r.OptionUint8(); err != nil {
		return nil, err
	}
	if m.TotalPool, err = r.Uint64(); err != nil {
		return nil, err
	}
	if m.CreatorFeeBps, err = r.Uint16(); err != nil {
		return nil, err
	}
	if m.ProtocolFeeBps, err = r.Uint16(); err != nil {
		return nil, err
	}
	if m.StakesPerOutcome, err = r.Uint64Slice(); err != nil {
		return nil, err
	}
	if m.TokenMint, err = r.Pubkey(); err != nil {
		return nil, err
	}
	if m.ResolverEligible, err = r.Bool(); err != nil {
		return nil, err
	}
	if m.Bump, err = r.Uint8(); err != nil {
		return nil, err
	}

	return &m, nil
}

// DecodePrediction decodes a prediction account. Status is left at its
// zero value; the fetcher derives it from the market's resolution.
func DecodePrediction(data []byte) (*domain.Prediction, error) {
	r := NewReader(data)
	if err := r.Discriminator(PredictionDiscriminator); err != nil {
		return nil, err
	}

	var p domain.Prediction
	var err error

	if p.User, err = r.Pubkey(); err != nil {
		return nil, err
	}
	if p.Market, err = r.Pubkey(); err != nil {
		return nil, err
	}
	if p.OutcomeIndex, err = r.Uint8(); err != nil {
		return nil, err
	}
	if p.Amount, err = r.Uint64(); err != nil {
		return nil, err
	}

	ts, err := r.Int64()
	if err != nil {
		return nil, err
	}
	p.Timestamp = time.Unix(ts, 0).UTC()

	if p.Claimed, err = r.Bool(); err != nil {
		return nil, err
	}
	if p.Bump, err = r.Uint8(); err != nil {
		return nil, err
	}

	p.Status = domain.PredictionPending
	return &p, nil
}

// DecodeCreatorProfile decodes a creator profile account.
func DecodeCreatorProfile(data []byte) (*domain.CreatorProfile, error) {
	r := NewReader(data)
	if err := r.Discriminator(CreatorProfileDiscriminator); err != nil {
		return nil, err
	}

	var cp domain.CreatorProfile
	var err error

	if cp.Creator, err = r.Pubkey(); err != nil {
		return nil, err
	}

	lastCreated, err := r.Int64()
	if err != nil {
		return nil, err
	}
	cp.LastCreatedAt = time.Unix(lastCreated, 0).UTC()

	if cp.MarketsCreated, err = r.Uint32(); err != nil {
		return nil, err
	}
	if cp.TotalVolume, err = r.Uint64(); err != nil {
		return nil, err
	}
	if cp.TractionScore, err = r.Uint64(); err != nil {
		return nil, err
	}
	if cp.Tier, err = r.Uint8(); err != nil {
		return nil, err
	}
	if cp.Bump, err = r.Uint8(); err != nil {
		return nil, err
	}

	return &cp, nil
}

// DecodeUserProfile decodes a user profile account.
func DecodeUserProfile(data []byte) (*domain.UserProfile, error) {
	r := NewReader(data)
	if err := r.Discriminator(UserProfileDiscriminator); err != nil {
		return nil, err
	}

	var up domain.UserProfile
	var err error

	if up.User, err = r.Pubkey(); err != nil {
		return nil, err
	}
	if up.TotalStaked, err = r.Uint64(); err != nil {
		return nil, err
	}
	if up.TotalWinnings, err = r.Uint64(); err != nil {
		return nil, err
	}
	if up.TotalPredictions, err = r.Uint32(); err != nil {
		return nil, err
	}
	if up.WinningPredictions, err = r.Uint32(); err != nil {
		return nil, err
	}

	lastActive, err := r.Int64()
	if err != nil {
		return nil, err
	}
	up.LastActiveAt = time.Unix(lastActive, 0).UTC()

	if up.Bump, err = r.Uint8(); err != nil {
		return nil, err
	}

	return &up, nil
}
