package fetcher

import "math/big"

// bpsDenominator converts basis points to a fraction.
const bpsDenominator = 10000

// feeAmount computes pool * bps / 10000 in raw units.
func feeAmount(pool uint64, bps uint16) uint64 {
	f := new(big.Int).SetUint64(pool)
	f.Mul(f, big.NewInt(int64(bps)))
	f.Div(f, big.NewInt(bpsDenominator))
	return f.Uint64()
}

// potentialReward computes the payout for a winning stake:
// (stake / stakeOnWinning) * (totalPool - creatorFee - protocolFee).
// All arithmetic runs on big.Int; intermediate products exceed uint64
// for large pools.
func potentialReward(stake, stakeOnWinning, totalPool uint64, creatorFeeBps, protocolFeeBps uint16) uint64 {
	if stakeOnWinning == 0 {
		return 0
	}

	distributable := new(big.Int).SetUint64(totalPool)
	distributable.Sub(distributable, new(big.Int).SetUint64(feeAmount(totalPool, creatorFeeBps)))
	distributable.Sub(distributable, new(big.Int).SetUint64(feeAmount(totalPool, protocolFeeBps)))
	if distributable.Sign() <= 0 {
		return 0
	}

	reward := new(big.Int).SetUint64(stake)
	reward.Mul(reward, distributable)
	reward.Div(reward, new(big.Int).SetUint64(stakeOnWinning))
	return reward.Uint64()
}
