package domain

import "time"

// PredictionStatus is the derived state of a prediction relative to its
// market's resolution.
type PredictionStatus string

const (
	PredictionPending PredictionStatus = "pending"
	PredictionWon     PredictionStatus = "won"
	PredictionLost    PredictionStatus = "lost"
)

// Prediction is the decoded state of an on-chain prediction account.
// At most one prediction exists per (market, user) pair; the PDA
// derivation collides for a second stake and the program rejects it.
type Prediction struct {
	User         string // user wallet address
	Market       string // market account address
	OutcomeIndex uint8
	Amount       uint64 // staked amount, raw units
	Timestamp    time.Time
	Claimed      bool
	Bump         uint8

	// Derived, not part of the account data.
	Status          PredictionStatus
	PotentialReward uint64 // raw units, set for won predictions
}

// PredictionParams are the caller-supplied inputs for staking a prediction.
type PredictionParams struct {
	Market       string
	OutcomeIndex uint8
	Amount       uint64
	TokenMint    string
}

// ClaimRewardResult reports a completed reward claim.
type ClaimRewardResult struct {
	Signature    string
	RewardAmount uint64
	Market       string
}
