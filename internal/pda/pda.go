// Package pda derives program-owned addresses for the prediction-market
// program. Derivation is deterministic and side-effect free: any caller
// with the same public inputs computes the same address.
package pda

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ProgramID is the deployed prediction-market program.
const ProgramID = "7Gh4eFGmobz5ngu2U3bgZiQm2Adwm33dQTsUwzRb7wBi"

// ProtocolFeeAccount receives the protocol's share of claimed rewards.
const ProtocolFeeAccount = "4nQVUxfFaFjmz9esZxkBUUxgjDCyCcHMarHU8Ek7nGjy"

// Account seeds fixed by the deployed program.
const (
	seedCreatorProfile    = "creator_profile"
	seedMarket            = "market"
	seedMarketVault       = "market_vault"
	seedPrediction        = "prediction"
	seedUserProfile       = "user_profile"
	seedResolverAuthority = "ai_resolver"
	seedOutcomeVote       = "outcome_vote"
	seedVoteResult        = "vote_result"
)

// ErrNoBump is returned when no bump in [0,255] yields an off-curve
// address. With SHA256 output this is astronomically unlikely.
var ErrNoBump = errors.New("no valid bump seed found")

const pdaMarker = "ProgramDerivedAddress"

// FindProgramAddress searches bump values from 255 down to 0 for the
// first candidate that is not a valid ed25519 curve point, and returns
// the base58 address together with the bump that produced it.
func FindProgramAddress(seeds [][]byte, programID string) (string, uint8, error) {
	program, err := decodeKey(programID)
	if err != nil {
		return "", 0, fmt.Errorf("program id: %w", err)
	}

	for bump := 255; bump >= 0; bump-- {
		data := make([]byte, 0, 64)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, byte(bump))
		data = append(data, program...)
		data = append(data, []byte(pdaMarker)...)

		hash := sha256.Sum256(data)
		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:]), uint8(bump), nil
		}
	}

	return "", 0, ErrNoBump
}

// isOnCurve reports whether the point decodes as a valid ed25519 point.
// Off-curve addresses have no private key, which is what makes them
// safe for program ownership.
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// decodeKey decodes a base58 address and validates its length.
func decodeKey(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("decode address %q: %w", address, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("address %q: expected 32 bytes, got %d", address, len(raw))
	}
	return raw, nil
}

// CreatorProfile derives the profile account for a creator wallet.
func CreatorProfile(creator string) (string, uint8, error) {
	key, err := decodeKey(creator)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{[]byte(seedCreatorProfile), key}, ProgramID)
}

// Market derives the market account for a creator and creation index.
// The index is encoded as its decimal string, matching the program's
// seed derivation.
func Market(creator string, creationIndex uint32) (string, uint8, error) {
	key, err := decodeKey(creator)
	if err != nil {
		return "", 0, err
	}
	index := []byte(strconv.FormatUint(uint64(creationIndex), 10))
	return FindProgramAddress([][]byte{[]byte(seedMarket), key, index}, ProgramID)
}

// MarketVault derives the token vault for a market.
func MarketVault(market string) (string, uint8, error) {
	key, err := decodeKey(market)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{[]byte(seedMarketVault), key}, ProgramID)
}

// Prediction derives the prediction account for a (market, user) pair.
// The derivation collides for a second stake by the same user, which is
// how the program enforces one prediction per pair.
func Prediction(market, user string) (string, uint8, error) {
	marketKey, err := decodeKey(market)
	if err != nil {
		return "", 0, err
	}
	userKey, err := decodeKey(user)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{[]byte(seedPrediction), marketKey, userKey}, ProgramID)
}

// UserProfile derives the profile account for a user wallet.
func UserProfile(user string) (string, uint8, error) {
	key, err := decodeKey(user)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{[]byte(seedUserProfile), key}, ProgramID)
}

// ResolverAuthority derives the resolver authority account for an admin.
func ResolverAuthority(admin string) (string, uint8, error) {
	key, err := decodeKey(admin)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{[]byte(seedResolverAuthority), key}, ProgramID)
}

// OutcomeVote derives the vote account for a (market, voter) pair.
func OutcomeVote(market, voter string) (string, uint8, error) {
	marketKey, err := decodeKey(market)
	if err != nil {
		return "", 0, err
	}
	voterKey, err := decodeKey(voter)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{[]byte(seedOutcomeVote), marketKey, voterKey}, ProgramID)
}

// VoteResult derives the aggregated vote result account for a market.
func VoteResult(market string) (string, uint8, error) {
	key, err := decodeKey(market)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{[]byte(seedVoteResult), key}, ProgramID)
}

// SPL token program addresses used for associated account derivation.
const (
	tokenProgramID           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	associatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
)

// AssociatedTokenAccount derives the canonical token account holding a
// wallet's balance of a mint.
func AssociatedTokenAccount(wallet, mint string) (string, uint8, error) {
	walletKey, err := decodeKey(wallet)
	if err != nil {
		return "", 0, err
	}
	mintKey, err := decodeKey(mint)
	if err != nil {
		return "", 0, err
	}
	tokenProgram, err := decodeKey(tokenProgramID)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{walletKey, tokenProgram, mintKey}, associatedTokenProgramID)
}
