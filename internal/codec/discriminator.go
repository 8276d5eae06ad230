package codec

import "crypto/sha256"

// Discriminators follow the Anchor convention: the first 8 bytes of
// SHA256("account:<Name>") for accounts and SHA256("global:<method>")
// for instructions. The deployed program's interface definition is
// authoritative; these constants must match it bit for bit.

// AccountDiscriminator computes the 8-byte tag for an account type name.
func AccountDiscriminator(name string) [8]byte {
	return discriminator("account:" + name)
}

// InstructionDiscriminator computes the 8-byte tag for an instruction
// method name in snake_case.
func InstructionDiscriminator(method string) [8]byte {
	return discriminator("global:" + method)
}

func discriminator(preimage string) [8]byte {
	hash := sha256.Sum256([]byte(preimage))
	var d [8]byte
	copy(d[:], hash[:8])
	return d
}

// Account discriminators for the program's account types.
var (
	MarketDiscriminator         = AccountDiscriminator("Market")
	PredictionDiscriminator     = AccountDiscriminator("Prediction")
	CreatorProfileDiscriminator = AccountDiscriminator("CreatorProfile")
	UserProfileDiscriminator    = AccountDiscriminator("UserProfile")
)

// Byte offsets of identity fields inside account data, used for
// program-account scan filters. They must track the layouts in
// accounts.go exactly or scans silently return nothing.
const (
	// PredictionUserOffset is the offset of the user key in a
	// prediction account: 8-byte discriminator, then user.
	PredictionUserOffset = 8

	// PredictionMarketOffset is the offset of the market key in a
	// prediction account: discriminator, user(32), then market.
	PredictionMarketOffset = 40
)
