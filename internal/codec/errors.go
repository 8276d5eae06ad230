package codec

import "errors"

// Decode errors. Both are local, synchronous failures; a decoder never
// returns a partially populated record.
var (
	// ErrMalformedAccountData is returned when a buffer is shorter than
	// the layout requires.
	ErrMalformedAccountData = errors.New("malformed account data")

	// ErrAccountTypeMismatch is returned when the 8-byte discriminator
	// prefix does not match the expected account type.
	ErrAccountTypeMismatch = errors.New("account type mismatch")
)
