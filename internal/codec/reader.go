package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mr-tron/base58"
)

// Reader consumes a raw account buffer field by field. Every read is
// bounds checked and fails with ErrMalformedAccountData instead of
// reading past the buffer.
type Reader struct {
	data []byte
	off  int
}

// NewReader creates a Reader over raw account bytes.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// require checks that n more bytes are available.
func (r *Reader) require(n int) error {
	if r.off+n > len(r.data) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrMalformedAccountData, n, r.off, len(r.data)-r.off)
	}
	return nil
}

// Discriminator reads the 8-byte type tag and compares it against want.
func (r *Reader) Discriminator(want [8]byte) error {
	if err := r.require(8); err != nil {
		return err
	}
	var got [8]byte
	copy(got[:], r.data[r.off:r.off+8])
	r.off += 8
	if got != want {
		return fmt.Errorf("%w: got %x, want %x", ErrAccountTypeMismatch, got, want)
	}
	return nil
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() (uint8, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

// Uint16 reads a little-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

// Uint64 reads a little-endian uint64.
func (r *Reader) Uint64() (uint64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

// Int64 reads a little-endian int64.
func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

// Float32 reads a little-endian IEEE 754 float32.
func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Bool reads a single byte as a boolean.
func (r *Reader) Bool() (bool, error) {
	v, err := r.Uint8()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// Pubkey reads a 32-byte key and returns its base58 form.
func (r *Reader) Pubkey() (string, error) {
	if err := r.require(32); err != nil {
		return "", err
	}
	key := base58.Encode(r.data[r.off : r.off+32])
	r.off += 32
	return key, nil
}

// String reads a 4-byte length prefix followed by UTF-8 payload.
func (r *Reader) String() (string, error) {
	n, err := r.Uint32()
	if err != nil {
		return "", err
	}
	if err := r.require(int(n)); err != nil {
		return "", err
	}
	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

// StringSlice reads a 4-byte count followed by that many strings.
func (r *Reader) StringSlice() ([]string, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	// Each string takes at least its 4-byte length prefix. A corrupt
	// count must fail here, before the allocation sized by it.
	if minBytes := int64(n) * 4; minBytes > int64(r.Remaining()) {
		return nil, fmt.Errorf("%w: array count %d needs at least %d bytes at offset %d, have %d",
			ErrMalformedAccountData, n, minBytes, r.off, r.Remaining())
	}
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		s, err := r.String()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Uint64Slice reads a 4-byte count followed by that many uint64 values.
func (r *Reader) Uint64Slice() ([]uint64, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if minBytes := int64(n) * 8; minBytes > int64(r.Remaining()) {
		return nil, fmt.Errorf("%w: array count %d needs %d bytes at offset %d, have %d",
			ErrMalformedAccountData, n, minBytes, r.off, r.Remaining())
	}
	out := make([]uint64, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// OptionUint8 reads a presence byte followed by the value when present.
func (r *Reader) OptionUint8() (*uint8, error) {
	present, err := r.Bool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	v, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
