package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mr-tron/base58"
)

// Writer builds an instruction argument payload using the same layout
// rules the decoders expect: little-endian fixed-width integers, single
// presence bytes for options, 4-byte length prefixes for strings and
// arrays.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer seeded with an 8-byte instruction
// discriminator.
func NewWriter(discriminator [8]byte) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.buf = append(w.buf, discriminator[:]...)
	return w
}

// Uint8 appends a single byte.
func (w *Writer) Uint8(v uint8) {
	w.buf = append(w.buf, v)
}

// Uint16 appends a little-endian uint16.
func (w *Writer) Uint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// Uint32 appends a little-endian uint32.
func (w *Writer) Uint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// Uint64 appends a little-endian uint64.
func (w *Writer) Uint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// Int64 appends a little-endian int64.
func (w *Writer) Int64(v int64) {
	w.Uint64(uint64(v))
}

// Float32 appends a little-endian IEEE 754 float32.
func (w *Writer) Float32(v float32) {
	w.Uint32(math.Float32bits(v))
}

// Bool appends a boolean as a single byte.
func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// Pubkey appends the 32 raw bytes of a base58 address.
func (w *Writer) Pubkey(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("decode address %q: %w", address, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("address %q: expected 32 bytes, got %d", address, len(raw))
	}
	w.buf = append(w.buf, raw...)
	return nil
}

// String appends a 4-byte length prefix and the UTF-8 payload.
func (w *Writer) String(s string) {
	w.Uint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// StringSlice appends a 4-byte count followed by each string.
func (w *Writer) StringSlice(values []string) {
	w.Uint32(uint32(len(values)))
	for _, s := range values {
		w.String(s)
	}
}

// OptionUint16 appends a presence byte, then the value when non-nil.
func (w *Writer) OptionUint16(v *uint16) {
	if v == nil {
		w.Bool(false)
		return
	}
	w.Bool(true)
	w.Uint16(*v)
}

// OptionBool appends a presence byte, then the value when non-nil.
func (w *Writer) OptionBool(v *bool) {
	if v == nil {
		w.Bool(false)
		return
	}
	w.Bool(true)
	w.Bool(*v)
}

// Bytes returns the accumulated payload.
func (w *Writer) Bytes() []byte {
	return w.buf
}
