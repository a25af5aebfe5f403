package block

import (
	"errors"

	"github.com/aalhour/sstkv/internal/encoding"
)

var (
	// ErrBadBlockHandle is returned when a block handle cannot be decoded.
	ErrBadBlockHandle = errors.New("block: bad block handle")

	// ErrBadBlock is returned when a block's tail framing does not describe
	// a consistent layout (out-of-range offsets, truncated tail, ...).
	ErrBadBlock = errors.New("block: corrupted block")

	// ErrChecksumMismatch is returned when a block's declared checksum does
	// not match the checksum recomputed over its bytes.
	ErrChecksumMismatch = errors.New("block: checksum mismatch")
)

// Handle points at the extent of a file that stores one block: its offset
// and length, plus the block's base key. It is the on-disk currency the
// table index uses to describe where each block lives (spec.md's
// "(block_offset, block_length, base_key)" triple).
type Handle struct {
	Offset  uint64
	Length  uint64
	BaseKey []byte
}

// EncodeTo appends the encoding of h to dst: two varint64s followed by a
// length-prefixed base key.
func (h Handle) EncodeTo(dst []byte) []byte {
	dst = encoding.AppendVarint64(dst, h.Offset)
	dst = encoding.AppendVarint64(dst, h.Length)
	dst = encoding.AppendLengthPrefixedSlice(dst, h.BaseKey)
	return dst
}

// EncodedLength returns the encoded length of h.
func (h Handle) EncodedLength() int {
	return encoding.VarintLength(h.Offset) + encoding.VarintLength(h.Length) +
		encoding.VarintLength(uint64(len(h.BaseKey))) + len(h.BaseKey)
}

// DecodeHandle decodes a Handle from the front of src, returning the handle
// and the unconsumed remainder.
func DecodeHandle(src []byte) (Handle, []byte, error) {
	offset, n, err := encoding.DecodeVarint64(src)
	if err != nil {
		return Handle{}, nil, ErrBadBlockHandle
	}
	src = src[n:]

	length, n, err := encoding.DecodeVarint64(src)
	if err != nil {
		return Handle{}, nil, ErrBadBlockHandle
	}
	src = src[n:]

	baseKey, n, err := encoding.DecodeLengthPrefixedSlice(src)
	if err != nil {
		return Handle{}, nil, ErrBadBlockHandle
	}
	src = src[n:]

	// Copy the base key out: src may be a view into a shared index buffer
	// that the caller reuses.
	owned := make([]byte, len(baseKey))
	copy(owned, baseKey)

	return Handle{Offset: offset, Length: length, BaseKey: owned}, src, nil
}
