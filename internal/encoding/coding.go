// Package encoding holds the two codecs the table and WAL formats are built
// out of.
//
// Every structural framing field in an SST file or a WAL record — entry
// counts, the index and checksum section lengths, and the timestamp suffix
// carried on every internal key — is fixed-width and big-endian, so that a
// reader can locate the footer and the index by walking backward from the
// end of the file without first decoding anything variable-width. Within a
// block, by contrast, the per-entry overlap/diff lengths and the entry
// offset table are little-endian and variable in count, because they are
// only ever read forward by the block's own decoder once the block's extent
// is already known from its varint-encoded Handle. Block handles themselves,
// and the base key and Bloom filter blob carried alongside them in the
// table index, are varint- and length-prefixed so that they cost close to
// nothing when small.
//
// This package provides both halves: fixed-width big-endian encoders for
// framing fields, and the varint/length-prefixed/zigzag helpers the rest of
// the format builds on regardless of endianness. A generic little-endian
// fixed-width codec and a Slice read-cursor are also kept here for callers
// that want a plain byte-oriented cursor over an already-framed buffer.
package encoding

import (
	"encoding/binary"
	"errors"
)

// MaxVarint32Length is the maximum number of bytes a varint32 can occupy.
const MaxVarint32Length = 5

// MaxVarint64Length is the maximum number of bytes a varint64 can occupy.
const MaxVarint64Length = 10

var (
	// ErrBufferTooSmall is returned when a length-prefixed slice declares
	// more bytes than remain in the buffer.
	ErrBufferTooSmall = errors.New("encoding: buffer too small")

	// ErrVarintOverflow is returned when a varint exceeds 32 or 64 bits
	// without terminating.
	ErrVarintOverflow = errors.New("encoding: varint overflow")

	// ErrVarintTermination is returned when a varint runs off the end of
	// its buffer before its continuation bit clears.
	ErrVarintTermination = errors.New("encoding: varint not terminated")
)

// -----------------------------------------------------------------------------
// Framing fields — big-endian
//
// Table footers, the index length/checksum-length pair, entry/block counts,
// and the timestamp suffix on every internal key (ikey.KeyWithTS) all use
// this layout; the block and index codecs write theirs through
// encoding/binary directly. Big-endian here means the high bytes sort the same as the
// field's numeric value, which matters for the timestamp suffix: two
// internal keys with equal user keys must order by ascending timestamp
// under plain byte comparison, and that only holds if the timestamp is
// encoded big-endian.
// -----------------------------------------------------------------------------

// EncodeFixed32BE encodes a uint32 into a 4-byte big-endian buffer.
// REQUIRES: dst has at least 4 bytes.
func EncodeFixed32BE(dst []byte, value uint32) {
	binary.BigEndian.PutUint32(dst, value)
}

// DecodeFixed32BE decodes a uint32 from a 4-byte big-endian buffer.
// REQUIRES: src has at least 4 bytes.
func DecodeFixed32BE(src []byte) uint32 {
	return binary.BigEndian.Uint32(src)
}

// AppendFixed32BE appends a big-endian uint32 to dst and returns the
// extended slice.
func AppendFixed32BE(dst []byte, value uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, value)
}

// EncodeFixed64BE encodes a uint64 into an 8-byte big-endian buffer. The
// timestamp suffix appended to every internal key and the key-count/
// max-version fields in the table index use this layout.
// REQUIRES: dst has at least 8 bytes.
func EncodeFixed64BE(dst []byte, value uint64) {
	binary.BigEndian.PutUint64(dst, value)
}

// DecodeFixed64BE decodes a uint64 from an 8-byte big-endian buffer.
// REQUIRES: src has at least 8 bytes.
func DecodeFixed64BE(src []byte) uint64 {
	return binary.BigEndian.Uint64(src)
}

// AppendFixed64BE appends a big-endian uint64 to dst and returns the
// extended slice.
func AppendFixed64BE(dst []byte, value uint64) []byte {
	return binary.BigEndian.AppendUint64(dst, value)
}

// -----------------------------------------------------------------------------
// Variable-length integers (7-bit, MSB continuation)
//
// Block handles (offset, length) and length prefixes (base keys, the Bloom
// filter blob, WAL-adjacent slices) are varint-encoded: most of these values
// are small relative to their maximum range, and a varint costs one byte per
// 7 bits of magnitude instead of a fixed 4 or 8.
// -----------------------------------------------------------------------------

// EncodeVarint32 encodes a uint32 as a varint into dst and returns the
// number of bytes written.
// REQUIRES: dst has at least MaxVarint32Length bytes.
func EncodeVarint32(dst []byte, value uint32) int {
	const B = 128
	i := 0
	for value >= B {
		dst[i] = byte(value&(B-1)) | B
		value >>= 7
		i++
	}
	dst[i] = byte(value)
	return i + 1
}

// AppendVarint32 appends a uint32 as a varint to dst and returns the
// extended slice.
func AppendVarint32(dst []byte, value uint32) []byte {
	var buf [MaxVarint32Length]byte
	n := EncodeVarint32(buf[:], value)
	return append(dst, buf[:n]...)
}

// DecodeVarint32 decodes a varint32 from the front of src, returning the
// decoded value and the number of bytes consumed.
func DecodeVarint32(src []byte) (value uint32, bytesRead int, err error) {
	var result uint32
	for shift := uint(0); shift < 32; shift += 7 {
		if bytesRead >= len(src) {
			return 0, 0, ErrVarintTermination
		}
		b := src[bytesRead]
		bytesRead++
		if b < 128 {
			result |= uint32(b) << shift
			return result, bytesRead, nil
		}
		result |= uint32(b&0x7f) << shift
	}
	return 0, 0, ErrVarintOverflow
}

// EncodeVarint64 encodes a uint64 as a varint into dst and returns the
// number of bytes written. Used for block handle offsets and lengths, which
// can run past the 32-bit range in a large table.
// REQUIRES: dst has at least MaxVarint64Length bytes.
func EncodeVarint64(dst []byte, value uint64) int {
	const B = 128
	i := 0
	for value >= B {
		dst[i] = byte(value&(B-1)) | B
		value >>= 7
		i++
	}
	dst[i] = byte(value)
	return i + 1
}

// AppendVarint64 appends a uint64 as a varint to dst and returns the
// extended slice. block.Handle.EncodeTo uses this for both its offset and
// length fields.
func AppendVarint64(dst []byte, value uint64) []byte {
	var buf [MaxVarint64Length]byte
	n := EncodeVarint64(buf[:], value)
	return append(dst, buf[:n]...)
}

// PutVarint64 encodes a uint64 as a varint into dst and returns the number
// of bytes written. Equivalent to EncodeVarint64; kept as a separate name
// for call sites that read more naturally as "put" than "encode".
// REQUIRES: dst has at least MaxVarint64Length bytes.
func PutVarint64(dst []byte, value uint64) int {
	return EncodeVarint64(dst, value)
}

// DecodeVarint64 decodes a varint64 from the front of src, returning the
// decoded value and the number of bytes consumed. block.DecodeHandle uses
// this to recover a Handle's offset and length.
func DecodeVarint64(src []byte) (value uint64, bytesRead int, err error) {
	var result uint64
	for shift := uint(0); shift < 64; shift += 7 {
		if bytesRead >= len(src) {
			return 0, 0, ErrVarintTermination
		}
		b := src[bytesRead]
		bytesRead++
		if b < 128 {
			result |= uint64(b) << shift
			return result, bytesRead, nil
		}
		result |= uint64(b&0x7f) << shift
	}
	return 0, 0, ErrVarintOverflow
}

// VarintLength returns the number of bytes needed to encode v as a varint.
// block.Handle.EncodedLength uses this to size an index buffer up front.
func VarintLength(v uint64) int {
	length := 1
	for v >= 128 {
		v >>= 7
		length++
	}
	return length
}

// -----------------------------------------------------------------------------
// Signed varint (zigzag)
// -----------------------------------------------------------------------------

// I64ToZigzag converts a signed int64 to an unsigned uint64 using zigzag
// encoding, so that small-magnitude negative numbers still encode as short
// varints.
func I64ToZigzag(v int64) uint64 {
	return (uint64(v) << 1) ^ uint64(v>>63)
}

// ZigzagToI64 converts a zigzag-encoded uint64 back to a signed int64.
func ZigzagToI64(n uint64) int64 {
	return int64(n>>1) ^ -int64(n&1)
}

// AppendVarsignedint64 appends a signed int64 using zigzag + varint
// encoding.
func AppendVarsignedint64(dst []byte, v int64) []byte {
	return AppendVarint64(dst, I64ToZigzag(v))
}

// DecodeVarsignedint64 decodes a zigzag-encoded varint64 as a signed int64.
func DecodeVarsignedint64(src []byte) (value int64, bytesRead int, err error) {
	u, n, err := DecodeVarint64(src)
	if err != nil {
		return 0, 0, err
	}
	return ZigzagToI64(u), n, nil
}

// -----------------------------------------------------------------------------
// Length-prefixed slices
//
// block.Handle's base key, and the table index's Bloom filter blob, are
// both a varint32 length followed by that many raw bytes.
// -----------------------------------------------------------------------------

// AppendLengthPrefixedSlice appends a length-prefixed slice to dst. Format:
// [varint32 length][bytes].
func AppendLengthPrefixedSlice(dst []byte, value []byte) []byte {
	dst = AppendVarint32(dst, uint32(len(value)))
	return append(dst, value...)
}

// DecodeLengthPrefixedSlice decodes a length-prefixed slice from the front
// of src. The returned slice aliases src; callers that need to retain it
// past src's lifetime must copy it themselves (block.DecodeHandle does this
// for the base key, since src may be a view into a reused index buffer).
func DecodeLengthPrefixedSlice(src []byte) (value []byte, bytesRead int, err error) {
	length, n, err := DecodeVarint32(src)
	if err != nil {
		return nil, 0, err
	}
	bytesRead = n
	if bytesRead+int(length) > len(src) {
		return nil, 0, ErrBufferTooSmall
	}
	value = src[bytesRead : bytesRead+int(length)]
	bytesRead += int(length)
	return value, bytesRead, nil
}

// -----------------------------------------------------------------------------
// Generic fixed-width codec — little-endian
//
// Plain little-endian fixed-width helpers for callers that aren't dealing
// with on-disk framing fields and just want the machine-native width
// (nothing in the table/WAL wire format routes through these; they exist
// for general byte-buffer work alongside the big-endian framing codec
// above).
// -----------------------------------------------------------------------------

// EncodeFixed16 encodes a uint16 into a 2-byte little-endian buffer.
// REQUIRES: dst has at least 2 bytes.
func EncodeFixed16(dst []byte, value uint16) {
	binary.LittleEndian.PutUint16(dst, value)
}

// DecodeFixed16 decodes a uint16 from a 2-byte little-endian buffer.
// REQUIRES: src has at least 2 bytes.
func DecodeFixed16(src []byte) uint16 {
	return binary.LittleEndian.Uint16(src)
}

// AppendFixed16 appends a little-endian uint16 to dst and returns the
// extended slice.
func AppendFixed16(dst []byte, value uint16) []byte {
	return binary.LittleEndian.AppendUint16(dst, value)
}

// EncodeFixed32 encodes a uint32 into a 4-byte little-endian buffer.
// REQUIRES: dst has at least 4 bytes.
func EncodeFixed32(dst []byte, value uint32) {
	binary.LittleEndian.PutUint32(dst, value)
}

// DecodeFixed32 decodes a uint32 from a 4-byte little-endian buffer.
// REQUIRES: src has at least 4 bytes.
func DecodeFixed32(src []byte) uint32 {
	return binary.LittleEndian.Uint32(src)
}

// AppendFixed32 appends a little-endian uint32 to dst and returns the
// extended slice.
func AppendFixed32(dst []byte, value uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, value)
}

// EncodeFixed64 encodes a uint64 into an 8-byte little-endian buffer.
// REQUIRES: dst has at least 8 bytes.
func EncodeFixed64(dst []byte, value uint64) {
	binary.LittleEndian.PutUint64(dst, value)
}

// DecodeFixed64 decodes a uint64 from an 8-byte little-endian buffer.
// REQUIRES: src has at least 8 bytes.
func DecodeFixed64(src []byte) uint64 {
	return binary.LittleEndian.Uint64(src)
}

// AppendFixed64 appends a little-endian uint64 to dst and returns the
// extended slice.
func AppendFixed64(dst []byte, value uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, value)
}

// -----------------------------------------------------------------------------
// Slice: a read cursor over an already-framed buffer
// -----------------------------------------------------------------------------

// Slice is a sequential read cursor over a byte buffer. It underlies
// whatever parsing a caller wants to do over bytes it has already carved
// out of a table or WAL record, once the big-endian framing fields that
// located that record have already been consumed.
type Slice struct {
	data []byte
	pos  int
}

// NewSlice creates a new Slice positioned at the start of data.
func NewSlice(data []byte) *Slice {
	return &Slice{data: data, pos: 0}
}

// Remaining returns the number of bytes remaining.
func (s *Slice) Remaining() int {
	return len(s.data) - s.pos
}

// Data returns the remaining, unconsumed data.
func (s *Slice) Data() []byte {
	return s.data[s.pos:]
}

// Advance moves the cursor forward by n bytes.
func (s *Slice) Advance(n int) {
	s.pos += n
}

// GetFixed16 reads a little-endian uint16.
func (s *Slice) GetFixed16() (uint16, bool) {
	if s.Remaining() < 2 {
		return 0, false
	}
	v := DecodeFixed16(s.data[s.pos:])
	s.pos += 2
	return v, true
}

// GetFixed32 reads a little-endian uint32.
func (s *Slice) GetFixed32() (uint32, bool) {
	if s.Remaining() < 4 {
		return 0, false
	}
	v := DecodeFixed32(s.data[s.pos:])
	s.pos += 4
	return v, true
}

// GetFixed64 reads a little-endian uint64.
func (s *Slice) GetFixed64() (uint64, bool) {
	if s.Remaining() < 8 {
		return 0, false
	}
	v := DecodeFixed64(s.data[s.pos:])
	s.pos += 8
	return v, true
}

// GetVarint32 reads a varint32.
func (s *Slice) GetVarint32() (uint32, bool) {
	v, n, err := DecodeVarint32(s.data[s.pos:])
	if err != nil {
		return 0, false
	}
	s.pos += n
	return v, true
}

// GetVarint64 reads a varint64.
func (s *Slice) GetVarint64() (uint64, bool) {
	v, n, err := DecodeVarint64(s.data[s.pos:])
	if err != nil {
		return 0, false
	}
	s.pos += n
	return v, true
}

// GetVarsignedint64 reads a zigzag-encoded signed int64.
func (s *Slice) GetVarsignedint64() (int64, bool) {
	v, n, err := DecodeVarsignedint64(s.data[s.pos:])
	if err != nil {
		return 0, false
	}
	s.pos += n
	return v, true
}

// GetLengthPrefixedSlice reads a length-prefixed slice.
func (s *Slice) GetLengthPrefixedSlice() ([]byte, bool) {
	v, n, err := DecodeLengthPrefixedSlice(s.data[s.pos:])
	if err != nil {
		return nil, false
	}
	s.pos += n
	return v, true
}

// GetBytes reads exactly n bytes.
func (s *Slice) GetBytes(n int) ([]byte, bool) {
	if s.Remaining() < n {
		return nil, false
	}
	v := s.data[s.pos : s.pos+n]
	s.pos += n
	return v, true
}
