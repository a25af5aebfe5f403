// Package block implements the in-memory representation of one decoded SST
// block: its builder, its parsed view, and the Value codec carried by every
// entry inside it.
//
// A block lays out entries first, then an offsets array, then a tail of
// framing fields read back to front: entry count, checksum bytes, checksum
// length. Every entry after the first is stored relative to the block's
// base key (the first entry's key) rather than to its immediate
// predecessor, so decoding any single entry never depends on the ones
// before it.
package block

import (
	"encoding/binary"

	"github.com/aalhour/sstkv/internal/checksum"
	"github.com/aalhour/sstkv/internal/encoding"
)

// offsetFieldLen is the size, in bytes, of one entry_offsets element and of
// the n and chksum_len framing fields.
const offsetFieldLen = 4

// overlapFieldLen is the size, in bytes, of the overlap_len/diff_len fields
// that prefix every entry.
const overlapFieldLen = 2

// Block is a parsed, read-only view over one block's bytes. It does not
// copy the entries region; callers must keep the backing slice alive for
// the block's lifetime.
type Block struct {
	data           []byte
	entryOffsets   []uint32
	checksumType   checksum.Type
	checksumDigest uint32
	entriesEnd     int // byte offset where the entries region ends (== offsets array start)
	baseKey        []byte
}

// Parse reads a block from data, which must be exactly the bytes written by
// Builder.Finish for one block (entries ‖ offsets ‖ n ‖ chksum ‖ chksum_len).
func Parse(data []byte) (*Block, error) {
	if len(data) < offsetFieldLen*2 {
		return nil, ErrBadBlock
	}

	tail := data
	chksumLen := binary.BigEndian.Uint32(tail[len(tail)-offsetFieldLen:])
	tail = tail[:len(tail)-offsetFieldLen]

	if int(chksumLen) > len(tail) || chksumLen < 1 {
		return nil, ErrBadBlock
	}
	chksumBytes := tail[len(tail)-int(chksumLen):]
	tail = tail[:len(tail)-int(chksumLen)]
	cksType, digest, err := DecodeChecksumMessage(chksumBytes)
	if err != nil {
		return nil, err
	}

	if len(tail) < offsetFieldLen {
		return nil, ErrBadBlock
	}
	n := binary.BigEndian.Uint32(tail[len(tail)-offsetFieldLen:])
	tail = tail[:len(tail)-offsetFieldLen]

	offsetsBytes := int(n) * offsetFieldLen
	if offsetsBytes < 0 || offsetsBytes > len(tail) {
		return nil, ErrBadBlock
	}
	offsetsStart := len(tail) - offsetsBytes
	offsets := make([]uint32, n)
	for i := range offsets {
		off := offsetsStart + i*offsetFieldLen
		offsets[i] = binary.LittleEndian.Uint32(tail[off : off+offsetFieldLen])
	}

	entriesEnd := offsetsStart
	if n > 0 && (offsets[0] != 0 || entriesEnd > len(data)) {
		return nil, ErrBadBlock
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] <= offsets[i-1] || int(offsets[i]) >= entriesEnd {
			return nil, ErrBadBlock
		}
	}

	b := &Block{
		data:           data,
		entryOffsets:   offsets,
		checksumType:   cksType,
		checksumDigest: digest,
		entriesEnd:     entriesEnd,
	}

	if n > 0 {
		key, _, _, err := b.decodeEntryAt(0, nil)
		if err != nil {
			return nil, err
		}
		b.baseKey = key
	}

	return b, nil
}

// VerifyChecksum recomputes the block's declared algorithm over the entries
// and offsets region and compares it against the stored digest.
func (b *Block) VerifyChecksum() error {
	covered := b.data[:b.entriesEnd+len(b.entryOffsets)*offsetFieldLen+offsetFieldLen]
	if !checksum.Verify(b.checksumType, covered, b.checksumDigest) {
		return ErrChecksumMismatch
	}
	return nil
}

// NumEntries returns the number of entries in the block.
func (b *Block) NumEntries() int {
	return len(b.entryOffsets)
}

// BaseKey returns the block's base key (entry 0's full key), or nil if the
// block is empty.
func (b *Block) BaseKey() []byte {
	return b.baseKey
}

// Size returns the total encoded size of the block in bytes.
func (b *Block) Size() int {
	return len(b.data)
}

// Entry decodes the i-th entry, returning its reconstructed full key and
// its value.
func (b *Block) Entry(i int) (key []byte, value Value, err error) {
	if i < 0 || i >= len(b.entryOffsets) {
		return nil, Value{}, ErrBadBlock
	}
	key, valueBytes, _, err := b.decodeEntryAt(i, b.baseKey)
	if err != nil {
		return nil, Value{}, err
	}
	value, err = DecodeValue(valueBytes)
	if err != nil {
		return nil, Value{}, err
	}
	return key, value, nil
}

// decodeEntryAt decodes entry i's key (against base, which may be nil when
// decoding entry 0 itself) and returns the key, the raw trailing value
// bytes, and the entry's end offset within b.data.
func (b *Block) decodeEntryAt(i int, base []byte) ([]byte, []byte, int, error) {
	start := int(b.entryOffsets[i])
	end := b.entriesEnd
	if i+1 < len(b.entryOffsets) {
		end = int(b.entryOffsets[i+1])
	}
	if start < 0 || end > len(b.data) || start+2*overlapFieldLen > end {
		return nil, nil, 0, ErrBadBlock
	}

	entry := b.data[start:end]
	overlap := binary.LittleEndian.Uint16(entry[0:2])
	diffLen := binary.LittleEndian.Uint16(entry[2:4])
	rest := entry[4:]
	if int(diffLen) > len(rest) {
		return nil, nil, 0, ErrBadBlock
	}
	diff := rest[:diffLen]
	valueBytes := rest[diffLen:]

	var key []byte
	if base == nil {
		if overlap != 0 {
			return nil, nil, 0, ErrBadBlock
		}
		key = diff
	} else {
		if int(overlap) > len(base) {
			return nil, nil, 0, ErrBadBlock
		}
		key = make([]byte, 0, int(overlap)+int(diffLen))
		key = append(key, base[:overlap]...)
		key = append(key, diff...)
	}

	return key, valueBytes, end, nil
}

// DecodeChecksumMessage splits a checksum message into its algorithm tag and
// digest. The wire format is a single byte tag followed by a big-endian
// 4-byte digest. Used for both block checksums and the table index
// checksum, which share this message format.
func DecodeChecksumMessage(data []byte) (checksum.Type, uint32, error) {
	if len(data) != 5 {
		return 0, 0, ErrBadBlock
	}
	return checksum.Type(data[0]), binary.BigEndian.Uint32(data[1:5]), nil
}

// EncodeChecksumMessage serializes a checksum message: 1-byte algorithm tag
// followed by a big-endian 4-byte digest.
func EncodeChecksumMessage(t checksum.Type, digest uint32) []byte {
	out := make([]byte, 5)
	out[0] = byte(t)
	binary.BigEndian.PutUint32(out[1:5], digest)
	return out
}

// Value is the record stored alongside every key: the raw value payload
// plus the small metadata fields the key-value engine attaches to it.
// Encoding is opaque beyond being length-delimited by the entry framing:
// meta(1) ‖ user_meta(1) ‖ version(8 BE) ‖ expires_at(8 BE) ‖ raw value bytes.
type Value struct {
	Value     []byte
	Meta      uint8
	UserMeta  uint8
	Version   uint64
	ExpiresAt uint64
}

const valueHeaderLen = 1 + 1 + 8 + 8

// EncodeValue serializes v.
func EncodeValue(v Value) []byte {
	out := make([]byte, 0, valueHeaderLen+len(v.Value))
	out = append(out, v.Meta, v.UserMeta)
	out = encoding.AppendFixed64BE(out, v.Version)
	out = encoding.AppendFixed64BE(out, v.ExpiresAt)
	out = append(out, v.Value...)
	return out
}

// DecodeValue parses a Value from data. The returned Value.Value aliases
// data; callers that retain it beyond the backing buffer's lifetime must
// copy it.
func DecodeValue(data []byte) (Value, error) {
	if len(data) < valueHeaderLen {
		return Value{}, ErrBadBlock
	}
	return Value{
		Meta:      data[0],
		UserMeta:  data[1],
		Version:   encoding.DecodeFixed64BE(data[2:10]),
		ExpiresAt: encoding.DecodeFixed64BE(data[10:18]),
		Value:     data[valueHeaderLen:],
	}, nil
}
