package table

import (
	"encoding/binary"
	"errors"

	"github.com/aalhour/sstkv/internal/block"
	"github.com/aalhour/sstkv/internal/encoding"
)

// ErrCorruptIndex is returned when a table's serialized index cannot be
// parsed, or its checksum does not match.
var ErrCorruptIndex = errors.New("table: corrupt index")

// index is the table's directory: the ordered block handles plus the
// aggregate metadata carried alongside them. It is serialized once by
// Builder.Finish and parsed once by Open.
type index struct {
	blocks      []block.Handle
	keyCount    uint64
	maxVersion  uint64
	bloomFilter []byte
}

// encode serializes idx. Layout: block count (BE u32), each block's handle
// (varint offset, varint length, length-prefixed base key), key_count
// (BE u64), max_version (BE u64), then the Bloom filter as a
// length-prefixed blob (zero length means absent).
func (idx index) encode() []byte {
	out := make([]byte, 0, 64+len(idx.blocks)*32+len(idx.bloomFilter))
	out = binary.BigEndian.AppendUint32(out, uint32(len(idx.blocks)))
	for _, h := range idx.blocks {
		out = h.EncodeTo(out)
	}
	out = binary.BigEndian.AppendUint64(out, idx.keyCount)
	out = binary.BigEndian.AppendUint64(out, idx.maxVersion)
	out = encoding.AppendLengthPrefixedSlice(out, idx.bloomFilter)
	return out
}

// decodeIndex parses the bytes produced by index.encode.
func decodeIndex(data []byte) (index, error) {
	if len(data) < 4 {
		return index{}, ErrCorruptIndex
	}
	numBlocks := binary.BigEndian.Uint32(data[:4])
	data = data[4:]

	blocks := make([]block.Handle, numBlocks)
	for i := range blocks {
		h, rest, err := block.DecodeHandle(data)
		if err != nil {
			return index{}, ErrCorruptIndex
		}
		blocks[i] = h
		data = rest
	}

	if len(data) < 16 {
		return index{}, ErrCorruptIndex
	}
	keyCount := binary.BigEndian.Uint64(data[:8])
	maxVersion := binary.BigEndian.Uint64(data[8:16])
	data = data[16:]

	bloomFilter, _, err := encoding.DecodeLengthPrefixedSlice(data)
	if err != nil {
		return index{}, ErrCorruptIndex
	}

	return index{
		blocks:      blocks,
		keyCount:    keyCount,
		maxVersion:  maxVersion,
		bloomFilter: bloomFilter,
	}, nil
}
