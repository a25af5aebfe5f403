// builder.go implements block building with base-key prefix compression:
// every entry after the first is stored relative to the block's first key
// rather than to its immediate predecessor.
package block

import (
	"encoding/binary"
	"errors"

	"github.com/aalhour/sstkv/internal/checksum"
	"github.com/aalhour/sstkv/internal/ikey"
)

// ErrEntryOutOfOrder is returned by Add when the new key is strictly less
// than the previously added key.
var ErrEntryOutOfOrder = errors.New("block: out-of-order key")

// Builder assembles one block: entries are appended in non-decreasing key
// order and diffed against the block's base key (its first entry).
type Builder struct {
	buffer       []byte   // entries region
	entryOffsets []uint32 // offset of each entry within buffer
	baseKey      []byte
	lastKey      []byte
	checksumType checksum.Type
}

// NewBuilder creates a block builder that checksums its output with t.
func NewBuilder(t checksum.Type) *Builder {
	return &Builder{
		buffer:       make([]byte, 0, 4096),
		checksumType: t,
	}
}

// Reset clears the builder for reuse.
func (b *Builder) Reset() {
	b.buffer = b.buffer[:0]
	b.entryOffsets = b.entryOffsets[:0]
	b.baseKey = b.baseKey[:0]
	b.lastKey = b.lastKey[:0]
}

// Empty reports whether any entry has been added since the last Reset.
func (b *Builder) Empty() bool {
	return len(b.entryOffsets) == 0
}

// BaseKeySnapshot returns a copy of the current block's base key (the first
// key added since the last Reset), or nil if the block is empty.
func (b *Builder) BaseKeySnapshot() []byte {
	if b.Empty() {
		return nil
	}
	out := make([]byte, len(b.baseKey))
	copy(out, b.baseKey)
	return out
}

// Add appends one entry. key must be an internal key not strictly smaller
// than the previously added key; value is the already-encoded Value bytes
// (see EncodeValue).
func (b *Builder) Add(key, value []byte) error {
	if !b.Empty() && ikey.Compare(key, b.lastKey) < 0 {
		return ErrEntryOutOfOrder
	}

	overlap := 0
	if b.Empty() {
		b.baseKey = append(b.baseKey[:0], key...)
	} else {
		overlap = sharedPrefixLength(b.baseKey, key)
	}
	diff := key[overlap:]

	b.entryOffsets = append(b.entryOffsets, uint32(len(b.buffer)))

	var hdr [overlapFieldLen * 2]byte
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(overlap))
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(len(diff)))
	b.buffer = append(b.buffer, hdr[:]...)
	b.buffer = append(b.buffer, diff...)
	b.buffer = append(b.buffer, value...)

	b.lastKey = append(b.lastKey[:0], key...)
	return nil
}

// EstimatedSize returns the byte size the block would have if finished now.
func (b *Builder) EstimatedSize() int {
	return len(b.buffer) + len(b.entryOffsets)*offsetFieldLen + offsetFieldLen + checksumMessageLen + offsetFieldLen
}

// checksumMessageLen is the encoded length of a checksum message: a 1-byte
// algorithm tag plus a 4-byte digest.
const checksumMessageLen = 5

// Finish appends the offsets array, entry count, and checksum trailer, and
// returns the finished block bytes. The returned slice aliases the
// builder's internal buffer; callers that need it to outlive the next
// Reset must copy it.
func (b *Builder) Finish() []byte {
	for _, off := range b.entryOffsets {
		b.buffer = binary.LittleEndian.AppendUint32(b.buffer, off)
	}
	b.buffer = binary.BigEndian.AppendUint32(b.buffer, uint32(len(b.entryOffsets)))

	digest := checksum.Compute(b.checksumType, b.buffer)
	b.buffer = append(b.buffer, EncodeChecksumMessage(b.checksumType, digest)...)
	b.buffer = binary.BigEndian.AppendUint32(b.buffer, checksumMessageLen)

	return b.buffer
}

// sharedPrefixLength returns the length of the shared prefix between a and b.
func sharedPrefixLength(a, b []byte) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
