// Package checksum provides the checksum algorithms used to protect SST
// blocks and the table index against on-disk corruption.
package checksum

import "github.com/zeebo/xxh3"

// Type identifies a checksum algorithm. It is the tag stored alongside the
// digest in every serialized checksum message, so a reader always knows how
// to verify what a writer produced.
type Type uint8

const (
	// TypeCRC32C is CRC32 with the Castagnoli polynomial. Every conforming
	// implementation must support at least this algorithm.
	TypeCRC32C Type = 1
	// TypeXXH3 is the 64-bit XXH3 hash, truncated to its low 32 bits.
	TypeXXH3 Type = 4
)

func (t Type) String() string {
	switch t {
	case TypeCRC32C:
		return "CRC32C"
	case TypeXXH3:
		return "XXH3"
	default:
		return "Unknown"
	}
}

// Compute returns the digest of data under the given algorithm.
func Compute(t Type, data []byte) uint32 {
	if t == TypeXXH3 {
		return uint32(xxh3.Hash(data))
	}
	return MaskedValue(data)
}

// Verify reports whether digest is the correct checksum of data under t.
func Verify(t Type, data []byte, digest uint32) bool {
	return Compute(t, data) == digest
}
