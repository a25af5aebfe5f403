package table

import (
	"github.com/aalhour/sstkv/internal/checksum"
	"github.com/aalhour/sstkv/internal/compression"
)

// defaultBlockSize is the block size used when Options.BlockSize is left at
// its zero value.
const defaultBlockSize = 4096

// Options configures a Builder and is carried onto the Table opened from its
// output.
type Options struct {
	// BlockSize is the target, uncompressed size of a data block in bytes.
	// A value of 0 is treated as 4 KiB.
	BlockSize int

	// BloomFalsePositiveRate is the target false-positive rate for the
	// table's Bloom filter, in (0, 1). A value of 0 disables the filter.
	BloomFalsePositiveRate float64

	// TableSize is an advisory ceiling, in bytes, on the size of the table
	// a Builder produces. The builder itself never splits output into
	// multiple tables; callers use this to decide when to roll over to a
	// new Builder.
	TableSize uint64

	// Compression selects the codec applied to each finished, checksummed
	// block before it is written to the table buffer.
	Compression compression.Type

	// ChecksumType selects the algorithm used for both block checksums and
	// the table index checksum.
	ChecksumType checksum.Type
}

// DefaultOptions returns the options used by the test suite and by callers
// that have no specific tuning requirements.
func DefaultOptions() Options {
	return Options{
		BlockSize:              defaultBlockSize,
		BloomFalsePositiveRate: 0.01,
		TableSize:              64 << 20,
		Compression:            compression.NoCompression,
		ChecksumType:           checksum.TypeCRC32C,
	}
}

// withDefaults returns a copy of o with zero-valued fields replaced by their
// defaults.
func (o Options) withDefaults() Options {
	if o.BlockSize <= 0 {
		o.BlockSize = defaultBlockSize
	}
	if o.ChecksumType == 0 {
		o.ChecksumType = checksum.TypeCRC32C
	}
	return o
}
