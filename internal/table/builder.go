// Package table implements the builder and reader halves of the SST file
// format: a Builder accepts internal keys in non-decreasing order and
// emits a finished byte stream, and a Table opens that stream (on disk or
// in memory) and answers block, metadata, and iterator queries against it.
package table

import (
	"errors"
	"math"

	"github.com/aalhour/sstkv/internal/block"
	"github.com/aalhour/sstkv/internal/checksum"
	"github.com/aalhour/sstkv/internal/compression"
	"github.com/aalhour/sstkv/internal/encoding"
	"github.com/aalhour/sstkv/internal/filter"
	"github.com/aalhour/sstkv/internal/ikey"
)

// ErrOutOfOrderKey is returned by Builder.Add when the new key is strictly
// less than the previously added key.
var ErrOutOfOrderKey = errors.New("table: out-of-order key")

// ErrBuilderFinished is returned by Add or Finish when called after Finish
// has already run once.
var ErrBuilderFinished = errors.New("table: builder already finished")

// Builder is a stateful, write-only assembler. It accepts entries in
// non-decreasing internal-key order, groups them into size-bounded blocks,
// accumulates a block index, and emits the final byte stream on Finish.
type Builder struct {
	opts Options

	buf          []byte
	curBlock     *block.Builder
	blockEntries []block.Handle

	filterBuilder *filter.BloomFilterBuilder

	lastKey    []byte
	keyCount   uint64
	maxVersion uint64
	finished   bool
}

// NewBuilder creates a Builder with the given options.
func NewBuilder(opts Options) *Builder {
	opts = opts.withDefaults()
	b := &Builder{
		opts:     opts,
		curBlock: block.NewBuilder(opts.ChecksumType),
	}
	if opts.BloomFalsePositiveRate > 0 {
		b.filterBuilder = filter.NewBloomFilterBuilder(bitsPerKeyForFalsePositiveRate(opts.BloomFalsePositiveRate))
	}
	return b
}

// bitsPerKeyForFalsePositiveRate converts a target false-positive rate into
// the bits-per-key parameter the underlying Bloom filter builder wants:
// bits_per_key ≈ -log2(p) / ln(2).
func bitsPerKeyForFalsePositiveRate(p float64) int {
	if p <= 0 || p >= 1 {
		return 10
	}
	bits := -math.Log2(p) / math.Ln2
	if bits < 1 {
		bits = 1
	}
	return int(math.Ceil(bits))
}

// Add accepts one entry. key is a full internal key; value is the
// already-encoded block.Value bytes. Keys must be non-decreasing; equal
// keys are permitted.
func (b *Builder) Add(key, value []byte) error {
	if b.finished {
		return ErrBuilderFinished
	}
	if b.keyCount > 0 && ikey.Compare(key, b.lastKey) < 0 {
		return ErrOutOfOrderKey
	}

	if err := b.curBlock.Add(key, value); err != nil {
		return err
	}

	if b.filterBuilder != nil {
		b.filterBuilder.AddInternalKey(key)
	}

	b.lastKey = append(b.lastKey[:0], key...)
	b.keyCount++
	if ts := ikey.GetTS(key); ts > b.maxVersion {
		b.maxVersion = ts
	}

	if b.curBlock.EstimatedSize() >= b.opts.BlockSize {
		b.finishBlock()
	}
	return nil
}

// finishBlock finalizes the current data block, compresses it, appends it
// to the table buffer, and records its handle.
func (b *Builder) finishBlock() {
	if b.curBlock.Empty() {
		return
	}
	baseKey := b.curBlock.BaseKeySnapshot()
	raw := b.curBlock.Finish()

	offset := uint64(len(b.buf))
	extent := b.writeCompressed(raw)

	b.blockEntries = append(b.blockEntries, block.Handle{
		Offset:  offset,
		Length:  uint64(extent),
		BaseKey: baseKey,
	})
	b.curBlock.Reset()
}

// writeCompressed compresses raw with the builder's codec (when
// configured), prefixes the result with a varint32 of the uncompressed
// length so the reader can decompress codecs that don't self-describe
// their output size, and appends it to b.buf. It returns the number of
// bytes appended.
func (b *Builder) writeCompressed(raw []byte) int {
	payload := raw
	if b.opts.Compression != compression.NoCompression {
		if compressed, err := compression.Compress(b.opts.Compression, raw); err == nil {
			payload = compressed
		}
	}
	start := len(b.buf)
	b.buf = encoding.AppendVarint32(b.buf, uint32(len(raw)))
	b.buf = append(b.buf, payload...)
	return len(b.buf) - start
}

// EstimatedSize returns the table's current size estimate: the buffer
// filled so far, the pending block's estimated size, and a flat 32 bytes
// per finished block for the not-yet-serialized index.
func (b *Builder) EstimatedSize() int {
	return len(b.buf) + b.curBlock.EstimatedSize() + len(b.blockEntries)*32
}

// Empty reports whether any entry has been added.
func (b *Builder) Empty() bool {
	return b.keyCount == 0
}

// Finish finalizes the table: flushes any pending block, serializes the
// index, appends its checksum and length framing, and returns the full
// byte stream. The Builder must not be reused afterward.
func (b *Builder) Finish() ([]byte, error) {
	if b.finished {
		return nil, ErrBuilderFinished
	}
	b.finished = true

	b.finishBlock()

	var bloomBytes []byte
	if b.filterBuilder != nil && b.filterBuilder.NumKeys() > 0 {
		bloomBytes = b.filterBuilder.Finish()
	}

	idx := index{
		blocks:      b.blockEntries,
		keyCount:    b.keyCount,
		maxVersion:  b.maxVersion,
		bloomFilter: bloomBytes,
	}
	idxBytes := idx.encode()
	b.buf = append(b.buf, idxBytes...)

	digest := checksum.Compute(b.opts.ChecksumType, idxBytes)
	chksumMsg := block.EncodeChecksumMessage(b.opts.ChecksumType, digest)

	b.buf = encoding.AppendFixed32BE(b.buf, uint32(len(idxBytes)))
	b.buf = append(b.buf, chksumMsg...)
	b.buf = encoding.AppendFixed32BE(b.buf, uint32(len(chksumMsg)))

	return b.buf, nil
}
