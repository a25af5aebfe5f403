package table

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/aalhour/sstkv/internal/block"
	"github.com/aalhour/sstkv/internal/cache"
	"github.com/aalhour/sstkv/internal/checksum"
	"github.com/aalhour/sstkv/internal/compression"
	"github.com/aalhour/sstkv/internal/encoding"
	"github.com/aalhour/sstkv/internal/filter"
)

var (
	// ErrInvalidFilename is returned when a table's on-disk name does not
	// match the "<u64-decimal>.sst" convention.
	ErrInvalidFilename = errors.New("table: invalid filename")

	// ErrEmptyTable is returned by Open/OpenInMemory when a table's index
	// describes zero blocks.
	ErrEmptyTable = errors.New("table: empty table")

	// ErrTableRead is returned when the backing store cannot satisfy a read
	// a table's own framing says should be possible.
	ErrTableRead = errors.New("table: short read")
)

// backing is the minimal random-access store a Table reads from: either an
// *os.File or an in-memory byte buffer.
type backing interface {
	io.ReaderAt
	Size() int64
	Close() error
}

type fileBacking struct {
	mu   sync.Mutex
	f    *os.File
	size int64
}

// ReadAt is safe for concurrent use: os.File.ReadAt is already pread-based
// and race-free on POSIX systems. The mutex here exists to make that
// contract explicit and to guard backing stores that are not inherently
// pread-safe, not to work around a real race in *os.File.
func (fb *fileBacking) ReadAt(p []byte, off int64) (int, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.f.ReadAt(p, off)
}

func (fb *fileBacking) Size() int64  { return fb.size }
func (fb *fileBacking) Close() error { return fb.f.Close() }

type memBacking struct {
	data []byte
}

func (mb *memBacking) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(mb.data)) {
		return 0, io.EOF
	}
	n := copy(p, mb.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (mb *memBacking) Size() int64 { return int64(len(mb.data)) }
func (mb *memBacking) Close() error { return nil }

// Table is an opened, immutable SST: its footer and index have been parsed
// and its smallest/biggest keys computed. It is safe for concurrent use by
// multiple readers.
type Table struct {
	id       uint64
	store    backing
	size     int64
	idx      index
	smallest []byte
	biggest  []byte

	opts         Options
	filterReader *filter.BloomFilterReader
	blockCache   cache.Cache
}

// Open opens the SST file at path. The filename must be "<id>.sst"; any
// other form fails with ErrInvalidFilename. blockCache may be nil (no
// caching), a *cache.LRUCache, or a *cache.ShardedLRUCache for reduced lock
// contention under concurrent readers — any of the three satisfies
// cache.Cache.
func Open(path string, opts Options, blockCache cache.Cache) (*Table, error) {
	id, err := parseFileID(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	fb := &fileBacking{f: f, size: stat.Size()}
	t, err := open(id, fb, opts, blockCache)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return t, nil
}

// OpenInMemory opens an SST already held in memory, identified by id.
func OpenInMemory(data []byte, id uint64, opts Options, blockCache cache.Cache) (*Table, error) {
	return open(id, &memBacking{data: data}, opts, blockCache)
}

// parseFileID validates that path's basename is "<u64-decimal>.sst" and
// returns the decoded id.
func parseFileID(path string) (uint64, error) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".sst") {
		return 0, ErrInvalidFilename
	}
	stem := strings.TrimSuffix(base, ".sst")
	id, err := strconv.ParseUint(stem, 10, 64)
	if err != nil {
		return 0, ErrInvalidFilename
	}
	return id, nil
}

func open(id uint64, store backing, opts Options, blockCache cache.Cache) (*Table, error) {
	opts = opts.withDefaults()
	size := store.Size()

	tail := make([]byte, min64(size, 4))
	if _, err := store.ReadAt(tail, size-int64(len(tail))); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: reading footer: %v", ErrTableRead, err)
	}
	if len(tail) < 4 {
		return nil, ErrCorruptIndex
	}
	chksumLen := binary.BigEndian.Uint32(tail)

	if int64(chksumLen) > size-4 {
		return nil, ErrCorruptIndex
	}
	chksumBytes := make([]byte, chksumLen)
	if _, err := store.ReadAt(chksumBytes, size-4-int64(chksumLen)); err != nil {
		return nil, fmt.Errorf("%w: reading index checksum: %v", ErrTableRead, err)
	}
	cksType, digest, err := block.DecodeChecksumMessage(chksumBytes)
	if err != nil {
		return nil, ErrCorruptIndex
	}

	idxLenOff := size - 4 - int64(chksumLen) - 4
	if idxLenOff < 0 {
		return nil, ErrCorruptIndex
	}
	idxLenBytes := make([]byte, 4)
	if _, err := store.ReadAt(idxLenBytes, idxLenOff); err != nil {
		return nil, fmt.Errorf("%w: reading index length: %v", ErrTableRead, err)
	}
	idxLen := binary.BigEndian.Uint32(idxLenBytes)
	if int64(idxLen) > idxLenOff {
		return nil, ErrCorruptIndex
	}

	idxBytes := make([]byte, idxLen)
	if _, err := store.ReadAt(idxBytes, idxLenOff-int64(idxLen)); err != nil {
		return nil, fmt.Errorf("%w: reading index: %v", ErrTableRead, err)
	}

	if !checksum.Verify(cksType, idxBytes, digest) {
		return nil, ErrCorruptIndex
	}

	idx, err := decodeIndex(idxBytes)
	if err != nil {
		return nil, err
	}
	if len(idx.blocks) == 0 {
		return nil, ErrEmptyTable
	}

	t := &Table{
		id:         id,
		store:      store,
		size:       size,
		idx:        idx,
		opts:       opts,
		blockCache: blockCache,
	}
	if len(idx.bloomFilter) > 0 {
		t.filterReader = filter.NewBloomFilterReader(idx.bloomFilter)
	}

	t.smallest = idx.blocks[0].BaseKey

	lastBlock, err := t.Block(len(idx.blocks)-1, false)
	if err != nil {
		return nil, err
	}
	if lastBlock.NumEntries() == 0 {
		return nil, ErrEmptyTable
	}
	lastKey, _, err := lastBlock.Entry(lastBlock.NumEntries() - 1)
	if err != nil {
		return nil, err
	}
	t.biggest = lastKey

	return t, nil
}

// Block returns the i-th block, bounds-checked against OffsetsLength. When
// useCache is true and a block cache is configured, a miss is inserted into
// the cache; a hit is always served from it regardless of useCache.
func (t *Table) Block(i int, useCache bool) (*block.Block, error) {
	if i < 0 || i >= t.OffsetsLength() {
		return nil, ErrCorruptIndex
	}

	key := cache.CacheKey{TableID: t.id, BlockIndex: uint64(i)}
	if t.blockCache != nil {
		if h := t.blockCache.Lookup(key); h != nil {
			defer t.blockCache.Release(h)
			return block.Parse(h.Value())
		}
	}

	handle := t.idx.blocks[i]
	raw := make([]byte, handle.Length)
	if _, err := t.store.ReadAt(raw, int64(handle.Offset)); err != nil {
		return nil, fmt.Errorf("%w: reading block %d: %v", ErrTableRead, i, err)
	}

	uncompressedLen, n, err := encoding.DecodeVarint32(raw)
	if err != nil {
		return nil, ErrCorruptIndex
	}
	payload := raw[n:]

	var data []byte
	if t.opts.Compression == compression.NoCompression {
		data = payload
	} else {
		data, err = compression.DecompressWithSize(t.opts.Compression, payload, int(uncompressedLen))
		if err != nil {
			return nil, fmt.Errorf("%w: decompressing block %d: %v", ErrTableRead, i, err)
		}
	}

	if t.blockCache != nil && useCache {
		t.blockCache.Insert(key, data, uint64(len(data)))
	}

	return block.Parse(data)
}

// OffsetsLength returns the number of blocks in the table.
func (t *Table) OffsetsLength() int { return len(t.idx.blocks) }

// Smallest returns the smallest internal key in the table.
func (t *Table) Smallest() []byte { return t.smallest }

// Biggest returns the biggest internal key in the table.
func (t *Table) Biggest() []byte { return t.biggest }

// KeyCount returns the total number of entries recorded in the index.
func (t *Table) KeyCount() uint64 { return t.idx.keyCount }

// MaxVersion returns the maximum timestamp over all entries, computed at
// build time.
func (t *Table) MaxVersion() uint64 { return t.idx.maxVersion }

// Size returns the byte length of the finalized table stream.
func (t *Table) Size() int64 { return t.size }

// ID returns the table's numeric identifier.
func (t *Table) ID() uint64 { return t.id }

// MayContain reports whether key might be present, consulting the Bloom
// filter if one was built. In its absence, every key is reported as
// possibly present (the tolerant default spec.md requires).
func (t *Table) MayContain(userKey []byte) bool {
	if t.filterReader == nil {
		return true
	}
	return t.filterReader.MayContain(userKey)
}

// Close releases the table's backing store. It does not delete the file.
func (t *Table) Close() error {
	return t.store.Close()
}

// findBlock returns the index of the last block whose base key is <= key,
// or 0 if every block's base key is greater than key.
func (t *Table) findBlock(key []byte) int {
	lo, hi := 0, len(t.idx.blocks)
	for lo < hi {
		mid := (lo + hi) / 2
		if bytes.Compare(t.idx.blocks[mid].BaseKey, key) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return 0
	}
	return lo - 1
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
