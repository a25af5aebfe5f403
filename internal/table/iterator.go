package table

import "github.com/aalhour/sstkv/internal/block"

// IterOptions controls an Iterator's caching and direction behavior.
type IterOptions struct {
	// NoCache, when set, skips inserting blocks touched by this iterator
	// into the table's block cache. Lookups always consult the cache
	// regardless of this flag.
	NoCache bool

	// Reversed makes Rewind land on the last entry instead of the first.
	// Next and Prev are not affected: Next always moves toward larger keys
	// and Prev toward smaller ones.
	Reversed bool
}

// Iterator is a bidirectional cursor over a Table: a block-level
// sub-iterator plus a table-level block selector. It never flattens the
// table into one global index; the block boundary is always preserved.
type Iterator struct {
	table    *Table
	opts     IterOptions
	blockIdx int
	blockIt  *block.Iterator
	err      error
}

// NewIterator returns an iterator over t, not yet positioned at any entry.
func NewIterator(t *Table, opts IterOptions) *Iterator {
	return &Iterator{table: t, opts: opts, blockIdx: -1}
}

// Valid reports whether the iterator is positioned at an entry.
func (it *Iterator) Valid() bool {
	return it.err == nil && it.blockIt != nil && it.blockIt.Valid()
}

// Error returns the last error the iterator encountered. Once set, the
// iterator stays Invalid and further navigation does not retry.
func (it *Iterator) Error() error {
	return it.err
}

// Key returns the current entry's internal key.
// REQUIRES: Valid()
func (it *Iterator) Key() []byte {
	return it.blockIt.Key()
}

// Value returns the current entry's value.
// REQUIRES: Valid()
func (it *Iterator) Value() block.Value {
	return it.blockIt.Value()
}

// loadBlock loads block i and positions blockIt on it, without yet seeking
// within it.
func (it *Iterator) loadBlock(i int) bool {
	if it.err != nil {
		return false
	}
	if i < 0 || i >= it.table.OffsetsLength() {
		it.blockIt = nil
		it.blockIdx = i
		return false
	}
	if i == it.blockIdx && it.blockIt != nil {
		return true
	}
	b, err := it.table.Block(i, !it.opts.NoCache)
	if err != nil {
		it.err = err
		it.blockIt = nil
		return false
	}
	it.blockIdx = i
	it.blockIt = block.NewIterator(b)
	return true
}

// Rewind resets the iterator to the direction it was constructed with: the
// first entry in forward mode, the last entry in reversed mode.
func (it *Iterator) Rewind() {
	if it.opts.Reversed {
		it.SeekToLast()
	} else {
		it.SeekToFirst()
	}
}

// SeekToFirst positions the iterator at the table's first entry.
func (it *Iterator) SeekToFirst() {
	if !it.loadBlock(0) {
		return
	}
	it.blockIt.SeekToFirst()
}

// SeekToLast positions the iterator at the table's last entry.
func (it *Iterator) SeekToLast() {
	if !it.loadBlock(it.table.OffsetsLength() - 1) {
		return
	}
	it.blockIt.SeekToLast()
}

// Next advances to the following entry, crossing a block boundary if
// necessary.
// REQUIRES: Valid()
func (it *Iterator) Next() {
	if it.err != nil {
		return
	}
	it.blockIt.Next()
	if it.blockIt.Valid() {
		return
	}
	if it.blockIt.Error() != nil {
		it.err = it.blockIt.Error()
		return
	}
	if !it.loadBlock(it.blockIdx + 1) {
		return
	}
	it.blockIt.SeekToFirst()
}

// Prev moves to the preceding entry, crossing a block boundary if
// necessary.
// REQUIRES: Valid()
func (it *Iterator) Prev() {
	if it.err != nil {
		return
	}
	it.blockIt.Prev()
	if it.blockIt.Valid() {
		return
	}
	if it.blockIt.Error() != nil {
		it.err = it.blockIt.Error()
		return
	}
	if !it.loadBlock(it.blockIdx - 1) {
		return
	}
	it.blockIt.SeekToLast()
}

// Seek positions the iterator at the first entry whose key is >= target.
// It binary-searches the table's block base keys for the greatest block
// whose base key is <= target, then seeks within that block; if the seek
// runs past the end of that block, it advances to the next one.
func (it *Iterator) Seek(target []byte) {
	if it.err != nil {
		return
	}
	bi := it.table.findBlock(target)
	if !it.loadBlock(bi) {
		return
	}
	it.blockIt.Seek(target)
	if it.blockIt.Error() != nil {
		it.err = it.blockIt.Error()
		return
	}
	if it.blockIt.Valid() {
		return
	}
	if !it.loadBlock(bi + 1) {
		return
	}
	it.blockIt.SeekToFirst()
}

// SeekForPrev positions the iterator at the last entry whose key is <=
// target.
func (it *Iterator) SeekForPrev(target []byte) {
	if it.err != nil {
		return
	}
	bi := it.table.findBlock(target)
	if !it.loadBlock(bi) {
		return
	}
	it.blockIt.SeekForPrev(target)
	if it.blockIt.Error() != nil {
		it.err = it.blockIt.Error()
		return
	}
	if it.blockIt.Valid() {
		return
	}
	if !it.loadBlock(bi - 1) {
		return
	}
	it.blockIt.SeekToLast()
}
