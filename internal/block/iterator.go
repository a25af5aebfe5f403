package block

import "github.com/aalhour/sstkv/internal/ikey"

// Iterator is a bidirectional cursor over one Block's entries. It decodes
// entries on demand; it never materializes the whole block as a slice of
// entries.
type Iterator struct {
	block *Block
	pos   int // current entry index, or -1 / NumEntries() when invalid
	key   []byte
	value Value
	err   error
}

// NewIterator returns an iterator positioned before the first entry of b.
func NewIterator(b *Block) *Iterator {
	return &Iterator{block: b, pos: -1}
}

// Valid reports whether the iterator is positioned at an entry.
func (it *Iterator) Valid() bool {
	return it.err == nil && it.pos >= 0 && it.pos < it.block.NumEntries()
}

// Error returns the first decode error the iterator encountered, if any.
func (it *Iterator) Error() error {
	return it.err
}

// Key returns the current entry's reconstructed internal key.
// REQUIRES: Valid()
func (it *Iterator) Key() []byte {
	return it.key
}

// Value returns the current entry's value.
// REQUIRES: Valid()
func (it *Iterator) Value() Value {
	return it.value
}

// SeekToFirst positions the iterator at entry 0.
func (it *Iterator) SeekToFirst() {
	it.seekToIndex(0)
}

// SeekToLast positions the iterator at the last entry.
func (it *Iterator) SeekToLast() {
	it.seekToIndex(it.block.NumEntries() - 1)
}

// Next advances to the following entry.
// REQUIRES: Valid()
func (it *Iterator) Next() {
	it.seekToIndex(it.pos + 1)
}

// Prev moves to the preceding entry.
// REQUIRES: Valid()
func (it *Iterator) Prev() {
	it.seekToIndex(it.pos - 1)
}

func (it *Iterator) seekToIndex(i int) {
	if it.err != nil {
		return
	}
	if i < 0 || i >= it.block.NumEntries() {
		it.pos = i
		it.key = nil
		it.value = Value{}
		return
	}
	key, value, err := it.block.Entry(i)
	if err != nil {
		it.err = err
		it.pos = it.block.NumEntries()
		return
	}
	it.pos = i
	it.key = key
	it.value = value
}

// Seek positions the iterator at the first entry whose key is >= target,
// using binary search over the block's entries (valid because they are
// stored in non-decreasing internal-key order).
func (it *Iterator) Seek(target []byte) {
	if it.err != nil {
		return
	}
	n := it.block.NumEntries()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		key, _, err := it.block.Entry(mid)
		if err != nil {
			it.err = err
			it.pos = n
			return
		}
		if ikey.Compare(key, target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	it.seekToIndex(lo)
}

// SeekForPrev positions the iterator at the last entry whose key is <=
// target, or invalidates it if every entry is greater.
func (it *Iterator) SeekForPrev(target []byte) {
	it.Seek(target)
	if it.err != nil {
		return
	}
	if !it.Valid() || ikey.Compare(it.key, target) > 0 {
		it.Prev()
	}
}
