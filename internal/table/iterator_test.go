package table

import (
	"testing"

	"github.com/aalhour/sstkv/internal/block"
	"github.com/aalhour/sstkv/internal/cache"
	"github.com/aalhour/sstkv/internal/ikey"
)

func TestIteratorRewindForward(t *testing.T) {
	keys := []string{"a", "b", "c", "d"}
	tbl, _ := buildTable(t, smallOpts(), keys)

	it := NewIterator(tbl, IterOptions{})
	it.Rewind()
	if !it.Valid() || string(ikey.UserKey(it.Key())) != "a" {
		t.Fatalf("Rewind() in forward mode should land on the first key")
	}
}

func TestIteratorRewindReversed(t *testing.T) {
	keys := []string{"a", "b", "c", "d"}
	tbl, _ := buildTable(t, smallOpts(), keys)

	it := NewIterator(tbl, IterOptions{Reversed: true})
	it.Rewind()
	if !it.Valid() || string(ikey.UserKey(it.Key())) != "d" {
		t.Fatalf("Rewind() in reversed mode should land on the last key")
	}
}

func TestIteratorSeekPastEnd(t *testing.T) {
	keys := []string{"a", "b", "c"}
	tbl, _ := buildTable(t, smallOpts(), keys)

	it := NewIterator(tbl, IterOptions{})
	it.Seek(ikey.KeyWithTS([]byte("z"), 0))
	if it.Valid() {
		t.Fatalf("Seek() past every key should be invalid, got key %q", it.Key())
	}
	if it.Error() != nil {
		t.Fatalf("Error() = %v, want nil", it.Error())
	}
}

func TestIteratorSeekForPrevBeforeStart(t *testing.T) {
	keys := []string{"b", "c", "d"}
	tbl, _ := buildTable(t, smallOpts(), keys)

	it := NewIterator(tbl, IterOptions{})
	it.SeekForPrev(ikey.KeyWithTS([]byte("a"), 0))
	if it.Valid() {
		t.Fatalf("SeekForPrev() before every key should be invalid, got key %q", it.Key())
	}
}

func TestIteratorNoCacheOptionSkipsInsertion(t *testing.T) {
	lru := cache.NewLRUCache(1 << 20)
	opts := smallOpts()
	b := NewBuilder(opts)
	for _, k := range []string{"a", "b", "c"} {
		if err := b.Add(ikey.KeyWithTS([]byte(k), 1), block.EncodeValue(block.Value{Value: []byte(k)})); err != nil {
			t.Fatalf("Add(%q): %v", k, err)
		}
	}
	data, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	tbl, err := OpenInMemory(data, 3, opts, lru)
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}

	it := NewIterator(tbl, IterOptions{NoCache: true})
	it.SeekToFirst()
	for ; it.Valid(); it.Next() {
	}
	if it.Error() != nil {
		t.Fatalf("Error() = %v", it.Error())
	}
	for i := 0; i < tbl.OffsetsLength(); i++ {
		if h := lru.Lookup(cache.CacheKey{TableID: 3, BlockIndex: uint64(i)}); h != nil {
			lru.Release(h)
			t.Fatalf("NoCache iterator must not populate the block cache")
		}
	}
}

func TestIteratorSurvivesSingleBlockTable(t *testing.T) {
	keys := []string{"only"}
	tbl, _ := buildTable(t, DefaultOptions(), keys)

	it := NewIterator(tbl, IterOptions{})
	it.SeekToFirst()
	if !it.Valid() {
		t.Fatalf("expected the single entry to be valid")
	}
	it.Next()
	if it.Valid() {
		t.Fatalf("Next() past the only entry should be invalid")
	}
}
