package block

import (
	"testing"

	"github.com/aalhour/sstkv/internal/checksum"
)

func buildTestBlock(t *testing.T, keys []string) *Block {
	t.Helper()
	b := NewBuilder(checksum.TypeCRC32C)
	for _, k := range keys {
		if err := b.Add([]byte(k), EncodeValue(Value{Value: []byte(k)})); err != nil {
			t.Fatalf("Add(%q): %v", k, err)
		}
	}
	blk, err := Parse(b.Finish())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return blk
}

func TestIteratorForwardTraversal(t *testing.T) {
	keys := []string{"a", "ab", "abc", "b", "ba"}
	blk := buildTestBlock(t, keys)

	it := NewIterator(blk)
	it.SeekToFirst()
	var got []string
	for ; it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
	}
	if it.Error() != nil {
		t.Fatalf("Error() = %v", it.Error())
	}
	if len(got) != len(keys) {
		t.Fatalf("got %v, want %v", got, keys)
	}
	for i := range keys {
		if got[i] != keys[i] {
			t.Fatalf("got[%d] = %q, want %q", i, got[i], keys[i])
		}
	}
}

func TestIteratorBackwardTraversal(t *testing.T) {
	keys := []string{"a", "ab", "abc", "b", "ba"}
	blk := buildTestBlock(t, keys)

	it := NewIterator(blk)
	it.SeekToLast()
	var got []string
	for ; it.Valid(); it.Prev() {
		got = append(got, string(it.Key()))
	}
	if len(got) != len(keys) {
		t.Fatalf("got %v, want reverse of %v", got, keys)
	}
	for i := range keys {
		if got[i] != keys[len(keys)-1-i] {
			t.Fatalf("got[%d] = %q, want %q", i, got[i], keys[len(keys)-1-i])
		}
	}
}

func TestIteratorSeek(t *testing.T) {
	keys := []string{"a", "ab", "abc", "b", "ba"}
	blk := buildTestBlock(t, keys)
	it := NewIterator(blk)

	it.Seek([]byte("abc"))
	if !it.Valid() || string(it.Key()) != "abc" {
		t.Fatalf("Seek(abc) landed on %q", it.Key())
	}

	it.Seek([]byte("aba"))
	if !it.Valid() || string(it.Key()) != "abc" {
		t.Fatalf("Seek(aba) landed on %q, want abc", it.Key())
	}

	it.Seek([]byte("z"))
	if it.Valid() {
		t.Fatalf("Seek(z) should be invalid, past the end")
	}
}

func TestIteratorSeekForPrev(t *testing.T) {
	keys := []string{"a", "ab", "abc", "b", "ba"}
	blk := buildTestBlock(t, keys)
	it := NewIterator(blk)

	it.SeekForPrev([]byte("aba"))
	if !it.Valid() || string(it.Key()) != "ab" {
		t.Fatalf("SeekForPrev(aba) landed on %q, want ab", it.Key())
	}

	it.SeekForPrev([]byte(""))
	if it.Valid() {
		t.Fatalf("SeekForPrev before the first key should be invalid")
	}

	it.SeekForPrev([]byte("zzz"))
	if !it.Valid() || string(it.Key()) != "ba" {
		t.Fatalf("SeekForPrev(zzz) landed on %q, want ba", it.Key())
	}
}

func TestIteratorEmptyBlock(t *testing.T) {
	blk := buildTestBlock(t, nil)
	it := NewIterator(blk)
	it.SeekToFirst()
	if it.Valid() {
		t.Fatalf("want invalid iterator over an empty block")
	}
}
