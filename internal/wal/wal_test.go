package wal

import (
	"bytes"
	"io"
	"testing"

	"github.com/aalhour/sstkv/internal/ikey"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 7, nil)

	entries := []Entry{
		{Key: ikey.KeyWithTS([]byte("a"), 1), Value: []byte("alpha")},
		{Key: ikey.KeyWithTS([]byte("b"), 2), Value: []byte("bravo")},
		{Key: ikey.KeyWithTS([]byte("c"), 3), Value: nil},
	}
	for _, e := range entries {
		if err := w.WriteEntry(e); err != nil {
			t.Fatalf("WriteEntry: %v", err)
		}
	}

	r := NewReader(bytes.NewReader(buf.Bytes()), 7, nil)
	if r.FileID() != 7 {
		t.Fatalf("FileID() = %d, want 7", r.FileID())
	}
	for i, want := range entries {
		got, err := r.ReadEntry()
		if err != nil {
			t.Fatalf("ReadEntry(%d): %v", i, err)
		}
		if !bytes.Equal(got.Key, want.Key) {
			t.Fatalf("entry %d key = %q, want %q", i, got.Key, want.Key)
		}
		if !bytes.Equal(got.Value, want.Value) {
			t.Fatalf("entry %d value = %q, want %q", i, got.Value, want.Value)
		}
	}
	if _, err := r.ReadEntry(); err != io.EOF {
		t.Fatalf("ReadEntry() at end = %v, want io.EOF", err)
	}
}

func TestWriteReadEmptyEntry(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 1, nil)
	if err := w.WriteEntry(Entry{}); err != nil {
		t.Fatalf("WriteEntry: %v", err)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()), 1, nil)
	got, err := r.ReadEntry()
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}
	if len(got.Key) != 0 || len(got.Value) != 0 {
		t.Fatalf("ReadEntry() = %+v, want an empty entry", got)
	}
}

func TestReadDetectsCorruption(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 1, nil)
	if err := w.WriteEntry(Entry{Key: []byte("k"), Value: []byte("v")}); err != nil {
		t.Fatalf("WriteEntry: %v", err)
	}

	corrupt := buf.Bytes()
	corrupt[len(corrupt)-1] ^= 0xff

	r := NewReader(bytes.NewReader(corrupt), 1, nil)
	if _, err := r.ReadEntry(); err != ErrCorruptedEntry {
		t.Fatalf("ReadEntry() = %v, want ErrCorruptedEntry", err)
	}
}

func TestReadDetectsTornWrite(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 1, nil)
	if err := w.WriteEntry(Entry{Key: []byte("k"), Value: []byte("value")}); err != nil {
		t.Fatalf("WriteEntry: %v", err)
	}

	torn := buf.Bytes()[:buf.Len()-2] // truncate mid-trailer
	r := NewReader(bytes.NewReader(torn), 1, nil)
	if _, err := r.ReadEntry(); err != ErrShortEntry {
		t.Fatalf("ReadEntry() = %v, want ErrShortEntry", err)
	}
}

func TestReadMultipleSegmentsIndependently(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	w1 := NewWriter(&buf1, 1, nil)
	w2 := NewWriter(&buf2, 2, nil)

	if err := w1.WriteEntry(Entry{Key: []byte("one"), Value: []byte("1")}); err != nil {
		t.Fatalf("WriteEntry(w1): %v", err)
	}
	if err := w2.WriteEntry(Entry{Key: []byte("two"), Value: []byte("2")}); err != nil {
		t.Fatalf("WriteEntry(w2): %v", err)
	}

	r1 := NewReader(bytes.NewReader(buf1.Bytes()), 1, nil)
	r2 := NewReader(bytes.NewReader(buf2.Bytes()), 2, nil)

	e1, err := r1.ReadEntry()
	if err != nil {
		t.Fatalf("ReadEntry(r1): %v", err)
	}
	e2, err := r2.ReadEntry()
	if err != nil {
		t.Fatalf("ReadEntry(r2): %v", err)
	}
	if string(e1.Key) != "one" || string(e2.Key) != "two" {
		t.Fatalf("segments crossed: got %q and %q", e1.Key, e2.Key)
	}
}
