package wal

import (
	"io"
	"path/filepath"
	"testing"
)

func TestCreateAndOpenFileSegment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "000007.wal")

	w, err := Create(7, path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.WriteEntry(Entry{Key: []byte("k1"), Value: []byte("v1")}); err != nil {
		t.Fatalf("WriteEntry: %v", err)
	}
	if err := w.WriteEntry(Entry{Key: []byte("k2"), Value: []byte("v2")}); err != nil {
		t.Fatalf("WriteEntry: %v", err)
	}
	if err := w.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(7, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	var got []Entry
	for {
		e, err := r.ReadEntry()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadEntry: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("read %d entries, want 2", len(got))
	}
	if string(got[0].Key) != "k1" || string(got[1].Key) != "k2" {
		t.Fatalf("unexpected entries: %+v", got)
	}
}
