// writer.go implements append-only WAL segment writing.
package wal

import (
	"io"
	"os"

	"github.com/aalhour/sstkv/internal/checksum"
	"github.com/aalhour/sstkv/internal/encoding"
)

// Writer appends entries to one WAL segment.
type Writer struct {
	dest   io.Writer
	closer io.Closer
	fileID uint64

	headerBuf [HeaderSize]byte
}

// Create opens a new WAL segment at path for writing, identified by
// fileID. The file is truncated if it already exists.
func Create(fileID uint64, path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return NewWriter(f, fileID, f), nil
}

// NewWriter wraps an arbitrary io.Writer as a WAL writer. closer, if
// non-nil, is invoked by Close; tests can pass nil for an in-memory buffer
// that needs no closing.
func NewWriter(dest io.Writer, fileID uint64, closer io.Closer) *Writer {
	return &Writer{dest: dest, closer: closer, fileID: fileID}
}

// WriteEntry appends one entry: Header{key_len, value_len} ‖ key ‖ value ‖
// masked crc32c(key ‖ value).
func (w *Writer) WriteEntry(e Entry) error {
	encoding.EncodeFixed32BE(w.headerBuf[0:4], uint32(len(e.Key)))
	encoding.EncodeFixed32BE(w.headerBuf[4:8], uint32(len(e.Value)))

	if _, err := w.dest.Write(w.headerBuf[:]); err != nil {
		return err
	}
	if len(e.Key) > 0 {
		if _, err := w.dest.Write(e.Key); err != nil {
			return err
		}
	}
	if len(e.Value) > 0 {
		if _, err := w.dest.Write(e.Value); err != nil {
			return err
		}
	}

	crc := checksum.Value(e.Key)
	crc = checksum.Mask(checksum.Extend(crc, e.Value))

	var trailer [TrailerSize]byte
	encoding.EncodeFixed32BE(trailer[:], crc)
	_, err := w.dest.Write(trailer[:])
	return err
}

// FileID returns the segment's file identifier.
func (w *Writer) FileID() uint64 { return w.fileID }

// Sync flushes the underlying file to stable storage, if it supports it.
func (w *Writer) Sync() error {
	if syncer, ok := w.dest.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}
	return nil
}

// Close closes the writer's underlying file, if any.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
