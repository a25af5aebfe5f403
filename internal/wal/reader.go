// reader.go implements sequential WAL segment reading.
package wal

import (
	"errors"
	"io"
	"os"

	"github.com/aalhour/sstkv/internal/checksum"
	"github.com/aalhour/sstkv/internal/encoding"
)

var (
	// ErrCorruptedEntry is returned when an entry's trailer does not match
	// the checksum computed over its key and value.
	ErrCorruptedEntry = errors.New("wal: corrupted entry (bad checksum)")

	// ErrShortEntry is returned when the segment ends in the middle of a
	// header, key, value, or trailer.
	ErrShortEntry = errors.New("wal: short entry")
)

// Reader reads entries sequentially from one WAL segment.
type Reader struct {
	src    io.Reader
	closer io.Closer
	fileID uint64
}

// Open opens the WAL segment at path for sequential reading, identified by
// fileID.
func Open(fileID uint64, path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReader(f, fileID, f), nil
}

// NewReader wraps an arbitrary io.Reader as a WAL reader.
func NewReader(src io.Reader, fileID uint64, closer io.Closer) *Reader {
	return &Reader{src: src, fileID: fileID, closer: closer}
}

// FileID returns the segment's file identifier.
func (r *Reader) FileID() uint64 { return r.fileID }

// ReadEntry reads the next entry from the segment. It returns io.EOF (with
// a zero Entry) once the segment is exhausted at an entry boundary.
//
// A segment that ends mid-entry — the tail of a crash during append — is
// reported as ErrShortEntry rather than io.EOF, so callers can distinguish
// a clean end from a torn write.
func (r *Reader) ReadEntry() (Entry, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r.src, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Entry{}, io.EOF
		}
		return Entry{}, wrapShort(err)
	}

	keyLen := encoding.DecodeFixed32BE(header[0:4])
	valueLen := encoding.DecodeFixed32BE(header[4:8])

	key := make([]byte, keyLen)
	if keyLen > 0 {
		if _, err := io.ReadFull(r.src, key); err != nil {
			return Entry{}, wrapShort(err)
		}
	}
	value := make([]byte, valueLen)
	if valueLen > 0 {
		if _, err := io.ReadFull(r.src, value); err != nil {
			return Entry{}, wrapShort(err)
		}
	}

	var trailer [TrailerSize]byte
	if _, err := io.ReadFull(r.src, trailer[:]); err != nil {
		return Entry{}, wrapShort(err)
	}
	stored := encoding.DecodeFixed32BE(trailer[:])

	crc := checksum.Value(key)
	crc = checksum.Mask(checksum.Extend(crc, value))
	if crc != stored {
		return Entry{}, ErrCorruptedEntry
	}

	return Entry{Key: key, Value: value}, nil
}

// Close closes the reader's underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func wrapShort(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrShortEntry
	}
	return err
}
