// Package wal provides the write-ahead log segment used to durably record
// entries before they reach a memtable: an append-only file identified by
// (file_id, path) that the core only ever opens and appends to. Fsync
// policy, segment rotation, and crash recovery beyond per-entry corruption
// detection are left to the caller.
//
// Segment format: a sequence of
//
//	Header{ key_len, value_len } ‖ key ‖ value ‖ trailer
//
// records, with no block framing or fragmentation — unlike the
// fixed-block, fragment-aware log format this package is adapted from,
// a WAL entry here is always written and read whole.
package wal

import "github.com/aalhour/sstkv/internal/checksum"

// HeaderSize is the size, in bytes, of the length header preceding every
// entry: a big-endian u32 key length followed by a big-endian u32 value
// length.
const HeaderSize = 8

// TrailerSize is the size, in bytes, of the CRC-32C trailer following every
// entry's key and value.
const TrailerSize = 4

// checksumType is the algorithm used for an entry's trailer. The WAL is an
// external collaborator with its own wire format, not the table's framed
// checksum message, so it fixes one algorithm rather than tagging it.
const checksumType = checksum.TypeCRC32C

// Entry is one logical WAL record: an already-encoded internal key and its
// already-encoded value payload. The WAL does not interpret either; it only
// frames and checksums them.
type Entry struct {
	Key   []byte
	Value []byte
}
