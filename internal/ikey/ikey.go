// Package ikey implements the internal key format used throughout the SST
// engine: a user key with an 8-byte big-endian timestamp appended.
//
// Unlike a sequence-number trailer that sorts descending (newest first) for
// equal user keys, this format's timestamp sorts ascending: two entries with
// the same user key are ordered by increasing timestamp, and the whole
// internal key compares lexicographically byte-for-byte.
package ikey

import (
	"fmt"

	"github.com/aalhour/sstkv/internal/encoding"
)

// TimestampLen is the size, in bytes, of the trailer appended to every user
// key to form an internal key.
const TimestampLen = 8

// KeyWithTS appends a big-endian timestamp to userKey, returning a new
// internal key. The returned slice does not alias userKey.
func KeyWithTS(userKey []byte, ts uint64) []byte {
	out := make([]byte, 0, len(userKey)+TimestampLen)
	out = append(out, userKey...)
	out = encoding.AppendFixed64BE(out, ts)
	return out
}

// UserKey returns the user-key portion of an internal key.
// REQUIRES: len(key) >= TimestampLen.
func UserKey(key []byte) []byte {
	return key[:len(key)-TimestampLen]
}

// GetTS returns the timestamp encoded in key. Keys shorter than TimestampLen
// are tolerated and report a timestamp of 0 — the codec is sometimes asked
// for the timestamp of a bare user-level probe key that never had one
// appended.
func GetTS(key []byte) uint64 {
	if len(key) < TimestampLen {
		return 0
	}
	return encoding.DecodeFixed64BE(key[len(key)-TimestampLen:])
}

// Compare orders two internal keys lexicographically over their full byte
// representation. Because the timestamp is big-endian and trails the user
// key, two entries that share a user key order by ascending timestamp.
func Compare(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// String renders an internal key for diagnostics: user key quoted, timestamp
// decimal.
func String(key []byte) string {
	if len(key) < TimestampLen {
		return fmt.Sprintf("%q", key)
	}
	return fmt.Sprintf("%q@%d", UserKey(key), GetTS(key))
}
