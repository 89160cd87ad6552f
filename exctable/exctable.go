// Package exctable implements the 3.11+ exception table: the
// sequence of {start, stop, target, push_lasti, stack_depth} records
// describing interpreter-handled exception regions, encoded as four
// unsigned base-128 varints per entry (spec.md §6).
package exctable

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned when the byte stream cannot be decoded.
var ErrMalformed = errors.New("exctable: malformed table")

// Entry is one exception-table record. Start/Stop/Target are in
// instructions (not bytes); Stop is inclusive per spec.md §4.3.4.
type Entry struct {
	Start, Stop, Target int
	PushLasti           bool
	StackDepth          int
}

func putVarint(out []byte, v uint64) []byte {
	for v >= 0x80 {
		out = append(out, byte(v&0x7f)|0x80)
		v >>= 7
	}
	return append(out, byte(v))
}

func readVarint(data []byte, i int) (uint64, int, error) {
	var v uint64
	var shift uint
	for {
		if i >= len(data) {
			return 0, i, fmt.Errorf("%w: truncated varint", ErrMalformed)
		}
		b := data[i]
		i++
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 63 {
			return 0, i, fmt.Errorf("%w: varint overflow", ErrMalformed)
		}
	}
	return v, i, nil
}

// Encode writes entries in ascending-start, then ascending-stop order
// (the caller is expected to have already sorted per spec.md §4.3.4;
// Encode does not re-sort so round-tripping a decoded table preserves
// byte-for-byte order).
func Encode(entries []Entry) []byte {
	var out []byte
	for _, e := range entries {
		length := e.Stop - e.Start + 1
		depthAndLasti := uint64(e.StackDepth) << 1
		if e.PushLasti {
			depthAndLasti |= 1
		}
		out = putVarint(out, uint64(e.Start))
		out = putVarint(out, uint64(length))
		out = putVarint(out, uint64(e.Target))
		out = putVarint(out, depthAndLasti)
	}
	return out
}

// Decode reads the entire byte stream as a flat sequence of entries.
func Decode(data []byte) ([]Entry, error) {
	var entries []Entry
	i := 0
	for i < len(data) {
		var start, length, target, depthAndLasti uint64
		var err error
		if start, i, err = readVarint(data, i); err != nil {
			return nil, err
		}
		if length, i, err = readVarint(data, i); err != nil {
			return nil, err
		}
		if target, i, err = readVarint(data, i); err != nil {
			return nil, err
		}
		if depthAndLasti, i, err = readVarint(data, i); err != nil {
			return nil, err
		}
		if length == 0 {
			return nil, fmt.Errorf("%w: zero-length region", ErrMalformed)
		}
		entries = append(entries, Entry{
			Start:      int(start),
			Stop:       int(start + length - 1),
			Target:     int(target),
			PushLasti:  depthAndLasti&1 != 0,
			StackDepth: int(depthAndLasti >> 1),
		})
	}
	return entries, nil
}
