// Scan strategies for the sorted entry section.
//
// Entries are sorted by hashed id, so a lookup is a binary search over
// variable-length lines. The hashed id sits at a fixed byte position in
// every entry ({"_id":"<16 hex>", ...) and is compared without JSON
// parsing; only the final candidates are decoded.
//
//   - scan: binary search between two offsets. O(log n) reads.
//   - group: scan, then widen to every neighbour with the same hash, which
//     covers duplicate ids and hash collisions.
//   - sweep: linear pass used to build the bloom filter and by Entries.
package fasta

import (
	"bufio"
	"bytes"
	"io"
	"os"
)

// Fixed layout of an entry line.
const (
	hashStart    = 8 // len(`{"_id":"`)
	hashEnd      = hashStart + 16
	minEntrySize = hashEnd + 2
	maxEntrySize = 1 << 20
)

var entryPrefix = []byte(`{"_id":"`)

// hit is an entry line located in the file.
type hit struct {
	Offset int64
	Data   []byte
	Hash   string
}

func (h *hit) end() int64 {
	return h.Offset + int64(len(h.Data)) + 1
}

// valid reports whether data looks like an entry line.
func valid(data []byte) bool {
	return len(data) >= minEntrySize &&
		bytes.HasPrefix(data, entryPrefix) &&
		data[hashEnd] == '"' &&
		data[len(data)-1] == '}'
}

// scan performs binary search between start and end for an entry whose
// hash matches h. The midpoint may land inside an entry, so it is aligned
// to the next newline; if that leaves the range, a pivot is found by
// walking backwards instead.
func scan(f *os.File, h string, start, end int64) *hit {
	if start >= end {
		return nil
	}

	mid := (start + end) / 2

	var pivot *hit
	if nl, _ := align(f, mid, end); nl >= 0 && nl+1 < end {
		pivot = at(f, nl+1, end)
	}
	if pivot == nil {
		pivot = scanBack(f, mid, start, end)
	}
	if pivot == nil {
		return nil
	}

	switch {
	case h == pivot.Hash:
		return pivot
	case h < pivot.Hash:
		return scan(f, h, start, pivot.Offset)
	default:
		return scan(f, h, pivot.end(), end)
	}
}

// at reads the entry starting exactly at offset.
func at(f *os.File, offset, end int64) *hit {
	data, err := line(f, offset, end)
	if err != nil || !valid(data) {
		return nil
	}
	return &hit{offset, data, string(data[hashStart:hashEnd])}
}

// lineStart returns the offset of the line containing pos, not earlier
// than start.
func lineStart(f *os.File, pos, start int64) int64 {
	var buf [1]byte
	for pos > start {
		if _, err := f.ReadAt(buf[:], pos-1); err != nil || buf[0] == '\n' {
			return pos
		}
		pos--
	}
	return start
}

// scanBack walks backwards from pos to find the nearest entry at or
// before it, used when the forward alignment in scan leaves the range.
func scanBack(f *os.File, pos, start, end int64) *hit {
	for pos >= start {
		s := lineStart(f, pos, start)
		if e := at(f, s, end); e != nil {
			return e
		}
		if s == start {
			return nil
		}
		pos = s - 1
	}
	return nil
}

// group binary-searches for any entry with hash h, then collects every
// contiguous entry sharing it. Returned in file order.
func group(f *os.File, h string, start, end int64) []hit {
	first := scan(f, h, start, end)
	if first == nil {
		return nil
	}

	for first.Offset > start {
		prev := at(f, lineStart(f, first.Offset-1, start), end)
		if prev == nil || prev.Hash != h {
			break
		}
		first = prev
	}

	var results []hit
	for e := first; e != nil && e.Hash == h; e = at(f, e.end(), end) {
		results = append(results, *e)
	}
	return results
}

// sweep calls fn for every valid entry between start and end, in file
// order. data is only valid during the call.
func sweep(f *os.File, start, end int64, fn func(offset int64, data []byte) bool) error {
	section := io.NewSectionReader(f, start, end-start)
	scanner := bufio.NewScanner(section)
	scanner.Buffer(make([]byte, 64*1024), maxEntrySize)
	offset := start

	for scanner.Scan() {
		data := scanner.Bytes()
		if valid(data) && !fn(offset, data) {
			return nil
		}
		offset += int64(len(data)) + 1
	}
	return scanner.Err()
}
