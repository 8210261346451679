// Batches of records with owned storage.
//
// A RecordSet is filled by Reader.ReadRecordSet. It holds one copy of the
// Reader's buffer and a position entry per record found in it. The set is
// meant to be reused: each fill overwrites the buffer and the first entries
// in place and only appends when a batch holds more records than any batch
// before it, so a long run settles into zero allocations per batch.
//
// Entries beyond Len are leftovers from earlier, larger batches. They keep
// their allocations for the next fill and are never exposed.
package fasta

import "iter"

// RecordSet is an owned batch of records. It may be handed to another
// goroutine once ReadRecordSet returns; it must not be refilled while
// views from it are in use.
type RecordSet struct {
	buffer    []byte
	positions []BufferPosition
	logical   []Position
	count     int
	gen       uint64
}

// load replaces the buffer contents and invalidates outstanding views.
func (s *RecordSet) load(window []byte) {
	s.buffer = append(s.buffer[:0], window...)
	s.gen++
}

// put stores record i, reusing the entry's allocation when it exists.
func (s *RecordSet) put(i int, bpos *BufferPosition, pos Position) {
	if i < len(s.positions) {
		s.positions[i].update(bpos)
		s.logical[i] = pos
		return
	}
	s.positions = append(s.positions, bpos.clone())
	s.logical = append(s.logical, pos)
}

// Len returns the number of records in the set.
func (s *RecordSet) Len() int {
	return s.count
}

// Cap returns how many position entries are allocated.
func (s *RecordSet) Cap() int {
	return len(s.positions)
}

// Reset empties the set but keeps its allocations.
func (s *RecordSet) Reset() {
	s.buffer = s.buffer[:0]
	s.count = 0
	s.gen++
}

// At returns a view of record i.
func (s *RecordSet) At(i int) RecordView {
	if i < 0 || i >= s.count {
		panic("fasta: record set index out of range")
	}
	return RecordView{buf: s.buffer, pos: &s.positions[i], gen: &s.gen, at: s.gen}
}

// Position returns the logical position of record i, suitable for Seek.
func (s *RecordSet) Position(i int) Position {
	if i < 0 || i >= s.count {
		panic("fasta: record set index out of range")
	}
	return s.logical[i]
}

// All yields views of the records in order.
func (s *RecordSet) All() iter.Seq2[int, RecordView] {
	return func(yield func(int, RecordView) bool) {
		for i := range s.count {
			if !yield(i, s.At(i)) {
				return
			}
		}
	}
}
