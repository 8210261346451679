// Zero-copy record access.
//
// A RecordView is a pair of slices: the buffer it was produced from and the
// BufferPosition describing where the record sits in it. All accessors return
// sub-slices of the buffer except the ones that must join lines (Owned*,
// FullSequence for multi-line records, ToOwned).
//
// Views carry the generation of their owner at creation time. The owner
// (Reader or RecordSet) bumps its generation whenever the buffer may move, so
// a view that outlived its buffer is detected on first use.
package fasta

import (
	"bytes"
	"iter"
)

// RecordView borrows one record from a Reader or a RecordSet.
type RecordView struct {
	buf []byte
	pos *BufferPosition
	gen *uint64
	at  uint64
}

// Valid reports whether the view may still be used.
func (v RecordView) Valid() bool {
	return v.pos != nil && *v.gen == v.at
}

func (v RecordView) check() {
	if !v.Valid() {
		panic(ErrStaleView)
	}
}

// Description returns the header line without the leading '>'.
func (v RecordView) Description() []byte {
	v.check()
	return trimCR(v.buf[v.pos.Start+1 : v.pos.Lines[0]])
}

// ID returns the description up to the first space.
func (v RecordView) ID() []byte {
	id, _, _ := splitDescription(v.Description())
	return id
}

// Desc returns the description after the first space, if any.
func (v RecordView) Desc() ([]byte, bool) {
	_, desc, ok := splitDescription(v.Description())
	return desc, ok
}

// RawSequence returns every sequence line as one slice, including the line
// terminators between them. Only a final '\r' is removed.
func (v RecordView) RawSequence() []byte {
	v.check()
	lines := v.pos.Lines
	if len(lines) < 2 {
		return v.buf[lines[0]:lines[0]]
	}
	return trimCR(v.buf[lines[0]+1 : lines[len(lines)-1]])
}

// NumLines returns the number of sequence lines.
func (v RecordView) NumLines() int {
	v.check()
	return len(v.pos.Lines) - 1
}

// Line returns sequence line i without its terminator.
func (v RecordView) Line(i int) []byte {
	v.check()
	return trimCR(v.buf[v.pos.Lines[i]+1 : v.pos.Lines[i+1]])
}

// Lines yields the sequence lines in order.
func (v RecordView) Lines() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		v.check()
		lines := v.pos.Lines
		for i := 0; i+1 < len(lines); i++ {
			if !yield(trimCR(v.buf[lines[i]+1 : lines[i+1]])) {
				return
			}
		}
	}
}

// Backward yields the sequence lines from last to first.
func (v RecordView) Backward() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		v.check()
		lines := v.pos.Lines
		for i := len(lines) - 2; i >= 0; i-- {
			if !yield(trimCR(v.buf[lines[i]+1 : lines[i+1]])) {
				return
			}
		}
	}
}

// FullSequence returns the sequence without line terminators. A single-line
// sequence is returned borrowed; anything else is joined into a new slice.
func (v RecordView) FullSequence() []byte {
	if v.NumLines() == 1 {
		return v.RawSequence()
	}
	return v.OwnedSequence()
}

// OwnedSequence joins all sequence lines into a new slice.
func (v RecordView) OwnedSequence() []byte {
	v.check()
	lines := v.pos.Lines
	size := 0
	if n := len(lines); n > 1 {
		size = lines[n-1] - lines[0]
	}
	seq := make([]byte, 0, size)
	for line := range v.Lines() {
		seq = append(seq, line...)
	}
	return seq
}

// ToOwned copies the record out of the buffer.
func (v RecordView) ToOwned() Record {
	return Record{
		Description: bytes.Clone(v.Description()),
		Sequence:    v.OwnedSequence(),
	}
}

// Checksum hashes the sequence lines with the given algorithm without
// joining them. It matches Record.Checksum for the same record.
func (v RecordView) Checksum(alg int) uint64 {
	h := newChecksum(alg)
	for line := range v.Lines() {
		h.Write(line)
	}
	return h.Sum64()
}
