// Record coordinates.
//
// Two kinds of position exist. BufferPosition locates a record inside the
// Reader's current buffer window and is only meaningful until the window
// moves. Position is the logical coordinate of a record in the whole input
// (header line number and absolute byte offset). It survives buffer growth
// and compaction, can be persisted, and is what Seek accepts.
package fasta

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// BufferPosition holds the header offset of one record within a buffer and
// the offsets of every line terminator seen since that header. The first
// entry of Lines terminates the header line; each following entry terminates
// one sequence line. The last entry may equal the buffer length when input
// ends without a trailing newline.
type BufferPosition struct {
	Start int   `json:"start"`
	Lines []int `json:"lines"`
}

// isNew reports whether scanning has not yet started for this record.
func (p *BufferPosition) isNew() bool {
	return len(p.Lines) == 0
}

// reset starts a new record at start, keeping the Lines allocation.
func (p *BufferPosition) reset(start int) {
	p.Start = start
	p.Lines = p.Lines[:0]
}

// update overwrites p with other, reusing p's Lines allocation.
func (p *BufferPosition) update(other *BufferPosition) {
	p.Start = other.Start
	p.Lines = append(p.Lines[:0], other.Lines...)
}

// clone returns a copy that shares nothing with p.
func (p *BufferPosition) clone() BufferPosition {
	lines := make([]int, len(p.Lines))
	copy(lines, p.Lines)
	return BufferPosition{Start: p.Start, Lines: lines}
}

// rebase shifts every offset down by n after n bytes left the window.
func (p *BufferPosition) rebase(n int) {
	p.Start -= n
	for i := range p.Lines {
		p.Lines[i] -= n
	}
}

// Position is the logical location of a record: the 1-based line number of
// its header and the absolute byte offset of the '>' that starts it.
// It encodes to JSON as a two element array, [line, offset].
type Position struct {
	Line   uint64
	Offset uint64
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, offset %d", p.Line, p.Offset)
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]uint64{p.Line, p.Offset})
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var pair [2]uint64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("fasta: decode position: %w", err)
	}
	p.Line, p.Offset = pair[0], pair[1]
	return nil
}
