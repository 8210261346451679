// Package fasta provides a streaming parser for FASTA sequence files that
// never loads the whole input into memory and never copies sequence bytes
// unless asked to.
//
// A Reader keeps a single growable buffer over its source. Next returns a
// RecordView that borrows that buffer: description, sequence lines and the
// raw sequence are all sub-slices of it. A view is only valid until the next
// call that moves the Reader (Next, ReadRecordSet, Seek); stale views panic
// with ErrStaleView instead of silently reading relocated bytes.
//
// For batch consumers, ReadRecordSet copies the buffer once per batch into a
// RecordSet which owns its bytes and can be handed to another goroutine.
// Parallel wires this into a producer/worker pipeline.
//
// Every record has a logical Position (header line number and absolute byte
// offset). Seek accepts a Position previously returned by the Reader and
// resumes from it, re-using buffered bytes when the target is still resident.
// An Index persists positions by record id for random access.
//
// Parsing rules: LF and CRLF line endings are accepted (the CR is stripped
// from returned data). Blank lines before the first header are skipped; the
// first non-blank line must start with '>'. Consecutive headers produce a
// record with an empty sequence. ';' lines are not comments, they are
// ordinary sequence data.
package fasta

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors for programmatic handling. Callers can use errors.Is to
// tell format problems (ErrInvalidStart) from resource limits
// (ErrBufferLimit) and source failures (ErrIO).
var (
	ErrIO             = errors.New("fasta: read failed")
	ErrInvalidStart   = errors.New("fasta: invalid record start")
	ErrBufferLimit    = errors.New("fasta: buffer limit reached")
	ErrNotSeekable    = errors.New("fasta: source is not seekable")
	ErrStaleView      = errors.New("fasta: record view used after reader moved")
	ErrCapacity       = errors.New("fasta: buffer capacity below minimum")
	ErrClosed         = errors.New("fasta: closed")
	ErrNotFound       = errors.New("fasta: record not found")
	ErrChecksum       = errors.New("fasta: sequence checksum mismatch")
	ErrCorruptIndex   = errors.New("fasta: corrupt index entry")
	ErrCorruptHeader  = errors.New("fasta: corrupt index header")
	ErrStaleIndex     = errors.New("fasta: index does not cover the file")
	ErrInvalidPattern = errors.New("fasta: invalid search pattern")
)

// StartError reports that the first non-blank line of the input does not
// begin with the header sentinel. It matches ErrInvalidStart under errors.Is.
type StartError struct {
	Line  int  // 1-based line number of the offending line
	Found byte // first byte of that line
}

func (e *StartError) Error() string {
	return fmt.Sprintf("fasta: expected '>' but found %s at file start, line %d",
		strconv.QuoteRune(rune(e.Found)), e.Line)
}

func (e *StartError) Is(target error) bool {
	return target == ErrInvalidStart
}

// ioError wraps a source failure so that both ErrIO and the underlying
// error (os.ErrNotExist, io.ErrUnexpectedEOF, ...) satisfy errors.Is.
func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
