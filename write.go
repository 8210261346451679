// FASTA output.
//
// Writer emits records as a header line followed by the sequence wrapped at
// a fixed width. Records can come from either side of the Reader: an owned
// Record, or a RecordView whose lines are re-wrapped straight from the
// Reader's buffer without joining them first. Output is buffered; call
// Flush, or Close for a Writer from Create, when done.
package fasta

import (
	"bufio"
	"io"
	"iter"
	"slices"
)

// DefaultWidth is the conventional FASTA line width.
const DefaultWidth = 60

// Writer writes FASTA records. Width is the maximum sequence line length;
// zero writes each sequence on a single line.
type Writer struct {
	Width int

	w       *bufio.Writer
	col     int
	closers []io.Closer
}

// NewWriter returns a Writer that wraps sequences at width.
func NewWriter(w io.Writer, width int) *Writer {
	return &Writer{Width: width, w: bufio.NewWriter(w)}
}

// Write writes an owned record.
func (w *Writer) Write(rec Record) error {
	return w.write(rec.Description, slices.Values([][]byte{rec.Sequence}))
}

// WriteView writes a borrowed record. The view must stay valid for the
// duration of the call.
func (w *Writer) WriteView(v RecordView) error {
	return w.write(v.Description(), v.Lines())
}

func (w *Writer) write(desc []byte, lines iter.Seq[[]byte]) error {
	w.w.WriteByte(headerByte)
	w.w.Write(desc)
	w.w.WriteByte(newline)

	w.col = 0
	for line := range lines {
		w.wrap(line)
	}
	if w.col > 0 {
		w.w.WriteByte(newline)
	}
	// bufio keeps the first error; later writes are no-ops.
	_, err := w.w.Write(nil)
	return err
}

// wrap appends seq to the current output line, breaking at Width.
func (w *Writer) wrap(seq []byte) {
	if w.Width <= 0 {
		w.w.Write(seq)
		w.col += len(seq)
		return
	}
	for len(seq) > 0 {
		n := min(w.Width-w.col, len(seq))
		w.w.Write(seq[:n])
		w.col += n
		seq = seq[n:]
		if w.col == w.Width {
			w.w.WriteByte(newline)
			w.col = 0
		}
	}
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
