// Seek tests.
//
// Seek has two paths. When the target header is still inside the buffer
// window the Reader only moves its offsets, which works on any source.
// Otherwise the source itself is repositioned, which needs an io.Seeker.
// The tests below force each path with the buffer capacity and check that
// records read after a Seek are byte-identical to the first pass.
package fasta

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// noSeek hides the Seek method of the wrapped reader.
type noSeek struct {
	io.Reader
}

const seekInput = ">a\nAAAA\n>b\nCCCC\n>c\nGGGG\n"

// firstPass reads every record and its position.
func firstPass(t *testing.T, r *Reader) ([]Record, []Position) {
	t.Helper()
	var recs []Record
	var positions []Position
	for {
		v, err := r.Next()
		if err == io.EOF {
			return recs, positions
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		pos, _ := r.Position()
		recs = append(recs, v.ToOwned())
		positions = append(positions, pos)
	}
}

func nextRecord(t *testing.T, r *Reader) Record {
	t.Helper()
	v, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return v.ToOwned()
}

func sameRecord(a, b Record) bool {
	return bytes.Equal(a.Description, b.Description) && bytes.Equal(a.Sequence, b.Sequence)
}

// TestSeekInBuffer verifies a Seek back to a record still held in the
// buffer needs no seekable source, and reading resumes in order from it.
func TestSeekInBuffer(t *testing.T) {
	r, err := NewReader(noSeek{strings.NewReader(seekInput)}, Config{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	recs, positions := firstPass(t, r)

	if err := r.Seek(positions[0]); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	for i := range recs {
		got := nextRecord(t, r)
		if !sameRecord(got, recs[i]) {
			t.Errorf("record %d after Seek = %q, want %q", i, got.Description, recs[i].Description)
		}
		if pos, _ := r.Position(); pos != positions[i] {
			t.Errorf("record %d position = %v, want %v", i, pos, positions[i])
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next after last = %v, want io.EOF", err)
	}
}

// TestSeekPhysical verifies seeking to records that have left the buffer
// repositions the source. Seeks run in reverse so every one of them goes
// backwards.
func TestSeekPhysical(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte(seekInput)), Config{Capacity: 8})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	recs, positions := firstPass(t, r)
	if len(recs) != 3 {
		t.Fatalf("first pass read %d records, want 3", len(recs))
	}

	for i := len(positions) - 1; i >= 0; i-- {
		if err := r.Seek(positions[i]); err != nil {
			t.Fatalf("Seek(%v): %v", positions[i], err)
		}
		got := nextRecord(t, r)
		if !sameRecord(got, recs[i]) {
			t.Errorf("Seek(%v) record = {%q %q}, want {%q %q}",
				positions[i], got.Description, got.Sequence, recs[i].Description, recs[i].Sequence)
		}
	}
}

// TestSeekNotSeekable verifies a target outside the buffer on a plain
// io.Reader fails with ErrNotSeekable, while a buffered target still works.
func TestSeekNotSeekable(t *testing.T) {
	r, err := NewReader(noSeek{strings.NewReader(seekInput)}, Config{Capacity: 8})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	recs, positions := firstPass(t, r)

	if err := r.Seek(positions[0]); !errors.Is(err, ErrNotSeekable) {
		t.Errorf("Seek to first record err = %v, want ErrNotSeekable", err)
	}
	if err := r.Seek(positions[2]); err != nil {
		t.Fatalf("Seek to buffered record: %v", err)
	}
	if got := nextRecord(t, r); !sameRecord(got, recs[2]) {
		t.Errorf("record = %q, want %q", got.Description, recs[2].Description)
	}
}

// TestRefusedSeekKeepsState verifies a seek refused with ErrNotSeekable
// leaves the Reader where it was: the current view stays valid and the
// next call returns the following record, in both reading modes.
func TestRefusedSeekKeepsState(t *testing.T) {
	const input = ">a\nAAAA\n>b\nCCCC\n>c\nGGGG\n>d\nTTTT\n"

	setup := func() (*Reader, RecordView) {
		r, err := NewReader(noSeek{strings.NewReader(input)}, Config{Capacity: 16})
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		var v RecordView
		for range 3 {
			if v, err = r.Next(); err != nil {
				t.Fatalf("Next: %v", err)
			}
		}
		if err := r.Seek(Position{Line: 1, Offset: 0}); !errors.Is(err, ErrNotSeekable) {
			t.Fatalf("Seek err = %v, want ErrNotSeekable", err)
		}
		return r, v
	}

	r, v := setup()
	if !v.Valid() || string(v.FullSequence()) != "GGGG" {
		t.Errorf("current view after refused Seek: valid=%v", v.Valid())
	}
	if pos, ok := r.Position(); !ok || pos != (Position{Line: 5, Offset: 16}) {
		t.Errorf("Position = %v, %v, want line 5, offset 16", pos, ok)
	}
	got := nextRecord(t, r)
	if string(got.Description) != "d" || string(got.Sequence) != "TTTT" {
		t.Errorf("Next after refused Seek = {%q %q}, want {d TTTT}", got.Description, got.Sequence)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next after last = %v, want io.EOF", err)
	}

	r, _ = setup()
	var set RecordSet
	if err := r.ReadRecordSet(&set); err != nil {
		t.Fatalf("ReadRecordSet: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("set holds %d records, want 1", set.Len())
	}
	if rec := set.At(0).ToOwned(); string(rec.Description) != "d" || string(rec.Sequence) != "TTTT" {
		t.Errorf("set record = {%q %q}, want {d TTTT}", rec.Description, rec.Sequence)
	}
	if err := r.ReadRecordSet(&set); err != io.EOF {
		t.Errorf("ReadRecordSet after last = %v, want io.EOF", err)
	}
}

// TestSeekBeforeNext verifies Seek works on a Reader that has not read
// anything yet, skipping the start-of-file checks.
func TestSeekBeforeNext(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte(seekInput)), Config{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if err := r.Seek(Position{Line: 4, Offset: 8}); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if got := nextRecord(t, r); string(got.Description) != "b" {
		t.Errorf("record = %q, want b", got.Description)
	}
	if pos, _ := r.Position(); pos != (Position{4, 8}) {
		t.Errorf("position = %v, want {4 8}", pos)
	}
	if got := nextRecord(t, r); string(got.Description) != "c" {
		t.Errorf("record = %q, want c", got.Description)
	}
	if pos, _ := r.Position(); pos != (Position{7, 16}) {
		t.Errorf("position = %v, want {7 16}", pos)
	}
}

// TestSeekPastEnd verifies a target beyond the input yields io.EOF rather
// than an error or a bogus record.
func TestSeekPastEnd(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte(seekInput)), Config{Capacity: 8})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if err := r.Seek(Position{Line: 100, Offset: 1000}); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next err = %v, want io.EOF", err)
	}
}

// TestSeekClearsFailure verifies Seek recovers a Reader that failed on a
// bad first line, as long as the target is a real record.
func TestSeekClearsFailure(t *testing.T) {
	input := "junk\n>a\nAC\n"
	r, err := NewReader(strings.NewReader(input), Config{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, ErrInvalidStart) {
		t.Fatalf("Next err = %v, want ErrInvalidStart", err)
	}
	if err := r.Seek(Position{Line: 2, Offset: 5}); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if got := nextRecord(t, r); string(got.Description) != "a" || string(got.Sequence) != "AC" {
		t.Errorf("record = {%q %q}, want {a AC}", got.Description, got.Sequence)
	}
}

// TestSeekInvalidatesViews verifies views do not survive a Seek.
func TestSeekInvalidatesViews(t *testing.T) {
	r, err := NewReader(strings.NewReader(seekInput), Config{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	v, _ := r.Next()
	pos, _ := r.Position()
	if err := r.Seek(pos); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if v.Valid() {
		t.Error("view valid after Seek")
	}
}
