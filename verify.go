// Index verification.
//
// An index goes stale silently when the FASTA file is edited after the
// build: offsets still point somewhere, just not at the indexed record.
// Fetch catches this per record. Verify walks every entry, seeks the
// Reader to it and compares id, length and checksum straight from the
// buffer, collecting every mismatch rather than stopping at the first.
//
// Finally the last record in file order is read again: it must still end
// at the offset the header recorded, and nothing may follow it. This
// catches records appended after the build, which no entry points at.
//
// Entries are visited in index order (hashed id), so reads on the FASTA
// file are random. Verification is meant for maintenance, not the hot
// path.
package fasta

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// VerifyResult summarises a Verify run.
type VerifyResult struct {
	Entries  int // entries read from the index
	Mismatch int // entries whose record differs or is missing
}

// Verify checks every entry against r, which must read the FASTA file the
// index was built from. The returned error combines one ErrChecksum per
// mismatched entry, ErrCorruptIndex if the header count is wrong and
// ErrStaleIndex if the file has changed after its last indexed record.
// Reader failures other than a missing record stop the walk.
func (idx *Index) Verify(r *Reader) (VerifyResult, error) {
	var res VerifyResult
	var errs error
	var last Entry

	for e, err := range idx.Entries() {
		if err != nil {
			return res, multierr.Append(errs, err)
		}
		res.Entries++
		if e.Offset >= last.Offset {
			last = e
		}

		ok, err := idx.matches(r, e)
		if err != nil {
			return res, multierr.Append(errs, err)
		}
		if !ok {
			res.Mismatch++
			errs = multierr.Append(errs, fmt.Errorf("%w: %s at %s", ErrChecksum, e.ID, e.Position()))
		}
	}

	if res.Entries != idx.header.Count {
		errs = multierr.Append(errs, fmt.Errorf("%w: header counts %d entries, found %d",
			ErrCorruptIndex, idx.header.Count, res.Entries))
	}
	if res.Entries > 0 {
		if err := idx.checkTail(r, last); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return res, errs
}

// checkTail compares the end of the last record with Header.Source and
// makes sure no record follows it. A last record that is missing has
// already been counted as a mismatch.
func (idx *Index) checkTail(r *Reader, last Entry) error {
	if err := r.Seek(last.Position()); err != nil {
		return err
	}
	if _, err := r.Next(); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, ErrInvalidStart) {
			return nil
		}
		return err
	}
	if end := int64(r.recordEnd()); end != idx.header.Source {
		return fmt.Errorf("%w: last record ends at %d, indexed end %d", ErrStaleIndex, end, idx.header.Source)
	}

	_, err := r.Next()
	if err == nil {
		pos, _ := r.Position()
		return fmt.Errorf("%w: unindexed record at %s", ErrStaleIndex, pos)
	}
	if !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// matches reports whether the record at e's position is the one e
// describes. A position past the end of the file is a mismatch.
func (idx *Index) matches(r *Reader, e Entry) (bool, error) {
	if err := r.Seek(e.Position()); err != nil {
		return false, err
	}
	view, err := r.Next()
	if errors.Is(err, io.EOF) || errors.Is(err, ErrInvalidStart) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if string(view.ID()) != e.ID {
		return false, nil
	}
	length := 0
	for line := range view.Lines() {
		length += len(line)
	}
	return length == e.Length && view.Checksum(idx.header.Algorithm) == e.Checksum, nil
}
