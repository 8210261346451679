// Owned records.
//
// Record is the detached form of a RecordView: description and sequence
// copied out of the buffer, with line terminators removed from the sequence.
// It has no tie to any Reader and can be kept indefinitely.
package fasta

import "bytes"

// Record is a FASTA record that owns its bytes.
type Record struct {
	Description []byte `json:"description"`
	Sequence    []byte `json:"sequence"`
}

// ID returns the description up to the first space.
func (r Record) ID() []byte {
	id, _, _ := splitDescription(r.Description)
	return id
}

// Desc returns the description after the first space, if any.
func (r Record) Desc() ([]byte, bool) {
	_, desc, ok := splitDescription(r.Description)
	return desc, ok
}

// Checksum hashes the sequence with the given algorithm.
func (r Record) Checksum(alg int) uint64 {
	h := newChecksum(alg)
	h.Write(r.Sequence)
	return h.Sum64()
}

// splitDescription splits a header at its first space into id and
// free-text description.
func splitDescription(desc []byte) (id, rest []byte, ok bool) {
	if i := bytes.IndexByte(desc, ' '); i >= 0 {
		return desc[:i], desc[i+1:], true
	}
	return desc, nil, false
}
