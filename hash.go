// Hash algorithms for record ids and sequence checksums.
//
// Index entries are keyed by a 16 hex character hash of the record id, and
// carry a 64-bit checksum of the joined sequence so that Fetch can detect a
// FASTA file that changed after it was indexed. Both use the same algorithm,
// chosen with IndexOptions.Algorithm and recorded in the index header.
package fasta

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// Hash algorithm constants.
const (
	AlgXXHash3 = 1 // Default, fastest
	AlgFNV1a   = 2
	AlgBlake2b = 3 // Best distribution
)

// hashID returns the 16 hex character key for a record id.
func hashID(id string, alg int) string {
	switch alg {
	case AlgXXHash3:
		return fmt.Sprintf("%016x", xxh3.HashString(id))
	case AlgFNV1a, AlgBlake2b:
		h := newChecksum(alg)
		h.Write([]byte(id))
		return fmt.Sprintf("%016x", h.Sum64())
	default:
		return ""
	}
}

// newChecksum returns a streaming 64-bit hasher. Unknown algorithms fall
// back to xxHash3.
func newChecksum(alg int) hash.Hash64 {
	switch alg {
	case AlgFNV1a:
		return fnv.New64a()
	case AlgBlake2b:
		h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits, no key
		return blake64{h}
	default:
		return xxh3.New()
	}
}

// blake64 exposes an 8-byte BLAKE2b digest as a uint64.
type blake64 struct {
	hash.Hash
}

func (b blake64) Sum64() uint64 {
	return binary.BigEndian.Uint64(b.Sum(nil))
}

// validAlg reports whether alg names a supported algorithm.
func validAlg(alg int) bool {
	return alg >= AlgXXHash3 && alg <= AlgBlake2b
}
