// In-memory bloom filter over indexed record ids.
//
// Built by OpenIndex from the hashed ids in the index file and consulted
// before every binary search, so lookups for ids that were never indexed
// cost no file reads. Sized from the entry count at roughly 1% false
// positives.
package fasta

import (
	"hash/fnv"
)

// Bloom filter sizing constants.
const (
	BloomBitsPerEntry = 10 // ~1% FP with BloomK hashes
	BloomK            = 7  // number of hash functions
	bloomMinBytes     = 64
)

type bloom struct {
	bits []byte
}

// newBloom returns a zeroed filter sized for n entries.
func newBloom(n int) *bloom {
	size := max(n*BloomBitsPerEntry/8+1, bloomMinBytes)
	return &bloom{bits: make([]byte, size)}
}

// Add inserts an id into the filter.
func (b *bloom) Add(id string) {
	for _, pos := range b.positions(id) {
		b.bits[pos/8] |= 1 << (pos % 8)
	}
}

// Contains returns true if the id might be present, false if definitely absent.
func (b *bloom) Contains(id string) bool {
	for _, pos := range b.positions(id) {
		if b.bits[pos/8]&(1<<(pos%8)) == 0 {
			return false
		}
	}
	return true
}

// positions returns BloomK bit positions using double hashing (FNV-64a + FNV-32a).
func (b *bloom) positions(id string) [BloomK]uint {
	h64 := fnv.New64a()
	h64.Write([]byte(id))
	x := h64.Sum64()

	h32 := fnv.New32a()
	h32.Write([]byte(id))
	y := uint(h32.Sum32())

	nbits := uint(len(b.bits) * 8)
	var pos [BloomK]uint
	for i := range BloomK {
		pos[i] = (uint(x) + uint(i)*y) % nbits
	}
	return pos
}
