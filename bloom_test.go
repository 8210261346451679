// Bloom filter tests.
//
// OpenIndex loads every hashed id into a bloom filter and Lookup consults
// it before touching the file. A false negative would make an indexed
// record unreachable, so the filter must never miss an added id; false
// positives only cost a binary search and are bounded by the sizing.
package fasta

import (
	"strconv"
	"testing"
)

// TestBloomAddContains verifies the basic contract: after Add("x"),
// Contains("x") must return true.
func TestBloomAddContains(t *testing.T) {
	b := newBloom(1)
	b.Add("abc123")
	if !b.Contains("abc123") {
		t.Error("Contains should return true for added ID")
	}
}

// TestBloomMiss verifies that Contains returns false for an ID that was
// never added.
func TestBloomMiss(t *testing.T) {
	b := newBloom(1)
	b.Add("abc123")
	if b.Contains("xyz789") {
		t.Error("Contains should return false for absent ID")
	}
}

// TestBloomEmpty verifies a filter sized for zero entries still works,
// for indexes of empty FASTA files.
func TestBloomEmpty(t *testing.T) {
	b := newBloom(0)
	if b.Contains("anything") {
		t.Error("empty filter reported a hit")
	}
}

// TestBloomNoFalseNegatives adds many ids and checks every one is found.
func TestBloomNoFalseNegatives(t *testing.T) {
	b := newBloom(5000)
	for i := range 5000 {
		b.Add(hashID("seq"+strconv.Itoa(i), AlgXXHash3))
	}
	for i := range 5000 {
		if !b.Contains(hashID("seq"+strconv.Itoa(i), AlgXXHash3)) {
			t.Fatalf("false negative for seq%d", i)
		}
	}
}

// TestBloomFPRate measures the false-positive rate with 1000 entries
// and 10000 probes. The filter is sized for ~1%; the test allows 2% for
// statistical noise.
func TestBloomFPRate(t *testing.T) {
	b := newBloom(1000)
	for i := range 1000 {
		b.Add("present-" + strconv.Itoa(i))
	}

	fp := 0
	tests := 10000
	for i := range tests {
		if b.Contains("absent-" + strconv.Itoa(i)) {
			fp++
		}
	}

	rate := float64(fp) / float64(tests)
	if rate > 0.02 {
		t.Errorf("false positive rate %.4f exceeds 2%%", rate)
	}
}
