// Index header tests.
//
// The header is fixed size so entries always start at HeaderSize, and the
// binary search uses HeaderSize as its lower bound. A header that encoded
// to any other length would shift every entry and break every lookup.
package fasta

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHeaderSize(t *testing.T) {
	if HeaderSize != 128 {
		t.Errorf("HeaderSize = %d, want 128", HeaderSize)
	}
}

func TestHeaderEncode(t *testing.T) {
	h := &Header{
		Version:   IndexVersion,
		Algorithm: AlgXXHash3,
		Timestamp: 1706000000000,
		Count:     123456789,
		Source:    1 << 40,
	}

	buf, err := h.encode()
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if len(buf) != HeaderSize {
		t.Errorf("encoded length = %d, want %d", len(buf), HeaderSize)
	}
	if buf[HeaderSize-1] != '\n' {
		t.Errorf("last byte = %q, want newline", buf[HeaderSize-1])
	}
}

func TestHeaderReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.fxi")

	original := &Header{
		Version:   IndexVersion,
		Algorithm: AlgFNV1a,
		Timestamp: 1706000000000,
		Count:     42,
		Source:    9000,
	}
	buf, err := original.encode()
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("write error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	defer f.Close()

	got, err := header(f)
	if err != nil {
		t.Fatalf("header error: %v", err)
	}
	if *got != *original {
		t.Errorf("header = %+v, want %+v", *got, *original)
	}
}

// TestHeaderCorrupt covers the ways a file can fail to be an index:
// too short, not JSON, unknown version or algorithm, missing newline.
func TestHeaderCorrupt(t *testing.T) {
	pad := func(s string) string {
		return s + strings.Repeat(" ", HeaderSize-1-len(s)) + "\n"
	}
	tests := map[string]string{
		"short":       "{}",
		"not json":    pad("not a header"),
		"version":     pad(`{"_v":9,"_alg":1}`),
		"algorithm":   pad(`{"_v":1,"_alg":7}`),
		"no newline":  strings.Repeat(" ", HeaderSize),
		"fasta input": pad(">seq1\nACGT"),
	}
	for name, content := range tests {
		f := createTestFile(t, content)
		if _, err := header(f); err != ErrCorruptHeader {
			t.Errorf("%s: err = %v, want ErrCorruptHeader", name, err)
		}
	}
}
