// Index tests.
//
// An index is only useful if every record it names can be fetched back
// byte for byte. These tests build indexes from generated FASTA files and
// check lookups, fetches through a fresh Reader, duplicate ids, stale
// indexes and corrupt files.
package fasta

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// writeFASTA writes content to a temp file and returns its path.
func writeFASTA(t testing.TB, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.fa")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fasta: %v", err)
	}
	return path
}

// generated returns n records of varying length and line count.
func generated(n int) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, ">seq%d sample %d\n", i, i%13)
		residues := strings.Repeat("ACGT", 1+i%9) + strings.Repeat("N", i%3)
		for len(residues) > 10 {
			b.WriteString(residues[:10] + "\n")
			residues = residues[10:]
		}
		b.WriteString(residues + "\n")
	}
	return b.String()
}

// buildTestIndex builds an index for path and opens it.
func buildTestIndex(t *testing.T, path string, opts IndexOptions) *Index {
	t.Helper()
	r, err := Open(path, Config{Capacity: 64})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := BuildIndex(IndexPath(path), r, opts); err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	idx, err := OpenIndex(IndexPath(path))
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

// TestIndexRoundTrip fetches every record by id through a small-buffer
// Reader, so most fetches need a physical seek, and compares with a
// straight read of the file.
func TestIndexRoundTrip(t *testing.T) {
	for _, alg := range algorithms {
		path := writeFASTA(t, generated(200))
		idx := buildTestIndex(t, path, IndexOptions{Algorithm: alg})

		if idx.Len() != 200 {
			t.Errorf("alg %d: Len = %d, want 200", alg, idx.Len())
		}
		if got := idx.Header().Algorithm; got != alg {
			t.Errorf("Header().Algorithm = %d, want %d", got, alg)
		}

		direct, err := Open(path, Config{})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		recs := readAll(t, direct)
		direct.Close()

		r, err := Open(path, Config{Capacity: 32})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		// Fetch in reverse so every seek goes backwards.
		for i := len(recs) - 1; i >= 0; i-- {
			id := string(recs[i].ID())
			got, err := idx.Fetch(r, id)
			if err != nil {
				t.Fatalf("alg %d: Fetch(%s): %v", alg, id, err)
			}
			if !sameRecord(got, recs[i]) {
				t.Errorf("alg %d: Fetch(%s) = %q, want %q", alg, id, got.Sequence, recs[i].Sequence)
			}
		}
		r.Close()
	}
}

// TestIndexLookupPositions verifies entries carry the positions the
// Reader reported while building.
func TestIndexLookupPositions(t *testing.T) {
	path := writeFASTA(t, "\n>a\nAC\n>b x\nGGG\nT\n")
	idx := buildTestIndex(t, path, IndexOptions{})

	a, err := idx.Lookup("a")
	if err != nil {
		t.Fatalf("Lookup(a): %v", err)
	}
	if a.Position() != (Position{2, 1}) || a.Length != 2 {
		t.Errorf("a = %+v", a)
	}
	b, err := idx.Lookup("b")
	if err != nil {
		t.Fatalf("Lookup(b): %v", err)
	}
	if b.Position() != (Position{4, 7}) || b.Length != 4 {
		t.Errorf("b = %+v", b)
	}
	if idx.Header().Source != 18 {
		t.Errorf("Header().Source = %d, want 18", idx.Header().Source)
	}
}

// TestIndexNotFound verifies unknown ids report ErrNotFound.
func TestIndexNotFound(t *testing.T) {
	path := writeFASTA(t, generated(20))
	idx := buildTestIndex(t, path, IndexOptions{})

	for _, id := range []string{"seq20", "nope", "", "seq1 sample"} {
		if _, err := idx.Lookup(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Lookup(%q) err = %v, want ErrNotFound", id, err)
		}
	}
}

// TestIndexDuplicateIDs verifies Lookup returns the first record when an
// id repeats, matching what a linear scan would find.
func TestIndexDuplicateIDs(t *testing.T) {
	path := writeFASTA(t, ">dup one\nA\n>other\nC\n>dup two\nG\n>dup three\nT\n")
	idx := buildTestIndex(t, path, IndexOptions{})

	r, err := Open(path, Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	rec, err := idx.Fetch(r, "dup")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(rec.Description) != "dup one" {
		t.Errorf("Fetch(dup) = %q, want first record", rec.Description)
	}
}

// TestIndexStale verifies Fetch notices a FASTA file that changed after
// indexing instead of returning whatever record now sits at the offset.
func TestIndexStale(t *testing.T) {
	path := writeFASTA(t, ">a\nACGT\n>b\nTTTT\n")
	idx := buildTestIndex(t, path, IndexOptions{})

	if err := os.WriteFile(path, []byte(">a\nACGT\n>b\nTTTA\n"), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	r, err := Open(path, Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := idx.Fetch(r, "b"); !errors.Is(err, ErrChecksum) {
		t.Errorf("Fetch(b) err = %v, want ErrChecksum", err)
	}
	if _, err := idx.Fetch(r, "a"); err != nil {
		t.Errorf("Fetch(a) on unchanged record: %v", err)
	}
}

// TestIndexEntries verifies iteration yields every entry in key order.
func TestIndexEntries(t *testing.T) {
	path := writeFASTA(t, generated(50))
	idx := buildTestIndex(t, path, IndexOptions{})

	seen := map[string]bool{}
	prev := ""
	for e, err := range idx.Entries() {
		if err != nil {
			t.Fatalf("Entries: %v", err)
		}
		if e.Hash < prev {
			t.Errorf("entry %s out of order after %s", e.Hash, prev)
		}
		prev = e.Hash
		seen[e.ID] = true
	}
	if len(seen) != 50 {
		t.Errorf("Entries yielded %d ids, want 50", len(seen))
	}
}

// TestIndexEmptyFASTA verifies an empty input gives an empty but valid
// index.
func TestIndexEmptyFASTA(t *testing.T) {
	path := writeFASTA(t, "\n\n")
	idx := buildTestIndex(t, path, IndexOptions{})
	if idx.Len() != 0 {
		t.Errorf("Len = %d, want 0", idx.Len())
	}
	if _, err := idx.Lookup("x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup err = %v, want ErrNotFound", err)
	}
}

// TestIndexNoTempLeft verifies the build leaves only the final file.
func TestIndexNoTempLeft(t *testing.T) {
	path := writeFASTA(t, generated(5))
	buildTestIndex(t, path, IndexOptions{})
	if _, err := os.Stat(IndexPath(path) + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file still present: %v", err)
	}
}

// TestIndexBuildError verifies a parse failure aborts the build without
// writing an index.
func TestIndexBuildError(t *testing.T) {
	path := writeFASTA(t, "not fasta\n")
	r, err := Open(path, Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := BuildIndex(IndexPath(path), r, IndexOptions{}); !errors.Is(err, ErrInvalidStart) {
		t.Errorf("BuildIndex err = %v, want ErrInvalidStart", err)
	}
	if _, err := os.Stat(IndexPath(path)); !os.IsNotExist(err) {
		t.Errorf("index written despite error: %v", err)
	}
}

// TestIndexBadAlgorithm verifies unknown algorithms are rejected up front.
func TestIndexBadAlgorithm(t *testing.T) {
	path := writeFASTA(t, ">a\nA\n")
	r, _ := Open(path, Config{})
	defer r.Close()
	if _, err := BuildIndex(IndexPath(path), r, IndexOptions{Algorithm: 42}); err == nil {
		t.Error("BuildIndex accepted algorithm 42")
	}
}

// TestOpenIndexCorrupt verifies a file that is not an index is refused.
func TestOpenIndexCorrupt(t *testing.T) {
	path := writeFASTA(t, ">a\nACGT\n")
	if _, err := OpenIndex(path); !errors.Is(err, ErrCorruptHeader) {
		t.Errorf("OpenIndex(fasta) err = %v, want ErrCorruptHeader", err)
	}
}

// TestIndexClosed verifies operations after Close fail cleanly.
func TestIndexClosed(t *testing.T) {
	path := writeFASTA(t, generated(3))
	idx := buildTestIndex(t, path, IndexOptions{})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := idx.Lookup("seq0"); !errors.Is(err, ErrClosed) {
		t.Errorf("Lookup after Close err = %v, want ErrClosed", err)
	}
	for _, err := range idx.Entries() {
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Entries after Close err = %v, want ErrClosed", err)
		}
	}
}

// TestIndexCloseDuringLookups closes the index while lookups are running.
// Every lookup must either find its record or report ErrClosed; run with
// -race to check Close does not race with readers.
func TestIndexCloseDuringLookups(t *testing.T) {
	path := writeFASTA(t, generated(200))
	idx := buildTestIndex(t, path, IndexOptions{})

	var wg sync.WaitGroup
	start := make(chan struct{})
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := range 200 {
				id := fmt.Sprintf("seq%d", (i+w*25)%200)
				e, err := idx.Lookup(id)
				if errors.Is(err, ErrClosed) {
					return
				}
				if err != nil || e.ID != id {
					t.Errorf("Lookup(%s) = %q, %v", id, e.ID, err)
					return
				}
			}
		}()
	}

	close(start)
	if err := idx.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	wg.Wait()

	if _, err := idx.Lookup("seq0"); !errors.Is(err, ErrClosed) {
		t.Errorf("Lookup after Close err = %v, want ErrClosed", err)
	}
}
