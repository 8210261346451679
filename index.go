// Position index for random access by record id.
//
// An index is a sidecar file next to a FASTA file. It starts with a fixed
// size Header and holds one JSON line per record, sorted by hashed id:
//
//	{"_id":"<16 hex>","_n":<line>,"_o":<offset>,"_l":<length>,"_c":<checksum>,"_k":"<id>"}
//
// _n and _o are the record's Position, so a Reader over the same FASTA file
// can Seek straight to it. _l and _c describe the joined sequence and let
// Fetch notice when the FASTA file changed after the index was built.
//
// BuildIndex writes to a locked .tmp file, syncs it and renames it over
// the destination, so an interrupted build never leaves a truncated index
// behind. OpenIndex keeps the file open for lookups and loads a bloom
// filter of the hashed ids; Lookup binary-searches the file directly.
package fasta

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// IndexExt is appended to a FASTA path by IndexPath.
const IndexExt = ".fxi"

// IndexPath returns the conventional index location for a FASTA file.
func IndexPath(fasta string) string {
	return fasta + IndexExt
}

// IndexOptions configures BuildIndex and OpenIndex. Zero values select
// the defaults.
type IndexOptions struct {
	Algorithm int             // id hash and checksum algorithm (default AlgXXHash3)
	Logger    log.FieldLogger // build progress (default logrus standard logger)
}

// Entry is one indexed record.
type Entry struct {
	Hash     string `json:"_id"`
	Line     uint64 `json:"_n"`
	Offset   uint64 `json:"_o"`
	Length   int    `json:"_l"`
	Checksum uint64 `json:"_c"`
	ID       string `json:"_k"`
}

// Position returns where the record starts in the FASTA file.
func (e Entry) Position() Position {
	return Position{Line: e.Line, Offset: e.Offset}
}

// Index is an open index file. It is safe for concurrent use, Close
// included: calls racing with Close either complete or fail with ErrClosed.
type Index struct {
	f      *os.File
	header *Header
	size   int64
	bloom  *bloom // read-only after OpenIndex
	closed atomic.Bool
}

func (o *IndexOptions) defaults() error {
	if o.Algorithm == 0 {
		o.Algorithm = AlgXXHash3
	}
	if !validAlg(o.Algorithm) {
		return fmt.Errorf("fasta: unknown hash algorithm %d", o.Algorithm)
	}
	if o.Logger == nil {
		o.Logger = log.StandardLogger()
	}
	return nil
}

// BuildIndex reads every remaining record from r and writes an index of
// them to path. It returns the number of records indexed.
func BuildIndex(path string, r *Reader, opts IndexOptions) (int, error) {
	if err := opts.defaults(); err != nil {
		return 0, err
	}

	var entries []Entry
	var source uint64
	for {
		view, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		pos, _ := r.Position()
		id := string(view.ID())
		length := 0
		for l := range view.Lines() {
			length += len(l)
		}
		entries = append(entries, Entry{
			Hash:     hashID(id, opts.Algorithm),
			Line:     pos.Line,
			Offset:   pos.Offset,
			Length:   length,
			Checksum: view.Checksum(opts.Algorithm),
			ID:       id,
		})
		source = r.recordEnd()
	}

	// Same-hash entries keep file order so Lookup finds the first record.
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.Hash, b.Hash)
	})

	tmp, err := createTemp(path + ".tmp")
	if err != nil {
		return 0, err
	}
	if err := writeIndex(tmp.File, entries, Header{
		Version:   IndexVersion,
		Algorithm: opts.Algorithm,
		Timestamp: time.Now().UnixMilli(),
		Count:     len(entries),
		Source:    int64(source),
	}); err != nil {
		os.Remove(tmp.Name())
		tmp.release()
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		tmp.release()
		return 0, fmt.Errorf("index: rename: %w", err)
	}
	if err := tmp.release(); err != nil {
		return 0, fmt.Errorf("index: close temp: %w", err)
	}

	opts.Logger.WithFields(log.Fields{"path": path, "entries": len(entries)}).Debug("index built")
	return len(entries), nil
}

// writeIndex writes entries after a header placeholder, then backfills the
// header and syncs tmp.
func writeIndex(tmp *os.File, entries []Entry, hdr Header) error {
	if _, err := tmp.Write(make([]byte, HeaderSize)); err != nil {
		return fmt.Errorf("index: write header placeholder: %w", err)
	}
	w := bufio.NewWriter(&offsetWriter{w: tmp, off: HeaderSize})
	for i := range entries {
		data, err := json.Marshal(&entries[i])
		if err != nil {
			return fmt.Errorf("index: marshal entry: %w", err)
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("index: write entries: %w", err)
	}

	hdrBytes, err := hdr.encode()
	if err != nil {
		return fmt.Errorf("index: encode header: %w", err)
	}
	if _, err := tmp.WriteAt(hdrBytes, 0); err != nil {
		return fmt.Errorf("index: write header: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("index: sync: %w", err)
	}
	return nil
}

// offsetWriter adapts WriterAt to sequential writes.
type offsetWriter struct {
	w   io.WriterAt
	off int64
}

func (ow *offsetWriter) Write(p []byte) (int, error) {
	n, err := ow.w.WriteAt(p, ow.off)
	ow.off += int64(n)
	return n, err
}

// OpenIndex opens an index built by BuildIndex.
func OpenIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	hdr, err := header(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	end, err := size(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	idx := &Index{f: f, header: hdr, size: end, bloom: newBloom(hdr.Count)}
	err = sweep(f, HeaderSize, end, func(_ int64, data []byte) bool {
		idx.bloom.Add(string(data[hashStart:hashEnd]))
		return true
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	return idx, nil
}

// Header returns the index metadata.
func (idx *Index) Header() Header {
	return *idx.header
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return idx.header.Count
}

// Lookup returns the entry for the first record with the given id.
func (idx *Index) Lookup(id string) (Entry, error) {
	if idx.closed.Load() {
		return Entry{}, ErrClosed
	}
	h := hashID(id, idx.header.Algorithm)
	if !idx.bloom.Contains(h) {
		return Entry{}, ErrNotFound
	}

	for _, c := range group(idx.f, h, HeaderSize, idx.size) {
		var e Entry
		if err := json.Unmarshal(c.Data, &e); err != nil {
			return Entry{}, fmt.Errorf("%w: offset %d: %w", ErrCorruptIndex, c.Offset, err)
		}
		if e.ID == id {
			return e, nil
		}
	}
	// Reads fail once the file is closed; report that rather than a miss.
	if idx.closed.Load() {
		return Entry{}, ErrClosed
	}
	return Entry{}, ErrNotFound
}

// Entries yields every entry in index order (sorted by hashed id).
func (idx *Index) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		if idx.closed.Load() {
			yield(Entry{}, ErrClosed)
			return
		}
		var stop bool
		err := sweep(idx.f, HeaderSize, idx.size, func(offset int64, data []byte) bool {
			var e Entry
			if err := json.Unmarshal(data, &e); err != nil {
				stop = true
				yield(Entry{}, fmt.Errorf("%w: offset %d: %w", ErrCorruptIndex, offset, err))
				return false
			}
			if !yield(e, nil) {
				stop = true
				return false
			}
			return true
		})
		if err != nil && !stop {
			if idx.closed.Load() {
				err = ErrClosed
			} else {
				err = fmt.Errorf("%w: %w", ErrCorruptIndex, err)
			}
			yield(Entry{}, err)
		}
	}
}

// Fetch looks up id, seeks r to the record and returns an owned copy. r
// must read the FASTA file the index was built from. The sequence is
// checked against the indexed length and checksum.
func (idx *Index) Fetch(r *Reader, id string) (Record, error) {
	e, err := idx.Lookup(id)
	if err != nil {
		return Record{}, err
	}
	if err := r.Seek(e.Position()); err != nil {
		return Record{}, err
	}
	view, err := r.Next()
	if errors.Is(err, io.EOF) {
		return Record{}, fmt.Errorf("%w: %s: no record at %s", ErrChecksum, id, e.Position())
	}
	if err != nil {
		return Record{}, err
	}

	rec := view.ToOwned()
	if string(rec.ID()) != id || len(rec.Sequence) != e.Length ||
		rec.Checksum(idx.header.Algorithm) != e.Checksum {
		return Record{}, fmt.Errorf("%w: %s at %s", ErrChecksum, id, e.Position())
	}
	return rec, nil
}

// Close releases the index file.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return nil
	}
	return idx.f.Close()
}
