// Opening FASTA files from disk.
//
// Open sniffs the first bytes of the file and transparently decompresses
// gzip and zstd input. Plain files are handed to the Reader as the
// *os.File itself, so they stay seekable; compressed streams are not, and
// Seek on them only works while the target is still buffered.
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression formats recognised by Open.
const (
	FormatPlain = "plain"
	FormatGzip  = "gzip"
	FormatZstd  = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect returns the compression format of a stream from its first bytes.
func Detect(head []byte) string {
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return FormatGzip
	case bytes.HasPrefix(head, zstdMagic):
		return FormatZstd
	default:
		return FormatPlain
	}
}

// Open opens a FASTA file for reading. Close the Reader to release it.
func Open(path string, config Config) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	head := make([]byte, len(zstdMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		f.Close()
		return nil, ioError("sniff", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, ioError("seek", err)
	}

	var src io.Reader = f
	closers := []io.Closer{f}

	switch format := Detect(head[:n]); format {
	case FormatGzip:
		gz, err := gzip.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: gzip: %w", ErrIO, err)
		}
		src = onlyReader{gz}
		closers = append(closers, gz)
	case FormatZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: zstd: %w", ErrIO, err)
		}
		src = onlyReader{zr}
		closers = append(closers, zstdCloser{zr})
	}

	r, err := NewReader(src, config)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closers = closers
	r.log.WithField("path", path).Debug("opened")
	return r, nil
}

// onlyReader hides any Seek method of a decompressor so the Reader treats
// the stream as non-seekable.
type onlyReader struct {
	io.Reader
}

// zstdCloser adapts zstd.Decoder, whose Close returns nothing.
type zstdCloser struct {
	d *zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.d.Close()
	return nil
}
