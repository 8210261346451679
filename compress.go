// Compressed FASTA output.
//
// Create is the writing counterpart of Open: the format comes from the file
// extension (.gz or .zst, otherwise plain) and Close flushes the Writer,
// finishes the compressed stream and closes the file, in that order.
//
// zstd output uses SpeedFastest. Rewriting a large FASTA file is dominated
// by compression time and the ratio gain from higher levels is small on
// nucleotide text.
package fasta

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
)

// FormatOf returns the output format Create picks for path.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return FormatGzip
	case ".zst", ".zstd":
		return FormatZstd
	default:
		return FormatPlain
	}
}

// Create creates path and returns a Writer wrapping sequences at width.
// Close the Writer to finish the file.
func Create(path string, width int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	dst, closer, err := compressor(f, FormatOf(path))
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	w := NewWriter(dst, width)
	if closer != nil {
		w.closers = append(w.closers, closer)
	}
	w.closers = append(w.closers, f)
	return w, nil
}

// compressor wraps dst in an encoder for format. The returned closer is
// nil for plain output.
func compressor(dst io.Writer, format string) (io.Writer, io.Closer, error) {
	switch format {
	case FormatGzip:
		gz, err := gzip.NewWriterLevel(dst, gzip.DefaultCompression)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: gzip: %w", ErrIO, err)
		}
		return gz, gz, nil
	case FormatZstd:
		zw, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: zstd: %w", ErrIO, err)
		}
		return zw, zw, nil
	default:
		return dst, nil, nil
	}
}

// Close flushes buffered output and closes anything Create opened. For a
// Writer from NewWriter it only flushes.
func (w *Writer) Close() error {
	err := w.Flush()
	for _, c := range w.closers {
		err = multierr.Append(err, c.Close())
	}
	w.closers = nil
	return err
}
