// Header of the index file.
//
// The header is exactly 128 bytes, padded with spaces and terminated with a
// newline, so the first entry always starts at HeaderSize. It records how
// the entries were keyed and enough about the source FASTA file to notice
// when the index has gone stale.
package fasta

import (
	"bytes"
	"os"

	json "github.com/goccy/go-json"
)

// HeaderSize is the fixed size of the header in bytes.
const HeaderSize = 128

// IndexVersion is written into new headers.
const IndexVersion = 1

// Header contains index metadata stored at the start of the file.
type Header struct {
	Version   int   `json:"_v"`
	Algorithm int   `json:"_alg"` // Hash algorithm (1=xxHash3, 2=FNV1a, 3=Blake2b)
	Timestamp int64 `json:"_ts"`  // Unix milliseconds when written
	Count     int   `json:"_n"`   // number of entries
	Source    int64 `json:"_src"` // end offset of the last record; checked by Verify
}

// header reads and parses the header from a file.
func header(f *os.File) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return nil, ErrCorruptHeader
	}
	if buf[HeaderSize-1] != '\n' {
		return nil, ErrCorruptHeader
	}

	var hdr Header
	if err := json.Unmarshal(bytes.TrimSpace(buf), &hdr); err != nil {
		return nil, ErrCorruptHeader
	}
	if hdr.Version != IndexVersion || !validAlg(hdr.Algorithm) {
		return nil, ErrCorruptHeader
	}
	return &hdr, nil
}

// encode serialises the header to exactly HeaderSize bytes with padding.
func (h *Header) encode() ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	if len(data) > HeaderSize-1 {
		return nil, ErrCorruptHeader // header too large
	}

	buf := bytes.Repeat([]byte{' '}, HeaderSize)
	copy(buf, data)
	buf[HeaderSize-1] = '\n'
	return buf, nil
}
